package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"importmore/common"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	NamespaceConfig struct {
		Prefix string `yaml:"prefix" validate:"required"`
		URI    string `yaml:"uri" validate:"required"`
	}

	DialogConfig struct {
		Title          string     `yaml:"title" validate:"required"`
		SelectionLabel string     `yaml:"selection_label" validate:"required"`
		LocationTitle  string     `yaml:"location_title" validate:"required"`
		LocationLabel  string     `yaml:"location_label" validate:"required"`
		PageSize       int        `yaml:"page_size" validate:"min=3,max=100"`
		LabelOrder     LabelOrder `yaml:"label_order" validate:"gte=0"`
	}

	FetchConfig struct {
		Timeout time.Duration `yaml:"timeout" validate:"gte=0"`
		// Sent as bearer token with http(s) requests.
		Token SecretString `yaml:"token,omitempty"`
	}

	TargetConfig struct {
		Position           common.InsertPosition `yaml:"position" validate:"oneof=inside-first inside-last before after"`
		Backup             bool                  `yaml:"backup"`
		BackupNameTemplate string                `yaml:"backup_name_template" validate:"required_if=Backup true"`
	}

	ImportConfig struct {
		Namespaces        []NamespaceConfig `yaml:"namespaces" validate:"dive"`
		CandidateLocation string            `yaml:"candidate_location"`
		LabelExpression   string            `yaml:"label_expression"`
		Dialog            DialogConfig      `yaml:"dialog"`
		Fetch             FetchConfig       `yaml:"fetch"`
		Target            TargetConfig      `yaml:"target"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Import    ImportConfig   `yaml:"import"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above, template is expanded at the
	// time of the backup, not when configuration is loaded
	BackupNameTemplateFieldName TemplateFieldName = "backup_name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(BackupNameTemplateFieldName)),
)

// NamespaceLists returns configured namespace bindings as two parallel lists
// of prefixes and URIs, the same shape command line arguments come in.
func (conf *ImportConfig) NamespaceLists() (prefixes, uris []string) {
	for _, ns := range conf.Namespaces {
		prefixes = append(prefixes, ns.Prefix)
		uris = append(uris, ns.URI)
	}
	return prefixes, uris
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, fmt.Errorf("configuration is not valid: %w", err)
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to
// provide sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %v", err)
	}
	return data, nil
}
