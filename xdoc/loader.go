package xdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"importmore/archive"
	"importmore/config"
	"importmore/misc"
)

// maxResourceSize limits size of downloaded resources.
const maxResourceSize = 256 << 20

// Loader fetches XML resources from local files, files inside zip archives
// and remote locations and parses them into documents.
type Loader struct {
	log     *zap.Logger
	rpt     *config.Report
	timeout time.Duration
	token   string
	pwd     string
}

// LoaderOption configures Loader.
type LoaderOption func(*Loader)

// WithFetchConfig applies fetch timeout and bearer token for remote locations.
func WithFetchConfig(cfg *config.FetchConfig) LoaderOption {
	return func(l *Loader) {
		if cfg == nil {
			return
		}
		l.timeout = cfg.Timeout
		l.token = string(cfg.Token)
	}
}

// WithReport makes loader keep copy of every loaded resource in debug report.
func WithReport(rpt *config.Report) LoaderOption {
	return func(l *Loader) {
		l.rpt = rpt
	}
}

// WithWorkDir sets directory relative local locations are resolved against.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.pwd = dir
	}
}

func NewLoader(log *zap.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{log: log.Named("loader")}
	for _, o := range opts {
		o(l)
	}
	if l.pwd == "" {
		if wd, err := os.Getwd(); err == nil {
			l.pwd = wd
		} else {
			l.pwd = "."
		}
	}
	return l
}

// Load reads resource at location and parses it. Any failure is reported as
// *ResourceLoadError.
func (l *Loader) Load(ctx context.Context, location string) (*etree.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(location) == "" {
		return nil, &ResourceLoadError{Location: location, Err: errors.New("location is empty")}
	}

	data, err := l.fetch(ctx, location)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, ctxErr
		}
		return nil, &ResourceLoadError{Location: location, Err: err}
	}
	l.rpt.StoreData(config.EntryName("resources", location), data)

	doc, err := Parse(data)
	if err != nil {
		return nil, &ResourceLoadError{Location: location, Err: err}
	}
	l.log.Debug("Resource loaded", zap.String("location", location), zap.Int("size", len(data)))
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	detected, err := getter.Detect(location, l.pwd, getter.Detectors)
	if err != nil {
		return nil, fmt.Errorf("failed to detect source type: %w", err)
	}
	u, err := url.Parse(detected)
	if err != nil {
		return nil, fmt.Errorf("failed to parse detected URL: %w", err)
	}
	l.log.Debug("Location detected", zap.String("location", location), zap.String("detected", detected))

	if u.Scheme == "file" || u.Scheme == "" {
		path := location
		if u.Scheme == "file" {
			path = filepath.FromSlash(u.Path)
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(l.pwd, path)
		}
		return readLocal(path)
	}
	return l.download(ctx, detected)
}

func readLocal(path string) ([]byte, error) {
	if arc, entry, ok := archive.Split(path); ok {
		return archive.ReadFile(arc, entry)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%q is a directory", path)
	}
	if fi.Size() > maxResourceSize {
		return nil, fmt.Errorf("%q is too large", path)
	}
	return os.ReadFile(path)
}

func (l *Loader) download(ctx context.Context, src string) ([]byte, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	tempDir, err := os.MkdirTemp("", misc.GetAppName()+"-fetch-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	header := make(http.Header)
	if l.token != "" {
		header.Set("Authorization", "Bearer "+l.token)
	}
	httpGetter := &getter.HttpGetter{
		Header:                header,
		MaxBytes:              maxResourceSize,
		XTerraformGetDisabled: true,
	}
	getters := make(map[string]getter.Getter, len(getter.Getters))
	for k, v := range getter.Getters {
		getters[k] = v
	}
	getters["http"] = httpGetter
	getters["https"] = httpGetter

	dst := filepath.Join(tempDir, "resource.xml")
	client := &getter.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: getter.ClientModeFile,
		// resource is used as is, never unpacked
		Decompressors:   map[string]getter.Decompressor{},
		Getters:         getters,
		DisableSymlinks: true,
	}

	l.log.Debug("Fetching resource", zap.String("source", src), zap.Duration("timeout", l.timeout))
	if err := client.Get(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("failed to fetch resource: %w", ctxErr)
		}
		return nil, fmt.Errorf("failed to fetch resource: %w", err)
	}
	return readLocal(dst)
}

// Parse reads well-formed XML document from data. Byte order marks are
// honored, other encodings are taken from XML declaration.
func Parse(data []byte) (*etree.Document, error) {
	r, transcoded := decodeBOM(data)

	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: func(label string, input io.Reader) (io.Reader, error) {
			if transcoded {
				// already UTF-8, declaration is stale
				return input, nil
			}
			return charset.NewReaderLabel(label, input)
		},
		PreserveCData: true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &XMLError{Err: fmt.Errorf("not well-formed: %w", err)}
	}
	if doc.Root() == nil {
		return nil, &XMLError{Err: errors.New("document element is missing")}
	}
	return doc, nil
}

var (
	bomUTF32BE = []byte{0x00, 0x00, 0xFE, 0xFF}
	bomUTF32LE = []byte{0xFF, 0xFE, 0x00, 0x00}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
)

// decodeBOM returns reader producing UTF-8 when data starts with byte order
// mark. Without mark data is returned untouched.
func decodeBOM(data []byte) (io.Reader, bool) {
	var dec *encoding.Decoder
	switch {
	case bytes.HasPrefix(data, bomUTF32BE):
		dec = utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder()
	case bytes.HasPrefix(data, bomUTF32LE):
		dec = utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder()
	case bytes.HasPrefix(data, bomUTF16BE):
		dec = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
	case bytes.HasPrefix(data, bomUTF16LE):
		dec = unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder()
	case bytes.HasPrefix(data, bomUTF8):
		return bytes.NewReader(data[len(bomUTF8):]), false
	default:
		return bytes.NewReader(data), false
	}
	return transform.NewReader(bytes.NewReader(data), dec), true
}
