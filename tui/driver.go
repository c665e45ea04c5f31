// Package tui implements interactive collaborators of the import flow on
// top of terminal prompts.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"importmore/flow"
)

// InputConfig configures a text input prompt.
type InputConfig struct {
	Message   string
	Default   string
	Help      string
	Validator func(string) error
}

// SelectConfig configures a single choice prompt. Descriptions, when
// present, are parallel to Options.
type SelectConfig struct {
	Message      string
	Options      []string
	Descriptions []string
	Help         string
	PageSize     int
}

// PromptDriver abstracts terminal so prompts can be tested without one.
type PromptDriver interface {
	Input(ctx context.Context, cfg InputConfig) (string, error)
	// Select returns index of the chosen option.
	Select(ctx context.Context, cfg SelectConfig) (int, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	stdio terminal.Stdio
}

// NewSurveyDriver returns driver using given streams.
func NewSurveyDriver(in terminal.FileReader, out terminal.FileWriter, errOut io.Writer) PromptDriver {
	return &surveyDriver{stdio: terminal.Stdio{In: in, Out: out, Err: errOut}}
}

func (d *surveyDriver) opts() []survey.AskOpt {
	return []survey.AskOpt{survey.WithStdio(d.stdio.In, d.stdio.Out, d.stdio.Err)}
}

func (d *surveyDriver) Input(ctx context.Context, cfg InputConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: cfg.Message,
		Help:    cfg.Help,
		Default: cfg.Default,
	}
	opts := d.opts()
	if cfg.Validator != nil {
		opts = append(opts, survey.WithValidator(func(ans any) error {
			s, _ := ans.(string)
			return cfg.Validator(s)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Select(ctx context.Context, cfg SelectConfig) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	// answer written into int is an index, so equal labels stay distinguishable
	var out int
	prompt := &survey.Select{
		Message: cfg.Message,
		Options: cfg.Options,
		Help:    cfg.Help,
	}
	if cfg.PageSize > 0 {
		prompt.PageSize = cfg.PageSize
	}
	if len(cfg.Descriptions) == len(cfg.Options) {
		prompt.Description = func(_ string, index int) string {
			return cfg.Descriptions[index]
		}
	}
	if err := survey.AskOne(prompt, &out, d.opts()...); err != nil {
		return 0, translateSurveyErr(err)
	}
	return out, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.stdio.Out, msg)
	return err
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", flow.ErrCanceled, err)
	}
	return err
}
