package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"importmore/candidates"
	"importmore/config"
	"importmore/flow"
)

// Prompts asks user for resource location and candidate selection.
type Prompts struct {
	driver   PromptDriver
	pageSize int
	order    config.LabelOrder
	log      *zap.Logger
}

var (
	_ flow.LocationPrompt  = (*Prompts)(nil)
	_ flow.SelectionDialog = (*Prompts)(nil)
)

func NewPrompts(driver PromptDriver, cfg *config.DialogConfig, log *zap.Logger) *Prompts {
	p := &Prompts{driver: driver, log: log.Named("tui")}
	if cfg != nil {
		p.pageSize = cfg.PageSize
		p.order = cfg.LabelOrder
	}
	return p
}

func (p *Prompts) AskLocation(ctx context.Context, title, label string) (string, error) {
	if title != "" {
		if err := p.driver.Info(ctx, title); err != nil {
			return "", err
		}
	}
	return p.driver.Input(ctx, InputConfig{
		Message: label,
		Help:    "Local path, path inside zip archive or URL of the XML resource",
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("location cannot be empty")
			}
			return nil
		},
	})
}

// Present offers candidate labels. Labels that occur more than once are
// described with node path. With natural order only presentation changes,
// chosen candidate is always the one behind the picked line.
func (p *Prompts) Present(ctx context.Context, title, label string, options []candidates.Candidate) (candidates.Candidate, error) {
	if title != "" {
		if err := p.driver.Info(ctx, title); err != nil {
			return candidates.Candidate{}, err
		}
	}
	if len(options) == 0 {
		if err := p.driver.Info(ctx, "Nothing to choose from"); err != nil {
			return candidates.Candidate{}, err
		}
		return candidates.Candidate{}, fmt.Errorf("%w: no candidates", flow.ErrCanceled)
	}

	order := presentationOrder(options, p.order)

	counts := make(map[string]int, len(options))
	for _, o := range options {
		counts[o.Label]++
	}
	labels := make([]string, len(order))
	descriptions := make([]string, len(order))
	for i, idx := range order {
		labels[i] = options[idx].Label
		if counts[options[idx].Label] > 1 {
			descriptions[i] = options[idx].Node.Path()
		}
	}

	picked, err := p.driver.Select(ctx, SelectConfig{
		Message:      label,
		Options:      labels,
		Descriptions: descriptions,
		PageSize:     p.pageSize,
	})
	if err != nil {
		return candidates.Candidate{}, err
	}
	if picked < 0 || picked >= len(order) {
		return candidates.Candidate{}, fmt.Errorf("selection %d is out of range", picked)
	}
	chosen := options[order[picked]]
	p.log.Debug("Candidate selected", zap.String("label", chosen.Label), zap.String("node", chosen.Node.Path()))
	return chosen, nil
}

// presentationOrder returns indexes of options in the order they are shown.
func presentationOrder(options []candidates.Candidate, order config.LabelOrder) []int {
	idx := make([]int, len(options))
	for i := range idx {
		idx[i] = i
	}
	if order == config.LabelOrderNatural {
		slices.SortStableFunc(idx, func(a, b int) int {
			la, lb := options[a].Label, options[b].Label
			switch {
			case natural.Less(la, lb):
				return -1
			case natural.Less(lb, la):
				return 1
			}
			return 0
		})
	}
	return idx
}
