package tui

import (
	"context"
	"fmt"
	"strings"

	"importmore/candidates"
	"importmore/flow"
)

// Preset answers flow questions without interaction, for scripted runs.
// Choice is 1-based position of candidate in document order, zero means
// user declines.
type Preset struct {
	Location string
	Choice   int
}

var (
	_ flow.LocationPrompt  = Preset{}
	_ flow.SelectionDialog = Preset{}
)

func (p Preset) AskLocation(ctx context.Context, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Location) == "" {
		return "", fmt.Errorf("%w: no location given", flow.ErrCanceled)
	}
	return p.Location, nil
}

func (p Preset) Present(ctx context.Context, _, _ string, options []candidates.Candidate) (candidates.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return candidates.Candidate{}, err
	}
	if p.Choice == 0 {
		return candidates.Candidate{}, fmt.Errorf("%w: no choice given", flow.ErrCanceled)
	}
	if p.Choice < 0 || p.Choice > len(options) {
		return candidates.Candidate{}, fmt.Errorf("choice %d is out of range, %d candidates available", p.Choice, len(options))
	}
	return options[p.Choice-1], nil
}
