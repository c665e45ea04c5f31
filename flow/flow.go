// Package flow drives single fragment import: it obtains resource location,
// fetches candidates, lets user pick one, resolves fragment annotations
// against picked node and hands result over for insertion.
package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"importmore/candidates"
	"importmore/xdoc"
)

// Fetcher produces candidates from resource.
type Fetcher interface {
	Fetch(ctx context.Context, location, candidateExpr, labelExpr string, ns xdoc.Namespaces) ([]candidates.Candidate, error)
}

// Substituter resolves fragment annotations against context node.
type Substituter interface {
	Substitute(template string, node xdoc.Node, ns xdoc.Namespaces) (string, error)
}

// LocationPrompt asks user for resource location.
type LocationPrompt interface {
	AskLocation(ctx context.Context, title, label string) (string, error)
}

// SelectionDialog lets user pick one of the candidates. Options may be
// empty.
type SelectionDialog interface {
	Present(ctx context.Context, title, label string, options []candidates.Candidate) (candidates.Candidate, error)
}

// Inserter puts resolved fragment into target document.
type Inserter interface {
	InsertOrReplace(ctx context.Context, fragment string, args InsertArgs) error
}

// Result describes completed or failed run.
type Result struct {
	Location   string
	Candidates []candidates.Candidate
	Selected   candidates.Candidate
	Fragment   string
	// States run went through, last one is terminal.
	Trace []State
}

// State returns last reached state.
func (r *Result) State() State {
	if len(r.Trace) == 0 {
		return StateAwaitingLocation
	}
	return r.Trace[len(r.Trace)-1]
}

type Flow struct {
	fetcher  Fetcher
	engine   Substituter
	prompt   LocationPrompt
	dialog   SelectionDialog
	inserter Inserter
	log      *zap.Logger
}

// errNotConfigured is reported by Run when a required collaborator is nil.
var errNotConfigured = errors.New("import flow is not configured")

// New creates flow. Fetcher, engine, dialog and inserter are required, prompt
// may be nil when every request carries resource location.
func New(fetcher Fetcher, engine Substituter, prompt LocationPrompt, dialog SelectionDialog, inserter Inserter, log *zap.Logger) *Flow {
	return &Flow{
		fetcher:  fetcher,
		engine:   engine,
		prompt:   prompt,
		dialog:   dialog,
		inserter: inserter,
		log:      log.Named("flow"),
	}
}

// Run executes import. Result is always returned and keeps whatever was
// gathered before failure. Errors are *Error except for context
// cancellation which is returned as is.
func (f *Flow) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{}

	if err := f.configured(); err != nil {
		return res, f.fail(res, &Error{Kind: KindOperationFailure, State: StateAwaitingLocation, Err: err})
	}

	ns, err := req.Validate()
	if err != nil {
		return res, f.fail(res, invalidArgument(StateAwaitingLocation, "bad request: %w", err))
	}

	// location
	f.enter(res, StateAwaitingLocation)
	location := strings.TrimSpace(req.Location)
	if location == "" {
		if f.prompt == nil {
			return res, f.fail(res, invalidArgument(StateAwaitingLocation, "resource location is required"))
		}
		location, err = f.prompt.AskLocation(ctx, req.LocationTitle, req.LocationLabel)
		switch {
		case errors.Is(err, ErrCanceled):
			return res, f.abort(res, &Error{
				Kind:  KindInvalidArgument,
				Abort: AbortPhaseBeforeCommit,
				State: StateAwaitingLocation,
				Err:   fmt.Errorf("%s: %w", MsgDialogClosed, err),
			})
		case err != nil:
			return res, f.failCtx(ctx, res, invalidArgument(StateAwaitingLocation, "unable to get resource location: %w", err))
		}
		if location = strings.TrimSpace(location); location == "" {
			return res, f.fail(res, invalidArgument(StateAwaitingLocation, "resource location is required"))
		}
	}
	res.Location = location

	// candidates
	if err := f.next(ctx, res, StateFetchingCandidates); err != nil {
		return res, err
	}
	options, err := f.fetcher.Fetch(ctx, location, req.CandidateExpression, req.LabelExpression, ns)
	if err != nil {
		return res, f.failCtx(ctx, res, invalidArgument(StateFetchingCandidates, "unable to fetch candidates: %w", err))
	}
	res.Candidates = options

	// selection
	if err := f.next(ctx, res, StateAwaitingSelection); err != nil {
		return res, err
	}
	selected, err := f.dialog.Present(ctx, req.DialogTitle, req.SelectionLabel, options)
	switch {
	case errors.Is(err, ErrCanceled):
		return res, f.abort(res, &Error{
			Kind:  KindOperationAborted,
			Abort: AbortPhaseAfterCommit,
			State: StateAwaitingSelection,
			Err:   fmt.Errorf("%s: %w", MsgImportAborted, err),
		})
	case err != nil:
		return res, f.failCtx(ctx, res, invalidArgument(StateAwaitingSelection, "unable to select candidate: %w", err))
	}
	res.Selected = selected

	// substitution
	if err := f.next(ctx, res, StateSubstituting); err != nil {
		return res, err
	}
	fragment, err := f.engine.Substitute(req.Fragment, selected.Node, ns)
	if err != nil {
		return res, f.fail(res, invalidArgument(StateSubstituting, "unable to build fragment: %w", err))
	}
	res.Fragment = fragment

	// insertion
	if err := f.next(ctx, res, StateDelegating); err != nil {
		return res, err
	}
	if err := f.inserter.InsertOrReplace(ctx, fragment, req.Insert); err != nil {
		return res, f.failCtx(ctx, res, &Error{Kind: KindOperationFailure, State: StateDelegating, Err: err})
	}

	f.enter(res, StateDone)
	f.log.Info("Fragment imported",
		zap.String("location", location),
		zap.String("selected", selected.Label),
		zap.Int("candidates", len(options)))
	return res, nil
}

func (f *Flow) configured() error {
	var missing []string
	if f.fetcher == nil {
		missing = append(missing, "fetcher")
	}
	if f.engine == nil {
		missing = append(missing, "engine")
	}
	if f.dialog == nil {
		missing = append(missing, "dialog")
	}
	if f.inserter == nil {
		missing = append(missing, "inserter")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", errNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

func (f *Flow) enter(res *Result, s State) {
	res.Trace = append(res.Trace, s)
	f.log.Debug("State", zap.Stringer("state", s))
}

// next checks for cancellation before moving to the next state.
func (f *Flow) next(ctx context.Context, res *Result, s State) error {
	if err := ctx.Err(); err != nil {
		f.enter(res, StateFailed)
		return err
	}
	f.enter(res, s)
	return nil
}

func (f *Flow) fail(res *Result, err *Error) error {
	f.enter(res, StateFailed)
	f.log.Debug("Import failed", zap.Stringer("kind", err.Kind), zap.Stringer("at", err.State), zap.Error(err.Err))
	return err
}

// failCtx reports context cancellation as is.
func (f *Flow) failCtx(ctx context.Context, res *Result, err *Error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err.Err, ctxErr) {
		f.enter(res, StateFailed)
		return ctxErr
	}
	return f.fail(res, err)
}

func (f *Flow) abort(res *Result, err *Error) error {
	f.enter(res, StateAborted)
	f.log.Debug("Import canceled", zap.Stringer("phase", err.Abort), zap.Stringer("at", err.State))
	return err
}
