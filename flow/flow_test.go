package flow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"importmore/annotation"
	"importmore/candidates"
	"importmore/common"
	"importmore/xdoc"
)

const library = `<library>
  <book><title>Foo</title><author>Bar</author></book>
  <book><title>Baz</title><author>Qux</author></book>
</library>`

type fakeLoader struct{ err error }

func (f fakeLoader) Load(_ context.Context, _ string) (*etree.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return xdoc.Parse([]byte(library))
}

type fakePrompt struct {
	answer string
	err    error
	calls  int
}

func (p *fakePrompt) AskLocation(_ context.Context, title, label string) (string, error) {
	p.calls++
	return p.answer, p.err
}

type fakeDialog struct {
	pick    int
	err     error
	calls   int
	title   string
	label   string
	options []candidates.Candidate
}

func (d *fakeDialog) Present(_ context.Context, title, label string, options []candidates.Candidate) (candidates.Candidate, error) {
	d.calls++
	d.title, d.label, d.options = title, label, options
	if d.err != nil {
		return candidates.Candidate{}, d.err
	}
	return options[d.pick], nil
}

type fakeInserter struct {
	err       error
	fragments []string
	args      []InsertArgs
}

func (i *fakeInserter) InsertOrReplace(_ context.Context, fragment string, args InsertArgs) error {
	i.fragments = append(i.fragments, fragment)
	i.args = append(i.args, args)
	return i.err
}

type fixture struct {
	prompt   *fakePrompt
	dialog   *fakeDialog
	inserter *fakeInserter
	flow     *Flow
}

func newFixture(t *testing.T, loader candidates.Loader) *fixture {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	fx := &fixture{
		prompt:   &fakePrompt{answer: "library.xml"},
		dialog:   &fakeDialog{},
		inserter: &fakeInserter{},
	}
	fx.flow = New(candidates.NewService(loader, log), annotation.NewEngine(nil, log), fx.prompt, fx.dialog, fx.inserter, log)
	return fx
}

func validRequest() Request {
	return Request{
		Location:            "library.xml",
		CandidateExpression: "//book",
		LabelExpression:     "title",
		Fragment:            "<a>$$IMPORT(title)$$ by $$IMPORT(author)$$</a>",
		DialogTitle:         "Import elements",
		SelectionLabel:      "Choose element",
		Insert: InsertArgs{
			Location:         "/doc/body",
			Position:         common.InsertPositionInsideLast,
			GoToNextEditable: true,
		},
	}
}

func TestRun_Success(t *testing.T) {
	fx := newFixture(t, fakeLoader{})
	fx.dialog.pick = 1

	res, err := fx.flow.Run(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if diff := cmp.Diff([]string{"<a>Baz by Qux</a>"}, fx.inserter.fragments); diff != "" {
		t.Errorf("inserted fragments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]InsertArgs{validRequest().Insert}, fx.inserter.args); diff != "" {
		t.Errorf("insert args mismatch (-want +got):\n%s", diff)
	}
	if fx.prompt.calls != 0 {
		t.Error("prompt must not be used when location is given")
	}
	if fx.dialog.title != "Import elements" || fx.dialog.label != "Choose element" || len(fx.dialog.options) != 2 {
		t.Errorf("dialog got title=%q label=%q options=%d", fx.dialog.title, fx.dialog.label, len(fx.dialog.options))
	}

	want := []State{StateAwaitingLocation, StateFetchingCandidates, StateAwaitingSelection, StateSubstituting, StateDelegating, StateDone}
	if diff := cmp.Diff(want, res.Trace); diff != "" {
		t.Errorf("trace mismatch (-want +got):\n%s", diff)
	}
	if res.Fragment != "<a>Baz by Qux</a>" || res.Selected.Label != "Baz" || res.Location != "library.xml" {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRun_LocationFromPrompt(t *testing.T) {
	fx := newFixture(t, fakeLoader{})
	req := validRequest()
	req.Location = ""

	res, err := fx.flow.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fx.prompt.calls != 1 || res.Location != "library.xml" {
		t.Errorf("prompt calls = %d, location = %q", fx.prompt.calls, res.Location)
	}
}

func TestRun_Cancellations(t *testing.T) {
	t.Run("location prompt", func(t *testing.T) {
		fx := newFixture(t, fakeLoader{})
		fx.prompt.err = ErrCanceled
		req := validRequest()
		req.Location = ""

		res, err := fx.flow.Run(context.Background(), req)

		var fe *Error
		if !errors.As(err, &fe) {
			t.Fatalf("Run() error = %v, want *Error", err)
		}
		if fe.Kind != KindInvalidArgument || fe.Abort != AbortPhaseBeforeCommit {
			t.Errorf("got kind=%s abort=%s", fe.Kind, fe.Abort)
		}
		if !errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrAborted) {
			t.Error("location cancel must be invalid argument, not aborted operation")
		}
		if !strings.Contains(err.Error(), MsgDialogClosed) {
			t.Errorf("message = %q", err.Error())
		}
		if fx.dialog.calls != 0 || len(fx.inserter.fragments) != 0 {
			t.Error("nothing should happen after location prompt cancel")
		}
		if res.State() != StateAborted {
			t.Errorf("final state = %s", res.State())
		}
	})

	t.Run("selection dialog", func(t *testing.T) {
		fx := newFixture(t, fakeLoader{})
		fx.dialog.err = ErrCanceled

		res, err := fx.flow.Run(context.Background(), validRequest())

		var fe *Error
		if !errors.As(err, &fe) {
			t.Fatalf("Run() error = %v, want *Error", err)
		}
		if fe.Kind != KindOperationAborted || fe.Abort != AbortPhaseAfterCommit || fe.State != StateAwaitingSelection {
			t.Errorf("got kind=%s abort=%s state=%s", fe.Kind, fe.Abort, fe.State)
		}
		if !errors.Is(err, ErrAborted) || errors.Is(err, ErrInvalidArgument) {
			t.Error("selection cancel must be aborted operation")
		}
		if !strings.Contains(err.Error(), MsgImportAborted) {
			t.Errorf("message = %q", err.Error())
		}
		if len(fx.inserter.fragments) != 0 {
			t.Error("inserter must not be called")
		}
		if res.State() != StateAborted || len(res.Candidates) != 2 {
			t.Errorf("final state = %s, candidates = %d", res.State(), len(res.Candidates))
		}
	})

	t.Run("phases differ", func(t *testing.T) {
		before := &Error{Kind: KindInvalidArgument, Abort: AbortPhaseBeforeCommit, Err: ErrCanceled}
		after := &Error{Kind: KindOperationAborted, Abort: AbortPhaseAfterCommit, Err: ErrCanceled}
		if Canceled(before) == Canceled(after) {
			t.Error("callers must be able to tell cancellations apart")
		}
		if Canceled(errors.New("x")) != AbortPhaseNone {
			t.Error("plain error is not a cancellation")
		}
	})
}

func TestRun_EmptyCandidates(t *testing.T) {
	fx := newFixture(t, fakeLoader{})
	fx.dialog.err = ErrCanceled
	req := validRequest()
	req.CandidateExpression = "//magazine"

	_, err := fx.flow.Run(context.Background(), req)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("Run() error = %v", err)
	}
	if fx.dialog.calls != 1 {
		t.Fatalf("dialog calls = %d, want 1", fx.dialog.calls)
	}
	if fx.dialog.options == nil || len(fx.dialog.options) != 0 {
		t.Errorf("dialog options = %#v, want empty list", fx.dialog.options)
	}
}

func TestRun_Failures(t *testing.T) {
	boom := errors.New("disk full")

	tests := []struct {
		name      string
		loader    fakeLoader
		modify    func(*Request)
		inserter  error
		prompt    error
		wantKind  Kind
		wantState State
		wantErr   error
	}{
		{
			name:      "bad annotation expression",
			modify:    func(r *Request) { r.Fragment = "$$IMPORT(bad[)$$" },
			wantKind:  KindInvalidArgument,
			wantState: StateSubstituting,
			wantErr:   xdoc.ErrExpression,
		},
		{
			name:      "annotation selects nothing",
			modify:    func(r *Request) { r.Fragment = "<a>$$IMPORT(isbn)$$</a>" },
			wantKind:  KindInvalidArgument,
			wantState: StateSubstituting,
			wantErr:   xdoc.ErrExpression,
		},
		{
			name:      "resource cannot be loaded",
			loader:    fakeLoader{err: &xdoc.ResourceLoadError{Location: "x", Err: boom}},
			wantKind:  KindInvalidArgument,
			wantState: StateFetchingCandidates,
			wantErr:   xdoc.ErrResourceLoad,
		},
		{
			name:      "bad candidate expression",
			modify:    func(r *Request) { r.CandidateExpression = "//book[" },
			wantKind:  KindInvalidArgument,
			wantState: StateFetchingCandidates,
			wantErr:   xdoc.ErrExpression,
		},
		{
			name:      "prompt failure",
			modify:    func(r *Request) { r.Location = "" },
			prompt:    boom,
			wantKind:  KindInvalidArgument,
			wantState: StateAwaitingLocation,
			wantErr:   boom,
		},
		{
			name:      "inserter failure",
			inserter:  boom,
			wantKind:  KindOperationFailure,
			wantState: StateDelegating,
			wantErr:   ErrOperationFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, tt.loader)
			fx.inserter.err = tt.inserter
			fx.prompt.err = tt.prompt
			req := validRequest()
			if tt.modify != nil {
				tt.modify(&req)
			}

			res, err := fx.flow.Run(context.Background(), req)

			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("Run() error = %v, want *Error", err)
			}
			if fe.Kind != tt.wantKind || fe.State != tt.wantState || fe.Abort != AbortPhaseNone {
				t.Errorf("got kind=%s state=%s abort=%s", fe.Kind, fe.State, fe.Abort)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error %v does not match %v", err, tt.wantErr)
			}
			if res.State() != StateFailed {
				t.Errorf("final state = %s", res.State())
			}
			if tt.wantState != StateDelegating && len(fx.inserter.fragments) != 0 {
				t.Error("inserter must not be called")
			}
		})
	}
}

func TestRun_InserterErrorUnchanged(t *testing.T) {
	fx := newFixture(t, fakeLoader{})
	boom := errors.New("read-only document")
	fx.inserter.err = boom

	_, err := fx.flow.Run(context.Background(), validRequest())
	if errors.Unwrap(err) != boom {
		t.Errorf("collaborator error was changed: %v", errors.Unwrap(err))
	}
}

func TestRun_Validation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Request)
		want   string
	}{
		{"fragment", func(r *Request) { r.Fragment = "" }, "fragment is required"},
		{"candidates", func(r *Request) { r.CandidateExpression = " " }, "candidate expression is required"},
		{"label", func(r *Request) { r.LabelExpression = "" }, "label expression is required"},
		{"title", func(r *Request) { r.DialogTitle = "" }, "dialog title is required"},
		{"selection label", func(r *Request) { r.SelectionLabel = "" }, "selection label is required"},
		{"namespace lists", func(r *Request) { r.NamespacePrefixes = []string{"tei"} }, "do not match"},
		{"duplicate prefix", func(r *Request) {
			r.NamespacePrefixes = []string{"a", "a"}
			r.NamespaceURIs = []string{"urn:a", "urn:b"}
		}, "duplicate namespace prefix"},
		{"default namespace", func(r *Request) {
			r.NamespacePrefixes = []string{""}
			r.NamespaceURIs = []string{"urn:a"}
		}, "default namespace bindings are not supported"},
		{"position", func(r *Request) { r.Insert.Position = "sideways" }, "not a valid InsertPosition"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, fakeLoader{})
			req := validRequest()
			req.Location = ""
			tt.modify(&req)

			_, err := fx.flow.Run(context.Background(), req)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("Run() error = %v, want ErrInvalidArgument", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
			if fx.prompt.calls != 0 || fx.dialog.calls != 0 {
				t.Error("no interaction expected before validation passes")
			}
		})
	}

	t.Run("all problems reported", func(t *testing.T) {
		_, err := (&Request{}).Validate()
		for _, part := range []string{"fragment", "candidate expression", "label expression", "dialog title", "selection label"} {
			if !strings.Contains(err.Error(), part) {
				t.Errorf("error %q does not mention %q", err.Error(), part)
			}
		}
	})
}

func TestRun_MissingCollaborators(t *testing.T) {
	log := zaptest.NewLogger(t)
	f := New(candidates.NewService(fakeLoader{}, log), annotation.NewEngine(nil, log), nil, nil, nil, log)

	res, err := f.Run(context.Background(), validRequest())
	if !errors.Is(err, ErrOperationFailed) || !errors.Is(err, errNotConfigured) {
		t.Fatalf("Run() error = %v, want not configured failure", err)
	}
	if !strings.Contains(err.Error(), "dialog, inserter") {
		t.Errorf("error %q does not name missing collaborators", err.Error())
	}
	if res.State() != StateFailed {
		t.Errorf("final state = %s", res.State())
	}
}

func TestRun_ContextCanceled(t *testing.T) {
	fx := newFixture(t, fakeLoader{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := fx.flow.Run(ctx, validRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if res.State() != StateFailed || len(fx.inserter.fragments) != 0 {
		t.Errorf("final state = %s, inserted = %d", res.State(), len(fx.inserter.fragments))
	}
}

func TestEnums(t *testing.T) {
	if KindOperationAborted.String() != "operation-aborted" || AbortPhaseBeforeCommit.String() != "before-commit" {
		t.Error("unexpected enum names")
	}
	s, err := ParseState("awaiting-selection")
	if err != nil || s != StateAwaitingSelection {
		t.Errorf("ParseState() = %v, %v", s, err)
	}
	if _, err := ParseKind("fatal"); !errors.Is(err, ErrInvalidKind) {
		t.Errorf("ParseKind() error = %v", err)
	}
}
