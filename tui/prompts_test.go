package tui

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"importmore/candidates"
	"importmore/config"
	"importmore/flow"
	"importmore/xdoc"
)

type fakeDriver struct {
	input     string
	inputErr  error
	pick      int
	selectErr error

	infos     []string
	inputCfg  InputConfig
	selectCfg SelectConfig
}

func (f *fakeDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	f.inputCfg = cfg
	return f.input, f.inputErr
}

func (f *fakeDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	f.selectCfg = cfg
	return f.pick, f.selectErr
}

func (f *fakeDriver) Info(_ context.Context, msg string) error {
	f.infos = append(f.infos, msg)
	return nil
}

func newTestPrompts(t *testing.T, d PromptDriver, order config.LabelOrder) *Prompts {
	t.Helper()
	log := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	return NewPrompts(d, &config.DialogConfig{PageSize: 7, LabelOrder: order}, log)
}

func sampleCandidates(t *testing.T) []candidates.Candidate {
	t.Helper()
	doc, err := xdoc.Parse([]byte(`<l><i>item 10</i><i>item 2</i><i>Alpha</i><i>item 2</i></l>`))
	if err != nil {
		t.Fatal(err)
	}
	nodes, err := xdoc.Select(xdoc.DocumentNode(doc), "//i", xdoc.Namespaces{})
	if err != nil {
		t.Fatal(err)
	}
	out := make([]candidates.Candidate, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, candidates.Candidate{Label: n.Value(), Node: n})
	}
	return out
}

func TestAskLocation(t *testing.T) {
	d := &fakeDriver{input: "catalog.xml"}
	got, err := newTestPrompts(t, d, config.LabelOrderDocument).AskLocation(context.Background(), "Import", "Resource location")
	if err != nil {
		t.Fatalf("AskLocation() error = %v", err)
	}
	if got != "catalog.xml" {
		t.Errorf("AskLocation() = %q", got)
	}
	if d.inputCfg.Message != "Resource location" || len(d.infos) != 1 || d.infos[0] != "Import" {
		t.Errorf("prompt message = %q, infos = %v", d.inputCfg.Message, d.infos)
	}
	if d.inputCfg.Validator("  ") == nil || d.inputCfg.Validator("x.xml") != nil {
		t.Error("validator must reject empty location only")
	}
}

func TestAskLocation_Canceled(t *testing.T) {
	d := &fakeDriver{inputErr: translateSurveyErr(terminal.InterruptErr)}
	_, err := newTestPrompts(t, d, config.LabelOrderDocument).AskLocation(context.Background(), "", "Resource location")
	if !errors.Is(err, flow.ErrCanceled) {
		t.Errorf("AskLocation() error = %v, want flow.ErrCanceled", err)
	}
}

func TestPresent_DocumentOrder(t *testing.T) {
	opts := sampleCandidates(t)
	d := &fakeDriver{pick: 3}

	got, err := newTestPrompts(t, d, config.LabelOrderDocument).Present(context.Background(), "Import elements", "Choose element", opts)
	if err != nil {
		t.Fatalf("Present() error = %v", err)
	}

	if diff := cmp.Diff([]string{"item 10", "item 2", "Alpha", "item 2"}, d.selectCfg.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"", "/l/i[2]", "", "/l/i[4]"}, d.selectCfg.Descriptions); diff != "" {
		t.Errorf("descriptions mismatch (-want +got):\n%s", diff)
	}
	if !got.Node.Same(opts[3].Node) {
		t.Errorf("picked %s, want %s", got.Node.Path(), opts[3].Node.Path())
	}
	if d.selectCfg.PageSize != 7 || d.selectCfg.Message != "Choose element" {
		t.Errorf("select config = %+v", d.selectCfg)
	}
}

func TestPresent_NaturalOrder(t *testing.T) {
	opts := sampleCandidates(t)
	d := &fakeDriver{pick: 2}

	got, err := newTestPrompts(t, d, config.LabelOrderNatural).Present(context.Background(), "", "Choose element", opts)
	if err != nil {
		t.Fatalf("Present() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Alpha", "item 2", "item 2", "item 10"}, d.selectCfg.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	// third line is the second "item 2" in document order
	if !got.Node.Same(opts[3].Node) {
		t.Errorf("picked %s, want %s", got.Node.Path(), opts[3].Node.Path())
	}
}

func TestPresent_Empty(t *testing.T) {
	d := &fakeDriver{}
	_, err := newTestPrompts(t, d, config.LabelOrderDocument).Present(context.Background(), "", "Choose element", []candidates.Candidate{})
	if !errors.Is(err, flow.ErrCanceled) {
		t.Errorf("Present() error = %v, want flow.ErrCanceled", err)
	}
	if len(d.infos) != 1 {
		t.Errorf("infos = %v", d.infos)
	}
}

func TestPresent_Errors(t *testing.T) {
	opts := sampleCandidates(t)

	d := &fakeDriver{selectErr: translateSurveyErr(io.EOF)}
	if _, err := newTestPrompts(t, d, config.LabelOrderDocument).Present(context.Background(), "", "x", opts); !errors.Is(err, flow.ErrCanceled) {
		t.Errorf("Present() error = %v, want flow.ErrCanceled", err)
	}

	d = &fakeDriver{pick: 10}
	if _, err := newTestPrompts(t, d, config.LabelOrderDocument).Present(context.Background(), "", "x", opts); err == nil || errors.Is(err, flow.ErrCanceled) {
		t.Errorf("Present() error = %v, want out of range error", err)
	}
}

func TestTranslateSurveyErr(t *testing.T) {
	other := errors.New("terminal broken")
	if !errors.Is(translateSurveyErr(terminal.InterruptErr), flow.ErrCanceled) {
		t.Error("interrupt must become cancellation")
	}
	if got := translateSurveyErr(other); got != other {
		t.Errorf("translateSurveyErr() = %v, want unchanged", got)
	}
}

func TestPreset(t *testing.T) {
	opts := sampleCandidates(t)
	ctx := context.Background()

	loc, err := Preset{Location: "a.xml"}.AskLocation(ctx, "", "")
	if err != nil || loc != "a.xml" {
		t.Errorf("AskLocation() = %q, %v", loc, err)
	}
	if _, err := (Preset{}).AskLocation(ctx, "", ""); !errors.Is(err, flow.ErrCanceled) {
		t.Errorf("AskLocation() error = %v, want flow.ErrCanceled", err)
	}

	got, err := Preset{Choice: 2}.Present(ctx, "", "", opts)
	if err != nil || !got.Node.Same(opts[1].Node) {
		t.Errorf("Present() = %v, %v", got, err)
	}
	if _, err := (Preset{}).Present(ctx, "", "", opts); !errors.Is(err, flow.ErrCanceled) {
		t.Errorf("Present() error = %v, want flow.ErrCanceled", err)
	}
	for _, choice := range []int{-1, 5} {
		if _, err := (Preset{Choice: choice}).Present(ctx, "", "", opts); err == nil || errors.Is(err, flow.ErrCanceled) {
			t.Errorf("Present(choice %d) error = %v, want range error", choice, err)
		}
	}
}
