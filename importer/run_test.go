package importer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap/zaptest"

	"importmore/common"
	"importmore/config"
	"importmore/flow"
	"importmore/state"
	"importmore/tui"
	"importmore/xdoc"
)

const peopleXML = `<?xml version="1.0"?>
<people xmlns="urn:people">
  <person id="p1"><name>Alice</name></person>
  <person id="p2"><name>Bob</name></person>
</people>`

const fragmentXML = `<ref id="$$IMPORT(@id)$$">$$IMPORT(p:name)$$</ref>`

func setup(t *testing.T) (context.Context, string, string) {
	t.Helper()

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration: %v", err)
	}
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)

	dir := t.TempDir()
	resource := filepath.Join(dir, "people.xml")
	if err := os.WriteFile(resource, []byte(peopleXML), 0644); err != nil {
		t.Fatal(err)
	}
	target := filepath.Join(dir, "target.xml")
	if err := os.WriteFile(target, []byte(`<doc><list/></doc>`), 0644); err != nil {
		t.Fatal(err)
	}
	return ctx, resource, target
}

func runImport(ctx context.Context, args ...string) error {
	cmd := &cli.Command{
		Name:   "import",
		Flags:  Flags(),
		Action: Run,
	}
	return cmd.Run(ctx, append([]string{"import"}, args...))
}

func TestRunUpdatesTarget(t *testing.T) {
	ctx, resource, target := setup(t)

	err := runImport(ctx,
		"--resource", resource,
		"--ns", "p=urn:people",
		"--candidates", "//p:person",
		"--label", "p:name",
		"--fragment", fragmentXML,
		"--at", "/doc/list",
		"--choose", "2",
		target)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(`<doc><list><ref id="p2">Bob</ref></list></doc>`, strings.TrimSpace(string(data))); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}
}

func TestRunTargetInDefaultNamespace(t *testing.T) {
	ctx, resource, target := setup(t)
	if err := os.WriteFile(target, []byte(`<doc xmlns="urn:people"><list/></doc>`), 0644); err != nil {
		t.Fatal(err)
	}

	err := runImport(ctx,
		"--resource", resource,
		"--ns", "p=urn:people",
		"--candidates", "//p:person",
		"--label", "p:name",
		"--fragment", fragmentXML,
		"--at", "/p:doc/p:list",
		"--choose", "1",
		target)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(`<doc xmlns="urn:people"><list><ref id="p1">Alice</ref></list></doc>`, strings.TrimSpace(string(data))); diff != "" {
		t.Errorf("target mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDeclinedSelectionKeepsTarget(t *testing.T) {
	ctx, resource, target := setup(t)

	err := runImport(ctx,
		"--resource", resource,
		"--ns", "p=urn:people",
		"--candidates", "//p:person",
		"--label", "p:name",
		"--fragment", fragmentXML,
		"--choose", "0",
		target)
	if !errors.Is(err, flow.ErrAborted) {
		t.Fatalf("expected aborted, got %v", err)
	}
	if got := flow.Canceled(err); got != flow.AbortPhaseAfterCommit {
		t.Errorf("abort phase = %s", got)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `<doc><list/></doc>` {
		t.Errorf("target changed: %s", data)
	}
}

func TestRunArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{
			name: "no target",
			args: []string{"--candidates", "//x", "--label", "y", "--fragment", "z", "--choose", "1"},
		},
		{
			name: "bad namespace",
			args: []string{"--ns", "p", "--candidates", "//x", "--label", "y", "--fragment", "z", "target.xml"},
			is:   flow.ErrInvalidArgument,
		},
		{
			name: "default namespace binding",
			args: []string{"--ns", "=urn:people", "--candidates", "//x", "--label", "y", "--fragment", "z", "target.xml"},
			is:   xdoc.ErrDefaultNamespace,
		},
		{
			name: "both fragments",
			args: []string{"--fragment", "z", "--fragment-file", "z.xml", "target.xml"},
		},
		{
			name: "missing expressions",
			args: []string{"--fragment", "z", "--choose", "1", "--resource", "r.xml"},
			is:   flow.ErrInvalidArgument,
		},
		{
			name: "bad position",
			args: []string{"--candidates", "//x", "--label", "y", "--fragment", "z", "--position", "around", "--choose", "1"},
			is:   flow.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _, target := setup(t)
			args := tt.args
			if tt.is != nil {
				args = append(args, target)
			}
			err := runImport(ctx, args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("expected %v, got %v", tt.is, err)
			}
		})
	}
}

func TestExecuteDryRun(t *testing.T) {
	ctx, resource, target := setup(t)
	env := state.EnvFromContext(ctx)
	env.DryRun = true

	var out bytes.Buffer
	err := execute(ctx, env, session{
		req: flow.Request{
			Location:            resource,
			NamespacePrefixes:   []string{"p"},
			NamespaceURIs:       []string{"urn:people"},
			CandidateExpression: "//p:person",
			LabelExpression:     "p:name",
			Fragment:            fragmentXML,
			DialogTitle:         "Import elements",
			SelectionLabel:      "Choose element",
		},
		prompt: tui.Preset{},
		dialog: tui.Preset{Choice: 1},
		out:    &out,
	}, env.Log)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != `<ref id="p1">Alice</ref>` {
		t.Errorf("printed %q", got)
	}
	data, _ := os.ReadFile(target)
	if string(data) != `<doc><list/></doc>` {
		t.Errorf("dry run changed target: %s", data)
	}
}

func TestExecuteNextEditable(t *testing.T) {
	ctx, resource, target := setup(t)
	env := state.EnvFromContext(ctx)

	var out bytes.Buffer
	err := execute(ctx, env, session{
		req: flow.Request{
			Location:            resource,
			NamespacePrefixes:   []string{"p"},
			NamespaceURIs:       []string{"urn:people"},
			CandidateExpression: "//p:person",
			LabelExpression:     "p:name",
			Fragment:            `<item ref="$$IMPORT(@id)$$"><note/></item>`,
			DialogTitle:         "Import elements",
			SelectionLabel:      "Choose element",
			Insert: flow.InsertArgs{
				Location:         "/doc/list",
				Position:         common.InsertPositionInsideFirst,
				GoToNextEditable: true,
			},
		},
		target: target,
		prompt: tui.Preset{},
		dialog: tui.Preset{Choice: 2},
		out:    &out,
	}, env.Log)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "/doc/list/item/note" {
		t.Errorf("next editable %q", got)
	}
}

func TestReadFragment(t *testing.T) {
	file := filepath.Join(t.TempDir(), "fragment.xml")
	if err := os.WriteFile(file, []byte(fragmentXML), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := readFragment("", file)
	if err != nil || got != fragmentXML {
		t.Errorf("from file: %q, %v", got, err)
	}
	got, err = readFragment("<a/>", "")
	if err != nil || got != "<a/>" {
		t.Errorf("from text: %q, %v", got, err)
	}
	if _, err := readFragment("", filepath.Join(t.TempDir(), "missing.xml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFirstOf(t *testing.T) {
	if got := firstOf("", "  ", "b", "c"); got != "b" {
		t.Errorf("firstOf = %q", got)
	}
	if got := firstOf(); got != "" {
		t.Errorf("firstOf() = %q", got)
	}
}
