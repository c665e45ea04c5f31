// Package importer is the "import" command: it collects arguments from
// command line and configuration, runs import flow against target document
// and saves the result.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"importmore/annotation"
	"importmore/candidates"
	"importmore/common"
	"importmore/config"
	"importmore/flow"
	"importmore/insert"
	"importmore/state"
	"importmore/tui"
	"importmore/utils/debug"
	"importmore/xdoc"
)

// Flags returns command line flags understood by Run.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "resource", Aliases: []string{"r"}, Usage: "`LOCATION` of the XML resource (path, path inside zip archive or URL), asked for when absent"},
		&cli.StringFlag{Name: "candidates", Usage: "XPath `EXPRESSION` selecting candidate nodes in the resource"},
		&cli.StringFlag{Name: "label", Usage: "XPath `EXPRESSION` evaluated against each candidate to produce its label"},
		&cli.StringSliceFlag{Name: "ns", Usage: "namespace binding `PREFIX=URI` (repeatable), unprefixed names in expressions match only elements in no namespace"},
		&cli.StringFlag{Name: "fragment", Aliases: []string{"f"}, Usage: "XML `TEXT` with $$IMPORT(xpath)$$ annotations"},
		&cli.StringFlag{Name: "fragment-file", Usage: "read fragment from `FILE`"},
		&cli.StringFlag{Name: "title", Usage: "selection dialog `TITLE`"},
		&cli.StringFlag{Name: "selection-label", Usage: "selection dialog `LABEL`"},
		&cli.StringFlag{Name: "at", Usage: "XPath `EXPRESSION` locating insertion node in the target, document element when absent"},
		&cli.StringFlag{Name: "position", Usage: "insert `POSITION` relative to located node (" + strings.Join(common.InsertPositionNames(), ", ") + ")"},
		&cli.BoolFlag{Name: "next-editable", Usage: "report position of the first empty element of inserted fragment"},
		&cli.BoolFlag{Name: "remove-selection", Usage: "replace located node instead of inserting next to it"},
		&cli.IntFlag{Name: "choose", Usage: "do not ask, select candidate `N` (1-based, document order), 0 declines"},
		&cli.BoolFlag{Name: "dry-run", Aliases: []string{"n"}, Usage: "print resolved fragment instead of changing target"},
	}
}

// Run is the action of the import command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("import")

	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many targets", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	req, err := buildRequest(cmd, &env.Cfg.Import)
	if err != nil {
		return err
	}

	env.DryRun = cmd.Bool("dry-run")
	var target string
	if tgt := cmd.Args().Get(0); len(tgt) > 0 {
		if target, err = filepath.Abs(tgt); err != nil {
			return err
		}
	}
	if !env.DryRun && len(target) == 0 {
		return errors.New("no target document has been specified")
	}
	if env.DryRun && len(target) > 0 {
		log.Warn("Dry run, target will not be changed", zap.String("target", target))
	}

	var prompt flow.LocationPrompt
	var dialog flow.SelectionDialog
	if cmd.IsSet("choose") {
		preset := tui.Preset{Location: req.Location, Choice: int(cmd.Int("choose"))}
		prompt, dialog = preset, preset
	} else {
		p := tui.NewPrompts(tui.NewSurveyDriver(os.Stdin, os.Stdout, os.Stderr), &env.Cfg.Import.Dialog, log)
		prompt, dialog = p, p
	}

	log.Info("Import starting", zap.String("run", env.RunID), zap.String("target", target), zap.Bool("dry-run", env.DryRun))
	defer func(start time.Time) {
		log.Info("Import completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return execute(ctx, env, session{
		req:    req,
		target: target,
		prompt: prompt,
		dialog: dialog,
		out:    os.Stdout,
	}, log)
}

// session carries everything single import needs, independently of CLI
// framework.
type session struct {
	req    flow.Request
	target string
	prompt flow.LocationPrompt
	dialog flow.SelectionDialog
	out    io.Writer
}

func execute(ctx context.Context, env *state.LocalEnv, s session, log *zap.Logger) error {
	loader := xdoc.NewLoader(log,
		xdoc.WithFetchConfig(&env.Cfg.Import.Fetch),
		xdoc.WithReport(env.Rpt),
	)

	var (
		inserter flow.Inserter
		doc      *insert.Document
		err      error
	)
	if env.DryRun {
		inserter = &printer{out: s.out}
	} else {
		if err := env.Rpt.StoreCopy(config.EntryName("target", filepath.Base(s.target)), s.target); err != nil {
			log.Warn("Unable to store target copy in debug report", zap.Error(err))
		}
		if doc, err = insert.Open(s.target, log); err != nil {
			return err
		}
		// broken bindings are reported by the flow
		if ns, err := xdoc.NewNamespaces(s.req.NamespacePrefixes, s.req.NamespaceURIs); err == nil {
			doc.UseNamespaces(ns)
		}
		inserter = doc
	}

	f := flow.New(
		candidates.NewService(loader, log),
		annotation.NewEngine(nil, log),
		s.prompt, s.dialog, inserter, log)

	res, err := f.Run(ctx, s.req)
	env.Rpt.StoreData(config.EntryName("run", env.RunID), []byte(debug.DumpRun(env.RunID, s.req, res, err)))
	if err != nil {
		if flow.Canceled(err) == flow.AbortPhaseAfterCommit {
			// location is known and candidates were shown, nothing changed
			log.Info("Import aborted", zap.String("location", res.Location))
		}
		return err
	}

	if doc == nil {
		return nil
	}
	backup, err := doc.Save(&env.Cfg.Import.Target)
	if err != nil {
		return err
	}
	fields := []zap.Field{zap.String("target", doc.Path()), zap.String("selected", res.Selected.Label)}
	if len(backup) > 0 {
		fields = append(fields, zap.String("backup", backup))
	}
	if next := doc.NextEditable(); len(next) > 0 {
		fields = append(fields, zap.String("next-editable", next))
		fmt.Fprintln(s.out, next)
	}
	log.Info("Target updated", fields...)
	return nil
}

// buildRequest merges command line arguments over configured defaults.
func buildRequest(cmd *cli.Command, cfg *config.ImportConfig) (flow.Request, error) {
	req := flow.Request{
		Location:            cmd.String("resource"),
		LocationTitle:       cfg.Dialog.LocationTitle,
		LocationLabel:       cfg.Dialog.LocationLabel,
		CandidateExpression: firstOf(cmd.String("candidates"), cfg.CandidateLocation),
		LabelExpression:     firstOf(cmd.String("label"), cfg.LabelExpression),
		DialogTitle:         firstOf(cmd.String("title"), cfg.Dialog.Title),
		SelectionLabel:      firstOf(cmd.String("selection-label"), cfg.Dialog.SelectionLabel),
		Insert: flow.InsertArgs{
			Location:         cmd.String("at"),
			Position:         cfg.Target.Position,
			GoToNextEditable: cmd.Bool("next-editable"),
			RemoveSelection:  cmd.Bool("remove-selection"),
		},
	}
	if p := cmd.String("position"); len(p) > 0 {
		// validated by the flow together with other arguments
		req.Insert.Position = common.InsertPosition(p)
	}

	req.NamespacePrefixes, req.NamespaceURIs = cfg.NamespaceLists()
	extra, err := xdoc.ParseNamespaces(cmd.StringSlice("ns"))
	if err != nil {
		return req, &flow.Error{
			Kind:  flow.KindInvalidArgument,
			State: flow.StateAwaitingLocation,
			Err:   fmt.Errorf("bad --ns argument: %w", err),
		}
	}
	for _, b := range extra.Bindings() {
		req.NamespacePrefixes = append(req.NamespacePrefixes, b.Prefix)
		req.NamespaceURIs = append(req.NamespaceURIs, b.URI)
	}

	fragment, err := readFragment(cmd.String("fragment"), cmd.String("fragment-file"))
	if err != nil {
		return req, err
	}
	req.Fragment = fragment
	return req, nil
}

func readFragment(text, file string) (string, error) {
	switch {
	case len(text) > 0 && len(file) > 0:
		return "", errors.New("--fragment and --fragment-file are mutually exclusive")
	case len(file) > 0:
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("unable to read fragment: %w", err)
		}
		return string(data), nil
	}
	return text, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if len(strings.TrimSpace(v)) > 0 {
			return v
		}
	}
	return ""
}

// printer is inserter for dry runs.
type printer struct {
	out io.Writer
}

func (p *printer) InsertOrReplace(ctx context.Context, fragment string, _ flow.InsertArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(p.out, fragment)
	return err
}
