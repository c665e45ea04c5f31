package debug

import (
	"errors"
	"fmt"
	"strings"

	"importmore/annotation"
	"importmore/flow"
)

// DumpRun describes import request, everything run produced and final
// error.
func DumpRun(runID string, req flow.Request, res *flow.Result, err error) string {
	tw := NewTreeWriter()

	tw.Line(0, "Run %s", runID)

	tw.Line(1, "Request")
	tw.TextBlock(2, "location", req.Location)
	for i, p := range req.NamespacePrefixes {
		uri := ""
		if i < len(req.NamespaceURIs) {
			uri = req.NamespaceURIs[i]
		}
		tw.Line(2, "xmlns:%s = %s", p, uri)
	}
	tw.TextBlock(2, "candidates", req.CandidateExpression)
	tw.TextBlock(2, "label", req.LabelExpression)
	tw.TextBlock(2, "fragment", req.Fragment)
	tw.TextBlock(2, "insert at", req.Insert.Location)
	tw.Line(2, "position: %s, next editable: %t, remove selection: %t",
		req.Insert.Position, req.Insert.GoToNextEditable, req.Insert.RemoveSelection)

	anns := annotation.Distinct(req.Fragment)
	exprs := make([]string, 0, len(anns))
	for _, a := range anns {
		exprs = append(exprs, a.Raw)
	}
	tw.List(1, "Annotations", exprs)

	if res != nil {
		states := make([]string, 0, len(res.Trace))
		for _, s := range res.Trace {
			states = append(states, s.String())
		}
		tw.Line(1, "Trace: %s", strings.Join(states, " -> "))
		tw.TextBlock(1, "resolved location", res.Location)

		labels := make([]string, 0, len(res.Candidates))
		for _, c := range res.Candidates {
			labels = append(labels, fmt.Sprintf("%q at %s", c.Label, c.Node.Path()))
		}
		tw.List(1, "Candidates", labels)
		if !res.Selected.Node.IsZero() {
			tw.Line(1, "Selected: %q at %s", res.Selected.Label, res.Selected.Node.Path())
		}
		tw.TextBlock(1, "result", res.Fragment)
	}

	if err != nil {
		var fe *flow.Error
		if errors.As(err, &fe) {
			tw.Line(1, "Error: kind=%s abort=%s state=%s", fe.Kind, fe.Abort, fe.State)
		}
		tw.TextBlock(2, "message", err.Error())
	}
	return tw.String()
}
