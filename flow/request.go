package flow

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"importmore/common"
	"importmore/xdoc"
)

// InsertArgs are passed to Inserter unchanged.
type InsertArgs struct {
	// XPath of the node in target document, empty means current node.
	Location         string
	Position         common.InsertPosition
	GoToNextEditable bool
	RemoveSelection  bool
}

// Request holds arguments of a single import run.
type Request struct {
	// Resource location, user is asked for it when empty.
	Location      string
	LocationTitle string
	LocationLabel string

	// Parallel lists of namespace bindings.
	NamespacePrefixes []string
	NamespaceURIs     []string

	CandidateExpression string
	LabelExpression     string
	Fragment            string

	DialogTitle    string
	SelectionLabel string

	Insert InsertArgs
}

// Validate checks presence of required arguments and builds namespace
// bindings. All problems are reported at once.
func (r *Request) Validate() (xdoc.Namespaces, error) {
	var err error
	for _, f := range []struct{ name, value string }{
		{"fragment", r.Fragment},
		{"candidate expression", r.CandidateExpression},
		{"label expression", r.LabelExpression},
		{"dialog title", r.DialogTitle},
		{"selection label", r.SelectionLabel},
	} {
		if strings.TrimSpace(f.value) == "" {
			err = multierr.Append(err, fmt.Errorf("%s is required", f.name))
		}
	}
	if r.Insert.Position != "" && !r.Insert.Position.IsValid() {
		err = multierr.Append(err, fmt.Errorf("insert position: %w", common.ErrInvalidInsertPosition))
	}

	ns, nsErr := xdoc.NewNamespaces(r.NamespacePrefixes, r.NamespaceURIs)
	err = multierr.Append(err, nsErr)
	if err != nil {
		return xdoc.Namespaces{}, err
	}
	return ns, nil
}
