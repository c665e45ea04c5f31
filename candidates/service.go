// Package candidates selects nodes of external XML resource user can choose
// from and labels them.
package candidates

import (
	"context"
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"importmore/xdoc"
)

// Candidate is a selectable node with its display label. Labels may repeat,
// only node identifies candidate.
type Candidate struct {
	Label string
	Node  xdoc.Node
}

// Loader fetches and parses resource.
type Loader interface {
	Load(ctx context.Context, location string) (*etree.Document, error)
}

type Service struct {
	loader Loader
	log    *zap.Logger
}

func NewService(loader Loader, log *zap.Logger) *Service {
	return &Service{loader: loader, log: log.Named("candidates")}
}

// Fetch loads resource at location, selects candidate nodes with
// candidateExpr evaluated against document node and labels each with
// labelExpr evaluated against the candidate. Candidates are returned in
// document order, empty selection is not an error.
func (s *Service) Fetch(ctx context.Context, location, candidateExpr, labelExpr string, ns xdoc.Namespaces) ([]Candidate, error) {
	doc, err := s.loader.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nodes, err := xdoc.Select(xdoc.DocumentNode(doc), candidateExpr, ns)
	if err != nil {
		return nil, fmt.Errorf("unable to select candidates: %w", err)
	}

	result := make([]Candidate, 0, len(nodes))
	for _, n := range nodes {
		label, err := xdoc.Resolve(n, labelExpr, ns)
		if err != nil {
			return nil, fmt.Errorf("unable to label candidate %s: %w", n.Path(), err)
		}
		result = append(result, Candidate{Label: label, Node: n})
	}

	s.log.Debug("Candidates fetched",
		zap.String("location", location),
		zap.String("candidates", candidateExpr),
		zap.Int("count", len(result)))
	return result, nil
}
