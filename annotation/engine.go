package annotation

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"importmore/xdoc"
)

// Resolver computes value of a single expression against context node.
type Resolver interface {
	Resolve(node xdoc.Node, expression string, ns xdoc.Namespaces) (string, error)
}

// ResolverFunc adapts ordinary function to Resolver.
type ResolverFunc func(node xdoc.Node, expression string, ns xdoc.Namespaces) (string, error)

func (f ResolverFunc) Resolve(node xdoc.Node, expression string, ns xdoc.Namespaces) (string, error) {
	return f(node, expression, ns)
}

// Engine rewrites templates replacing annotations with resolved values.
type Engine struct {
	resolver Resolver
	log      *zap.Logger
}

// NewEngine returns engine using XPath evaluation when resolver is nil.
func NewEngine(resolver Resolver, log *zap.Logger) *Engine {
	if resolver == nil {
		resolver = ResolverFunc(xdoc.Resolve)
	}
	return &Engine{resolver: resolver, log: log.Named("substitute")}
}

// Substitute resolves every distinct annotation of template exactly once
// and splices values into all its occurrences. Values are never scanned
// again. On any failure nothing is returned.
func (e *Engine) Substitute(template string, node xdoc.Node, ns xdoc.Namespaces) (string, error) {
	spans := scan(template)
	if len(spans) == 0 {
		return template, nil
	}

	values := make(map[string]string, len(spans))
	for _, s := range spans {
		if _, ok := values[s.ann.Raw]; ok {
			continue
		}
		v, err := e.resolver.Resolve(node, s.ann.Expression, ns)
		if err != nil {
			return "", fmt.Errorf("unable to resolve %s: %w", s.ann.Raw, err)
		}
		e.log.Debug("Annotation resolved", zap.String("annotation", s.ann.Raw), zap.String("value", v))
		values[s.ann.Raw] = v
	}

	var (
		sb   strings.Builder
		prev int
	)
	sb.Grow(len(template))
	for _, s := range spans {
		sb.WriteString(template[prev:s.start])
		sb.WriteString(values[s.ann.Raw])
		prev = s.end
	}
	sb.WriteString(template[prev:])
	return sb.String(), nil
}
