package xdoc

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/antchfx/xpath"
	"github.com/beevik/etree"
)

var errNoContext = errors.New("context node is not set")

// Resolve evaluates expression relative to node and returns string value of
// the result. For node-sets it is string value of the first node in document
// order, empty node-set is an error.
func Resolve(node Node, expression string, ns Namespaces) (string, error) {
	if node.IsZero() {
		return "", &XMLError{Err: errNoContext}
	}
	expr, err := compile(expression, ns)
	if err != nil {
		return "", err
	}

	res, err := evaluate(expr, node)
	if err != nil {
		return "", &ExpressionError{Expression: expression, Err: err}
	}
	switch v := res.(type) {
	case []Node:
		if len(v) == 0 {
			return "", &ExpressionError{Expression: expression, Err: errors.New("no result")}
		}
		return v[0].Value(), nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return formatNumber(v), nil
	}
	return "", &ExpressionError{Expression: expression, Err: fmt.Errorf("unexpected result type %T", res)}
}

// Select evaluates node-set expression relative to node and returns all
// selected nodes in document order.
func Select(node Node, expression string, ns Namespaces) ([]Node, error) {
	if node.IsZero() {
		return nil, &XMLError{Err: errNoContext}
	}
	expr, err := compile(expression, ns)
	if err != nil {
		return nil, err
	}

	res, err := evaluate(expr, node)
	if err != nil {
		return nil, &ExpressionError{Expression: expression, Err: err}
	}
	nodes, ok := res.([]Node)
	if !ok {
		return nil, &ExpressionError{Expression: expression, Err: fmt.Errorf("expression does not select nodes, result is %T", res)}
	}
	return nodes, nil
}

func compile(expression string, ns Namespaces) (expr *xpath.Expr, err error) {
	if err := checkPrefixes(expression, ns); err != nil {
		return nil, &ExpressionError{Expression: expression, Err: err}
	}
	defer func() {
		if r := recover(); r != nil {
			expr, err = nil, &ExpressionError{Expression: expression, Err: fmt.Errorf("compilation failed: %v", r)}
		}
	}()
	expr, err = xpath.CompileWithNS(expression, ns.compilerMap())
	if err != nil {
		return nil, &ExpressionError{Expression: expression, Err: err}
	}
	return expr, nil
}

// evaluate runs compiled expression on a private copy of node navigator.
// Node-set results are returned as []Node sorted in document order, scalars
// as is. Evaluator panics are turned into errors.
func evaluate(expr *xpath.Expr, node Node) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("evaluation failed: %v", r)
		}
	}()

	switch v := expr.Evaluate(node.nav.Copy()).(type) {
	case *xpath.NodeIterator:
		return collect(v), nil
	case string, bool, float64:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported result type %T", v)
	}
}

func collect(it *xpath.NodeIterator) []Node {
	type identity struct {
		tok  etree.Token
		attr int
	}
	var (
		nodes []Node
		seen  = make(map[identity]struct{})
	)
	for it.MoveNext() {
		nav, ok := it.Current().Copy().(*navigator)
		if !ok {
			continue
		}
		id := identity{tok: nav.curr, attr: nav.attr}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		nodes = append(nodes, Node{nav: nav})
	}
	slices.SortStableFunc(nodes, func(a, b Node) int {
		return slices.Compare(a.orderKey(), b.orderKey())
	})
	return nodes
}

// formatNumber converts number to string following XPath string() rules.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// checkPrefixes makes sure every namespace prefix used by expression is
// bound. Otherwise evaluator would silently compare lexical prefixes of
// nodes.
func checkPrefixes(expression string, ns Namespaces) error {
	for _, p := range usedPrefixes(expression) {
		if p == "" {
			continue
		}
		if _, ok := ns.Lookup(p); !ok {
			return fmt.Errorf("namespace prefix %q is not bound", p)
		}
	}
	return nil
}

// usedPrefixes does lexical scan of expression and returns prefixes of
// qualified names. String literals, axis names and numbers are skipped.
func usedPrefixes(expression string) []string {
	var (
		prefixes []string
		src      = []rune(expression)
	)
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'':
			end := slices.Index(src[i+1:], c)
			if end < 0 {
				return prefixes
			}
			i += end + 2
		case c >= '0' && c <= '9':
			for i < len(src) && (src[i] >= '0' && src[i] <= '9' || src[i] == '.') {
				i++
			}
		case isNameStart(c):
			start := i
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			if i+1 < len(src) && src[i] == ':' && src[i+1] != ':' {
				prefixes = append(prefixes, string(src[start:i]))
				i++
				// local part or wildcard belongs to the same name
				if i < len(src) && src[i] == '*' {
					i++
				}
				for i < len(src) && isNameChar(src[i]) {
					i++
				}
			}
		default:
			i++
		}
	}
	return prefixes
}

func isNameStart(c rune) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c > 0x7f
}

func isNameChar(c rune) bool {
	return isNameStart(c) || c == '-' || c == '.' || c >= '0' && c <= '9'
}
