package xdoc

import (
	"errors"
	"fmt"
	"strings"
)

// XMLNamespace is always bound to "xml" prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// ErrDefaultNamespace is returned for bindings with empty prefix. Unprefixed
// names in expressions always mean names in no namespace.
var ErrDefaultNamespace = errors.New("default namespace bindings are not supported, bind a prefix")

// Binding is a single prefix to namespace URI association.
type Binding struct {
	Prefix string
	URI    string
}

// Namespaces is ordered immutable set of prefix bindings used to evaluate
// expressions. Zero value has no bindings.
type Namespaces struct {
	list []Binding
}

// NewNamespaces builds bindings from two parallel lists.
func NewNamespaces(prefixes, uris []string) (Namespaces, error) {
	if len(prefixes) != len(uris) {
		return Namespaces{}, fmt.Errorf("namespace prefixes (%d) and URIs (%d) do not match", len(prefixes), len(uris))
	}
	list := make([]Binding, 0, len(prefixes))
	seen := make(map[string]struct{}, len(prefixes))
	for i, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			return Namespaces{}, fmt.Errorf("namespace URI %q: %w", uris[i], ErrDefaultNamespace)
		}
		if _, ok := seen[p]; ok {
			return Namespaces{}, fmt.Errorf("duplicate namespace prefix %q", p)
		}
		if p == "xml" && uris[i] != XMLNamespace {
			return Namespaces{}, fmt.Errorf("prefix %q cannot be rebound", p)
		}
		seen[p] = struct{}{}
		list = append(list, Binding{Prefix: p, URI: strings.TrimSpace(uris[i])})
	}
	return Namespaces{list: list}, nil
}

// ParseNamespaces builds bindings from "prefix=uri" pairs.
func ParseNamespaces(pairs []string) (Namespaces, error) {
	prefixes := make([]string, 0, len(pairs))
	uris := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		p, u, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(u) == "" {
			return Namespaces{}, fmt.Errorf("bad namespace binding %q, expected prefix=uri", pair)
		}
		prefixes = append(prefixes, p)
		uris = append(uris, u)
	}
	return NewNamespaces(prefixes, uris)
}

// Len returns number of bindings.
func (ns Namespaces) Len() int { return len(ns.list) }

// Bindings returns copy of bindings in original order.
func (ns Namespaces) Bindings() []Binding {
	return append([]Binding(nil), ns.list...)
}

// Lookup returns URI bound to prefix.
func (ns Namespaces) Lookup(prefix string) (string, bool) {
	if prefix == "xml" {
		return XMLNamespace, true
	}
	for _, b := range ns.list {
		if b.Prefix == prefix {
			return b.URI, true
		}
	}
	return "", false
}

func (ns Namespaces) String() string {
	parts := make([]string, 0, len(ns.list))
	for _, b := range ns.list {
		parts = append(parts, b.Prefix+"="+b.URI)
	}
	return strings.Join(parts, " ")
}

// compilerMap returns bindings in the form expression compiler expects.
func (ns Namespaces) compilerMap() map[string]string {
	m := make(map[string]string, len(ns.list)+1)
	for _, b := range ns.list {
		m[b.Prefix] = b.URI
	}
	m["xml"] = XMLNamespace
	return m
}
