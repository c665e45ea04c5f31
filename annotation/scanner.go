// Package annotation finds $$IMPORT(expr)$$ placeholders in fragment
// templates and replaces them with values computed from a context node.
package annotation

import (
	"fmt"
	"regexp"
)

// Annotation delimiters.
const (
	StartMarker = "$$IMPORT("
	EndMarker   = ")$$"
)

// Expression is captured non-greedily up to the first end marker, so
// expression containing ")$$" is truncated there. Expressions never span
// lines.
var pattern = regexp.MustCompile(regexp.QuoteMeta(StartMarker) + `(.*?)` + regexp.QuoteMeta(EndMarker))

// Annotation is a single placeholder found in template.
type Annotation struct {
	// Raw is the whole token including delimiters.
	Raw string
	// Expression is the inner text, not trimmed.
	Expression string
}

type span struct {
	start, end int
	ann        Annotation
}

func scan(template string) []span {
	locs := pattern.FindAllStringSubmatchIndex(template, -1)
	spans := make([]span, 0, len(locs))
	for _, l := range locs {
		spans = append(spans, span{
			start: l[0],
			end:   l[1],
			ann:   Annotation{Raw: template[l[0]:l[1]], Expression: template[l[2]:l[3]]},
		})
	}
	return spans
}

// Find returns every annotation in template order.
func Find(template string) []Annotation {
	spans := scan(template)
	out := make([]Annotation, 0, len(spans))
	for _, s := range spans {
		out = append(out, s.ann)
	}
	return out
}

// Distinct returns annotations deduplicated by exact raw text, in order of
// first occurrence.
func Distinct(template string) []Annotation {
	var (
		out  []Annotation
		seen = make(map[string]struct{})
	)
	for _, a := range Find(template) {
		if _, ok := seen[a.Raw]; ok {
			continue
		}
		seen[a.Raw] = struct{}{}
		out = append(out, a)
	}
	return out
}

// Contains reports whether template has at least one annotation.
func Contains(template string) bool {
	return pattern.MatchString(template)
}

// Description explains annotation syntax to people writing templates.
// locationArgument names the argument holding candidate expression.
func Description(locationArgument string) string {
	return fmt.Sprintf("You may import one or more parts of this argument by using the annotation "+
		"%s xpath %s where xpath denotes an XPath expression relative to the result(s) of the "+
		"argument '%s'.", StartMarker, EndMarker, locationArgument)
}
