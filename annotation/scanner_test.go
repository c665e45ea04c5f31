package annotation

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFind(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []Annotation
	}{
		{"none", "<a>plain</a>", []Annotation{}},
		{"single", "<a>$$IMPORT(title)$$</a>", []Annotation{{"$$IMPORT(title)$$", "title"}}},
		{"repeated", "$$IMPORT(a)$$-$$IMPORT(a)$$", []Annotation{{"$$IMPORT(a)$$", "a"}, {"$$IMPORT(a)$$", "a"}}},
		{"whitespace kept", "$$IMPORT( a )$$", []Annotation{{"$$IMPORT( a )$$", " a "}}},
		{"empty expression", "$$IMPORT()$$", []Annotation{{"$$IMPORT()$$", ""}}},
		{"predicate with parens", "$$IMPORT(x[count(y)=1])$$", []Annotation{{"$$IMPORT(x[count(y)=1])$$", "x[count(y)=1]"}}},
		{"truncated at end marker", "$$IMPORT(concat(a, ')$$'))$$", []Annotation{{"$$IMPORT(concat(a, ')$$", "concat(a, '"}}},
		{"does not span lines", "$$IMPORT(a\nb)$$", []Annotation{}},
		{"unterminated", "$$IMPORT(a)$", []Annotation{}},
		{"lowercase marker", "$$import(a)$$", []Annotation{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Find(tt.template)); diff != "" {
				t.Errorf("Find() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDistinct(t *testing.T) {
	template := "$$IMPORT(b)$$ $$IMPORT(a)$$ $$IMPORT(b)$$ $$IMPORT( a)$$ $$IMPORT(a)$$"
	want := []Annotation{
		{"$$IMPORT(b)$$", "b"},
		{"$$IMPORT(a)$$", "a"},
		{"$$IMPORT( a)$$", " a"},
	}
	if diff := cmp.Diff(want, Distinct(template)); diff != "" {
		t.Errorf("Distinct() mismatch (-want +got):\n%s", diff)
	}
	if got := Distinct("nothing here"); len(got) != 0 {
		t.Errorf("Distinct() = %v, want empty", got)
	}
}

func TestContains(t *testing.T) {
	if Contains("<a/>") {
		t.Error("Contains() = true for template without annotations")
	}
	if !Contains("<a>$$IMPORT(.)$$</a>") {
		t.Error("Contains() = false for annotated template")
	}
}

func TestDescription(t *testing.T) {
	d := Description("candidates")
	for _, part := range []string{"$$IMPORT( xpath )$$", "'candidates'"} {
		if !strings.Contains(d, part) {
			t.Errorf("Description() = %q, missing %q", d, part)
		}
	}
}
