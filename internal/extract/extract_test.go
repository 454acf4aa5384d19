package extract

import (
	"slices"
	"testing"

	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/rules"
)

// compile is a helper that compiles enabled rules from name/pattern pairs.
func compile(t *testing.T, pairs ...string) []rules.CompiledRule {
	t.Helper()

	var rs []model.Rule
	for i := 0; i+1 < len(pairs); i += 2 {
		rs = append(rs, model.Rule{Name: pairs[i], Pattern: pairs[i+1], Enabled: true})
	}
	return rules.Compile(rs)
}

// TestExtract tests match extraction and per-scan deduplication.
func TestExtract(t *testing.T) {
	t.Parallel()

	t.Run("returns matches in rule order then match order", func(t *testing.T) {
		t.Parallel()

		compiled := compile(t, "digits", `\d+`, "words", `[a-z]+`)
		e := New()

		got := e.Extract(model.TextBlock{Source: model.SourceVisible, Text: "ab 12 cd 34"}, compiled)
		want := []string{"12", "34", "ab", "cd"}

		if !slices.Equal(got, want) {
			t.Errorf("Extract() = %v, want %v", got, want)
		}
	})

	t.Run("deduplicates within and across blocks", func(t *testing.T) {
		t.Parallel()

		compiled := compile(t, "email", rules.EmailPattern)
		e := New()

		first := e.Extract(model.TextBlock{Text: "a@x.io and a@x.io"}, compiled)
		second := e.Extract(model.TextBlock{Text: "a@x.io b@x.io"}, compiled)

		if !slices.Equal(first, []string{"a@x.io"}) {
			t.Errorf("first = %v", first)
		}
		if !slices.Equal(second, []string{"b@x.io"}) {
			t.Errorf("second = %v", second)
		}
		if e.Seen().Len() != 2 {
			t.Errorf("expected 2 seen items, got %d", e.Seen().Len())
		}
	})

	t.Run("trims matches and drops whitespace-only ones", func(t *testing.T) {
		t.Parallel()

		compiled := compile(t, "padded", `\s*tok\s*`, "space", `\s+`)
		e := New()

		got := e.Extract(model.TextBlock{Text: " tok  "}, compiled)

		if !slices.Equal(got, []string{"tok"}) {
			t.Errorf("Extract() = %v, want [tok]", got)
		}
	})

	t.Run("trims byte order marks from matches", func(t *testing.T) {
		t.Parallel()

		compiled := compile(t, "token", `\S+`)
		e := New()

		got := e.Extract(model.TextBlock{Text: "\uFEFFtok tok"}, compiled)

		if !slices.Equal(got, []string{"tok"}) {
			t.Errorf("Extract() = %q, want [tok]", got)
		}
	})

	t.Run("matches are case-insensitive but items keep their case", func(t *testing.T) {
		t.Parallel()

		compiled := compile(t, "word", "key")
		e := New()

		got := e.Extract(model.TextBlock{Text: "KEY key Key"}, compiled)

		if len(got) != 3 {
			t.Errorf("expected 3 distinct items, got %v", got)
		}
	})

	t.Run("empty block yields nothing", func(t *testing.T) {
		t.Parallel()

		e := New()
		if got := e.Extract(model.TextBlock{}, compile(t, "any", ".")); len(got) != 0 {
			t.Errorf("expected no items, got %v", got)
		}
	})
}

func TestExtractContactScenario(t *testing.T) {
	t.Parallel()

	compiled := rules.Compile([]model.Rule{{Name: "email", Pattern: `[a-z]+@[a-z]+\.[a-z]+`, Enabled: true}})
	e := New()

	got := e.Extract(model.TextBlock{Source: model.SourceVisible, Text: "contact: a@b.com, a@b.com"}, compiled)
	if !slices.Equal(got, []string{"a@b.com"}) {
		t.Errorf("Extract() = %v, want [a@b.com]", got)
	}
}
