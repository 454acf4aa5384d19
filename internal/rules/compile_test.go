package rules

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/harvester/internal/model"
)

// newTestLogger returns a logger writing text records into buf.
func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// TestCompile tests rule compilation and filtering.
func TestCompile(t *testing.T) {
	t.Parallel()

	t.Run("compiles enabled rules in order", func(t *testing.T) {
		t.Parallel()

		compiled := Compile([]model.Rule{
			{Name: "a", Pattern: "foo", Enabled: true},
			{Name: "b", Pattern: "bar", Enabled: true},
			{Name: "c", Pattern: "baz", Enabled: true},
		})

		if len(compiled) != 3 {
			t.Fatalf("expected 3 compiled rules, got %d", len(compiled))
		}
		for i, want := range []string{"a", "b", "c"} {
			if compiled[i].Name != want {
				t.Errorf("compiled[%d].Name = %q, want %q", i, compiled[i].Name, want)
			}
		}
	})

	t.Run("skips disabled, blank and invalid rules", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		compiled := Compile([]model.Rule{
			{Name: "disabled", Pattern: "foo", Enabled: false},
			{Name: "blank", Pattern: "   ", Enabled: true},
			{Name: "invalid", Pattern: "([", Enabled: true},
			{Name: "lookbehind", Pattern: "(?<=x)y", Enabled: true},
			{Name: "ok", Pattern: "ok", Enabled: true},
		}, WithLogger(newTestLogger(&buf)))

		if len(compiled) != 1 || compiled[0].Name != "ok" {
			t.Fatalf("expected only the ok rule, got %+v", compiled)
		}

		logs := buf.String()
		if !strings.Contains(logs, "rule=invalid") {
			t.Errorf("expected diagnostic for invalid rule, got %q", logs)
		}
		if !strings.Contains(logs, "rule=lookbehind") {
			t.Errorf("expected diagnostic for lookbehind rule, got %q", logs)
		}
		if strings.Contains(logs, "rule=disabled") || strings.Contains(logs, "rule=blank") {
			t.Errorf("disabled and blank rules must not be diagnosed, got %q", logs)
		}
	})

	t.Run("returns empty non-nil slice when nothing compiles", func(t *testing.T) {
		t.Parallel()

		compiled := Compile(nil)
		if compiled == nil {
			t.Fatal("expected non-nil slice")
		}
		if len(compiled) != 0 {
			t.Errorf("expected 0 compiled rules, got %d", len(compiled))
		}
	})

	t.Run("matches case-insensitively", func(t *testing.T) {
		t.Parallel()

		compiled := Compile([]model.Rule{{Name: "word", Pattern: "secret", Enabled: true}})
		got := compiled[0].Matcher.FindAllString("Secret SECRET secret", -1)

		if len(got) != 3 {
			t.Errorf("expected 3 matches, got %v", got)
		}
	})

	t.Run("uses the cache when given", func(t *testing.T) {
		t.Parallel()

		cache, err := NewCache(8)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rules := []model.Rule{
			{Name: "a", Pattern: "foo", Enabled: true},
			{Name: "b", Pattern: "(", Enabled: true},
		}

		first := Compile(rules, WithCache(cache), WithLogger(newTestLogger(&bytes.Buffer{})))
		second := Compile(rules, WithCache(cache), WithLogger(newTestLogger(&bytes.Buffer{})))

		if cache.Len() != 2 {
			t.Errorf("expected 2 cached patterns, got %d", cache.Len())
		}
		if len(first) != 1 || len(second) != 1 {
			t.Fatalf("expected one compiled rule per call, got %d and %d", len(first), len(second))
		}
		if first[0].Matcher != second[0].Matcher {
			t.Error("expected the cached matcher to be reused")
		}
	})
}

// TestActive tests filtering of usable rules.
func TestActive(t *testing.T) {
	t.Parallel()

	rules := []model.Rule{
		{Name: "on", Pattern: "x", Enabled: true},
		{Name: "off", Pattern: "y", Enabled: false},
		{Name: "empty", Pattern: "", Enabled: true},
	}

	active := Active(rules)
	if len(active) != 1 || active[0].Name != "on" {
		t.Errorf("Active() = %+v, want only the on rule", active)
	}

	kept := NonEmpty(rules)
	if len(kept) != 2 {
		t.Errorf("NonEmpty() kept %d rules, want 2", len(kept))
	}
}
