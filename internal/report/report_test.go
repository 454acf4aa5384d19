package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/harvester/internal/database"
	"github.com/nao1215/harvester/internal/model"
)

func testCollection() *Collection {
	return NewCollection(
		[]string{"555-123-4567", "alice@example.com", "bob@example.org", "legacy-token"},
		[]model.Rule{
			{Name: "email", Pattern: `^[a-z]+@[a-z]+\.[a-z]+$`, Enabled: true},
			{Name: "phone", Pattern: `^\d{3}-\d{3}-\d{4}$`, Enabled: true},
			{Name: "off", Pattern: `.*`, Enabled: false},
		},
		model.StatusRunning,
	)
}

func testHistory() []database.ScanRecord {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return []database.ScanRecord{
		{ID: 2, URL: "https://example.com/b", Timestamp: ts, Outcome: "reported", Found: 2, Elapsed: 1500 * time.Millisecond},
		{ID: 1, URL: "https://example.com/a", Timestamp: ts, Outcome: "no_items", Found: 0, Elapsed: 20 * time.Millisecond},
	}
}

func TestCollectionBreakdown(t *testing.T) {
	t.Parallel()

	got := testCollection().Breakdown()
	want := []RuleCount{
		{Rule: "email", Count: 2},
		{Rule: "phone", Count: 1},
		{Rule: UnmatchedLabel, Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("Breakdown() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Breakdown()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	t.Run("empty collection", func(t *testing.T) {
		t.Parallel()

		c := NewCollection(nil, nil, model.StatusStopped)
		if len(c.Breakdown()) != 0 {
			t.Errorf("expected empty breakdown, got %+v", c.Breakdown())
		}
		if c.Items == nil {
			t.Error("expected non-nil items")
		}
	})
}

// TestTextWriter tests the plain export format.
func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("items joined by newlines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteCollection(testCollection()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "555-123-4567\nalice@example.com\nbob@example.org\nlegacy-token"
		if buf.String() != want {
			t.Errorf("output = %q, want %q", buf.String(), want)
		}
	})

	t.Run("empty collection writes nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewTextWriter(&buf).WriteCollection(NewCollection(nil, nil, model.StatusStopped))
		if err != nil || n != 0 || buf.Len() != 0 {
			t.Errorf("n = %d, err = %v, output = %q", n, err, buf.String())
		}
	})

	t.Run("history table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).WriteHistory(testHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %q", buf.String())
		}
		if !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "OUTCOME") {
			t.Errorf("header = %q", lines[0])
		}
		if !strings.Contains(lines[1], "reported") || !strings.Contains(lines[1], "1.5s") || !strings.HasSuffix(lines[1], "https://example.com/b") {
			t.Errorf("row = %q", lines[1])
		}
	})
}

// TestJSONWriter tests JSON output.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("collection with breakdown", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteCollection(testCollection()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Items     []string    `json:"items"`
			Status    string      `json:"status"`
			Breakdown []RuleCount `json:"breakdown"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got.Items) != 4 || got.Status != "running" || len(got.Breakdown) != 3 {
			t.Errorf("decoded = %+v", got)
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteHistory(testHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  {") {
			t.Errorf("expected indented output, got %s", buf.String())
		}
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("output = %q", buf.String())
		}
	})
}

// TestMarkdownWriter tests Markdown output.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("collection", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteCollection(testCollection()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"# Harvested Items", "## Items by Rule", "```mermaid", "alice@example.com", "harvester"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteCollection(NewCollection(nil, nil, model.StatusStopped)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "mermaid") {
			t.Error("empty collection must not have a chart")
		}
		if !strings.Contains(buf.String(), "No items have been collected yet.") {
			t.Error("expected empty note")
		}
	})

	t.Run("history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteHistory(testHistory()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"# Scan History", "Scan Outcomes", "https://example.com/a", "no_items"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})
}
