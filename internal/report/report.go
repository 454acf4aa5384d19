package report

import (
	"io"
	"time"

	"github.com/nao1215/harvester/internal/database"
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/rules"
)

// Collection is an export of the collected items.
type Collection struct {
	// Items are the collected items, sorted.
	Items []string `json:"items"`

	// Rules are the rules in effect at export time.
	Rules []model.Rule `json:"rules"`

	// Status is the run state at export time.
	Status model.RunStatus `json:"status"`

	// GeneratedAt is when the export was made.
	GeneratedAt time.Time `json:"generatedAt"`
}

// NewCollection builds a Collection stamped with the current time.
func NewCollection(items []string, rs []model.Rule, status model.RunStatus) *Collection {
	if items == nil {
		items = []string{}
	}
	return &Collection{
		Items:       items,
		Rules:       model.CloneRules(rs),
		Status:      status,
		GeneratedAt: time.Now(),
	}
}

// UnmatchedLabel groups items that no current rule matches, for example
// items found by a rule that has since been deleted.
const UnmatchedLabel = "other"

// RuleCount is the number of items attributed to one rule.
type RuleCount struct {
	Rule  string `json:"rule"`
	Count int    `json:"count"`
}

// Breakdown attributes each item to the first active rule that matches it
// and returns the counts in rule order, followed by UnmatchedLabel. Rules
// with no items are omitted.
func (c *Collection) Breakdown() []RuleCount {
	compiled := rules.Compile(c.Rules)
	counts := make([]int, len(compiled))
	unmatched := 0

	for _, item := range c.Items {
		matched := false
		for i, cr := range compiled {
			if cr.Matcher.MatchString(item) {
				counts[i]++
				matched = true
				break
			}
		}
		if !matched {
			unmatched++
		}
	}

	out := make([]RuleCount, 0, len(compiled)+1)
	for i, cr := range compiled {
		if counts[i] > 0 {
			out = append(out, RuleCount{Rule: cr.Name, Count: counts[i]})
		}
	}
	if unmatched > 0 {
		out = append(out, RuleCount{Rule: UnmatchedLabel, Count: unmatched})
	}
	return out
}

// Writer defines the interface for export output.
type Writer interface {
	// WriteCollection writes the collected items.
	WriteCollection(c *Collection) (int, error)

	// WriteHistory writes scan history records, newest first.
	WriteHistory(records []database.ScanRecord) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
