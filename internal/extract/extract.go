// Package extract applies compiled rules to text blocks and deduplicates the
// matches within a single scan.
package extract

import (
	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/rules"
)

// Extractor accumulates the items seen during one scan.
// It is not safe for concurrent use; a scan extracts its blocks sequentially.
type Extractor struct {
	seen *model.ItemSet
}

// New returns an Extractor with an empty per-scan set.
func New() *Extractor {
	return &Extractor{seen: model.NewItemSet()}
}

// Extract runs every compiled rule over the block text and returns the items
// not seen earlier in this scan, in rule order then match order.
// Matches are trimmed; matches that are empty after trimming are discarded.
func (e *Extractor) Extract(block model.TextBlock, compiled []rules.CompiledRule) []string {
	var found []string
	if block.Text == "" {
		return found
	}

	for _, rule := range compiled {
		for _, match := range rule.Matcher.FindAllString(block.Text, -1) {
			item := model.TrimItem(match)
			if e.seen.Add(item) {
				found = append(found, item)
			}
		}
	}
	return found
}

// Seen returns the set of items accumulated so far.
func (e *Extractor) Seen() *model.ItemSet {
	return e.seen
}
