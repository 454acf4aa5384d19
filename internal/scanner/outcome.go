package scanner

import (
	"log/slog"

	"github.com/nao1215/harvester/internal/model"
	"github.com/nao1215/harvester/internal/rules"
)

// Outcome describes how a scan ended.
type Outcome string

const (
	// OutcomeNoRules means no rule compiled, so nothing was loaded.
	OutcomeNoRules Outcome = "no_rules"
	// OutcomeAbandoned means the page could not be loaded.
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomeNoItems means the page was scanned and nothing matched.
	OutcomeNoItems Outcome = "no_items"
	// OutcomeReported means items were found and handed to the reporter.
	OutcomeReported Outcome = "reported"
)

// OutcomeOf derives the outcome of a scan that ran through Pipeline.
// A scan interrupted between steps counts as abandoned.
func OutcomeOf(scan *model.Scan) Outcome {
	switch {
	case scan.Abandoned:
		return OutcomeAbandoned
	case scan.Phase >= model.ScanReporting || (scan.Found != nil && scan.Found.Len() > 0):
		return OutcomeReported
	case scan.Phase >= model.ScanExtracting:
		return OutcomeNoItems
	case scan.Phase == model.ScanIdle && len(rules.Compile(scan.Rules, rules.WithLogger(slog.New(slog.DiscardHandler)))) == 0:
		return OutcomeNoRules
	default:
		return OutcomeAbandoned
	}
}
