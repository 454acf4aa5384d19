package model

import "time"

// ScanPhase is the lifecycle position of a single scan.
// A scan moves strictly forward and is terminal once it reaches ScanDone.
type ScanPhase int

const (
	// ScanIdle is the phase before the rule set has been compiled.
	ScanIdle ScanPhase = iota
	// ScanAggregating is the phase in which text blocks are collected.
	ScanAggregating
	// ScanExtracting is the phase in which rules run over the blocks.
	ScanExtracting
	// ScanReporting is the phase in which found items are reported.
	ScanReporting
	// ScanDone is the terminal phase.
	ScanDone
)

// String returns the phase name.
func (p ScanPhase) String() string {
	switch p {
	case ScanIdle:
		return "idle"
	case ScanAggregating:
		return "aggregating"
	case ScanExtracting:
		return "extracting"
	case ScanReporting:
		return "reporting"
	case ScanDone:
		return "done"
	default:
		return "unknown"
	}
}

// Scan is the working state of one page scan. It is owned by exactly one
// scanner invocation and is discarded once the scan reaches ScanDone.
type Scan struct {
	// URL is the address of the page being scanned.
	URL string

	// Rules is the rule set snapshot the scan was triggered with.
	Rules []Rule

	// Phase is the current lifecycle phase.
	Phase ScanPhase

	// Blocks holds the text collected during aggregation.
	Blocks []TextBlock

	// Found is the per-scan dedup set.
	Found *ItemSet

	// Abandoned is set when the page could not be loaded at all.
	Abandoned bool

	// Steps lists the pipeline steps that ran, in order.
	Steps []string

	// Err is the error of the step that failed, if any.
	Err error

	// StartedAt is when the scan was created.
	StartedAt time.Time
}

// NewScan creates a scan in the idle phase.
func NewScan(url string, rules []Rule) *Scan {
	return &Scan{
		URL:       url,
		Rules:     CloneRules(rules),
		Phase:     ScanIdle,
		Found:     NewItemSet(),
		StartedAt: time.Now(),
	}
}

// Advance moves the scan to phase. Moving backwards is ignored.
func (s *Scan) Advance(phase ScanPhase) {
	if phase > s.Phase {
		s.Phase = phase
	}
}
