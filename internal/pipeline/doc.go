// Package pipeline runs the steps of a page scan in sequence.
//
// A scan is processed by a Pipeline of Steps that share one *model.Scan.
// Each step reads what earlier steps left in the scan and adds its own
// results. A step ends the scan early, without it counting as a failure,
// by returning ErrHalt.
//
// Design decision: the scan stages (compile, aggregate, extract, report)
// are steps rather than direct calls so that every stage gets the same
// logging and early-exit handling, and tests can run a scan with stages
// swapped out.
//
// BatchProcessor runs one pipeline per URL with a concurrency limit, for
// operator-driven scans of many pages.
package pipeline
