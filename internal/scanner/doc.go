// Package scanner runs one stateless scan of one page.
//
// A scan compiles the rule snapshot it was given, loads the page, gathers
// its text blocks, extracts matches and reports the items it found. It
// moves through the phases idle, aggregating, extracting, reporting and
// done, and never returns an error: an empty rule set, an unreachable page
// or a failed report all end the scan quietly.
package scanner
