// Package model defines the core data structures shared by harvester's packages.
//
// This package contains the following main types:
//   - Rule: A named, user-authored pattern with an enabled flag
//   - ItemSet: A deduplicated set of extracted items
//   - TextBlock: A block of text tagged with the source it came from
//   - Scan: The working state of a single page scan
//   - RunState and State: The controller's persisted and reported state
//
// The models live in their own package so that rules, crawler, extract,
// scanner and controller can share them without import cycles. All of them
// serialize to JSON for storage and for the HTTP API.
package model
