// Package controller owns the long-lived state of harvester: whether
// auto-scan is running, the rule set, and the collection of items found so
// far.
//
// Every request is handled under one mutex, including the write that
// persists its effect, so requests never interleave. Scans run on their own
// goroutines and only talk back through ItemsFound requests; they never see
// controller state or storage errors.
//
// The controller can be rebuilt from the store at any time with Load, and
// keeps no state that is not persisted.
package controller
