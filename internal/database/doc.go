// Package database provides persistent storage for harvester.
//
// Two kinds of data are kept in a single SQLite file:
//   - a key-value table holding the controller state (run flag, rules and
//     the collected items), each value encoded as JSON
//   - a history of finished scans, for operator review
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the store
// is a single local file, the driver is CGO-free, and WAL mode lets the CLI
// read history while the server writes.
//
// MemoryStore implements the same key-value and history operations in
// memory, for tests and throwaway runs.
package database
