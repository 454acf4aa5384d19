package database

import (
	"context"
	"time"
)

// ScanRecord is one entry of the scan history.
// It holds counts and sources only; item values stay in the collection.
type ScanRecord struct {
	ID        int64         `json:"id"`
	URL       string        `json:"url"`
	Timestamp time.Time     `json:"timestamp"`
	Outcome   string        `json:"outcome"`
	Found     int           `json:"found"`
	Sources   []string      `json:"sources"`
	Elapsed   time.Duration `json:"elapsed"`
}

// KV is a key-value store of JSON documents.
type KV interface {
	// Get returns the value stored under key. ok is false when the key
	// has never been written.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// SetMany stores every entry of values, or none of them.
	SetMany(ctx context.Context, values map[string][]byte) error
}

// History stores scan records.
type History interface {
	// InsertScanRecord appends a record and returns its ID.
	InsertScanRecord(ctx context.Context, record *ScanRecord) (int64, error)

	// ListScanRecords returns the newest records first. limit <= 0 means all.
	ListScanRecords(ctx context.Context, limit int) ([]ScanRecord, error)
}
