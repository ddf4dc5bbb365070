// Package store provides append-only persistence of heart rate samples
// with abstraction for testing. The real implementation is an embedded
// SQLite database; the fake records inserts in memory.
package store

import "time"

// Store persists heart rate samples.
type Store interface {
	// Insert appends one sample with a server-assigned timestamp.
	// Returns error if the write fails (must not crash the process).
	Insert(bpm int) error

	// Close flushes and releases the database handle. Safe to call
	// more than once.
	Close() error
}

// Sample is one persisted heart rate reading.
type Sample struct {
	ID         int64
	BPM        int
	RecordedAt time.Time
}
