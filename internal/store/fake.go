package store

import "sync"

// FakeStore records inserted samples for test assertions.
type FakeStore struct {
	mu sync.Mutex

	// BPMs contains all inserted values in arrival order.
	BPMs []int

	// InsertError, if set, will be returned by Insert.
	InsertError error

	// CloseError, if set, will be returned by Close.
	CloseError error

	// CloseCount tracks how many times Close was called.
	CloseCount int
}

// NewFakeStore creates a FakeStore for testing.
func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

// Insert records the sample.
func (f *FakeStore) Insert(bpm int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.InsertError != nil {
		return f.InsertError
	}
	f.BPMs = append(f.BPMs, bpm)
	return nil
}

// Close counts the call.
func (f *FakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.CloseCount++
	return f.CloseError
}

// Inserted returns a copy of the recorded values.
func (f *FakeStore) Inserted() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]int, len(f.BPMs))
	copy(out, f.BPMs)
	return out
}
