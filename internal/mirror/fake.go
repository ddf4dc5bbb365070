package mirror

import (
	"sync"
	"time"
)

// FakePublisher records published events for test assertions.
type FakePublisher struct {
	mu sync.Mutex

	// Samples contains all published readings.
	Samples []int

	// SamplePayloads contains the JSON payloads for samples.
	SamplePayloads [][]byte

	// SystemEvents contains all published system events.
	SystemEvents []SystemEvent

	// PublishError, if set, will be returned by PublishSample.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishSample records the reading.
func (f *FakePublisher) PublishSample(bpm int, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishError != nil {
		return f.PublishError
	}

	f.Samples = append(f.Samples, bpm)

	payload, err := FormatSamplePayload(bpm, at)
	if err != nil {
		return err
	}
	f.SamplePayloads = append(f.SamplePayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Connected
}

// Published returns a copy of the recorded readings.
func (f *FakePublisher) Published() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]int, len(f.Samples))
	copy(out, f.Samples)
	return out
}
