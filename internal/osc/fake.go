package osc

import "sync"

// FakeTransport records sent messages for test assertions.
type FakeTransport struct {
	mu sync.Mutex

	// Messages contains every text handed to Send, in order.
	Messages []string

	// SendError, if set, will be returned by Send.
	SendError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeTransport creates a FakeTransport for testing.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

// Send records the message.
func (f *FakeTransport) Send(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.SendError != nil {
		return f.SendError
	}
	f.Messages = append(f.Messages, text)
	return nil
}

// Close marks the transport as closed.
func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Closed = true
	return nil
}

// Sent returns a copy of the recorded messages.
func (f *FakeTransport) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.Messages))
	copy(out, f.Messages)
	return out
}
