// Package osc delivers chatbox messages to the display target over OSC,
// with abstraction for testing. The real transport uses a lazily-created
// UDP client; the fake records sent messages.
package osc

import (
	"fmt"
	"log"
	"sync"
	"time"
	"unicode/utf8"
)

// PathChatbox is the OSC address the display target reads chat text from.
const PathChatbox = "/chatbox/input"

// MaxMessageLength is the display target's chatbox limit in characters.
// Longer messages are rejected outright — there is no partial send.
const MaxMessageLength = 144

// DefaultMinInterval is the default minimum gap between sends.
const DefaultMinInterval = 1500 * time.Millisecond

// Transport delivers one chatbox message to the configured host and port.
type Transport interface {
	// Send delivers the text. Returns error if delivery fails
	// (must not crash the process).
	Send(text string) error

	// Close releases transport resources.
	Close() error
}

// Channel gates outbound messages by length and by a minimum inter-send
// interval, then hands them to the transport. Messages arriving inside the
// rate window are dropped, not queued — the most recent reading that clears
// the gate is what gets sent.
type Channel struct {
	transport Transport
	minGap    time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastSent time.Time
}

// NewChannel creates a Channel over the given transport. now is injected so
// tests can control the rate gate; pass time.Now for production use.
func NewChannel(transport Transport, minGap time.Duration, now func() time.Time) *Channel {
	if minGap <= 0 {
		minGap = DefaultMinInterval
	}
	return &Channel{
		transport: transport,
		minGap:    minGap,
		now:       now,
	}
}

// Send delivers text to the display target. Messages over MaxMessageLength
// are rejected with an error and do not count as a send attempt. Messages
// arriving within the rate window are silently dropped (sent=false, nil
// error). The last-sent clock advances on every attempted send, whether or
// not the transport succeeds.
func (c *Channel) Send(text string) (sent bool, err error) {
	if n := utf8.RuneCountInString(text); n > MaxMessageLength {
		return false, fmt.Errorf("message length %d exceeds maximum of %d", n, MaxMessageLength)
	}

	c.mu.Lock()
	now := c.now()
	if !c.lastSent.IsZero() && now.Sub(c.lastSent) < c.minGap {
		c.mu.Unlock()
		log.Printf("osc: rate limited, dropping message")
		return false, nil
	}
	c.lastSent = now
	c.mu.Unlock()

	if err := c.transport.Send(text); err != nil {
		return true, fmt.Errorf("send chatbox message: %w", err)
	}
	return true, nil
}

// Close releases the transport.
func (c *Channel) Close() error {
	return c.transport.Close()
}
