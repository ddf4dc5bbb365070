package osc

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// fixedClock returns a now func pinned to the given instants, one per call.
// The last instant repeats once exhausted.
func fixedClock(times ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := times[i]
		if i < len(times)-1 {
			i++
		}
		return t
	}
}

func TestSendFirstMessageImmediately(t *testing.T) {
	fake := NewFakeTransport()
	ch := NewChannel(fake, DefaultMinInterval, fixedClock(time.Unix(100, 0)))

	sent, err := ch.Send("♡ 72")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !sent {
		t.Error("Send: expected sent=true for first message")
	}
	if got := fake.Sent(); len(got) != 1 || got[0] != "♡ 72" {
		t.Errorf("Sent = %v, want [♡ 72]", got)
	}
}

func TestSendRateLimited(t *testing.T) {
	base := time.Unix(100, 0)
	fake := NewFakeTransport()
	// Sends at t=0s and t=1s: gap under the 1.5s threshold.
	ch := NewChannel(fake, DefaultMinInterval, fixedClock(base, base.Add(time.Second)))

	if _, err := ch.Send("first"); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	sent, err := ch.Send("second")
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if sent {
		t.Error("second Send: expected sent=false inside rate window")
	}

	if got := fake.Sent(); len(got) != 1 || got[0] != "first" {
		t.Errorf("Sent = %v, want only the first message", got)
	}
}

func TestSendAfterWindowSucceeds(t *testing.T) {
	base := time.Unix(100, 0)
	fake := NewFakeTransport()
	// Sends at t=0s and t=2s: gap clears the 1.5s threshold.
	ch := NewChannel(fake, DefaultMinInterval, fixedClock(base, base.Add(2*time.Second)))

	if _, err := ch.Send("first"); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	sent, err := ch.Send("second")
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if !sent {
		t.Error("second Send: expected sent=true after window")
	}

	if got := fake.Sent(); len(got) != 2 {
		t.Errorf("Sent = %v, want both messages", got)
	}
}

func TestSendRejectsOverlongMessage(t *testing.T) {
	base := time.Unix(100, 0)
	fake := NewFakeTransport()
	ch := NewChannel(fake, DefaultMinInterval, fixedClock(base, base))

	long := strings.Repeat("x", MaxMessageLength+1)
	sent, err := ch.Send(long)
	if err == nil {
		t.Fatal("Send(overlong): expected error")
	}
	if sent {
		t.Error("Send(overlong): expected sent=false")
	}
	if got := fake.Sent(); len(got) != 0 {
		t.Errorf("Sent = %v, want no delivery for rejected message", got)
	}

	// Length rejection is not a send attempt: the rate gate must still be
	// open for the next message at the same instant.
	if _, err := ch.Send("short"); err != nil {
		t.Fatalf("Send after rejection: %v", err)
	}
	if got := fake.Sent(); len(got) != 1 || got[0] != "short" {
		t.Errorf("Sent = %v, want [short]", got)
	}
}

func TestSendCountsRunesNotBytes(t *testing.T) {
	fake := NewFakeTransport()
	ch := NewChannel(fake, DefaultMinInterval, fixedClock(time.Unix(100, 0)))

	// 144 multibyte runes is exactly at the limit.
	msg := strings.Repeat("♡", MaxMessageLength)
	if _, err := ch.Send(msg); err != nil {
		t.Fatalf("Send(144 runes): %v", err)
	}
}

func TestTransportFailureStillAdvancesGate(t *testing.T) {
	base := time.Unix(100, 0)
	fake := NewFakeTransport()
	fake.SendError = errors.New("network unreachable")
	ch := NewChannel(fake, DefaultMinInterval, fixedClock(base, base.Add(time.Second)))

	sent, err := ch.Send("first")
	if err == nil {
		t.Fatal("Send with failing transport: expected error")
	}
	if !sent {
		t.Error("Send with failing transport: the attempt still counts")
	}

	// The attempt happened, so the gate advanced: a send 1s later is dropped.
	fake.SendError = nil
	sent, err = ch.Send("second")
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if sent {
		t.Error("second Send: expected rate-limited drop")
	}
	if got := fake.Sent(); len(got) != 0 {
		t.Errorf("Sent = %v, want none (second send rate limited)", got)
	}
}

func TestDefaultMinGap(t *testing.T) {
	ch := NewChannel(NewFakeTransport(), 0, time.Now)
	if ch.minGap != DefaultMinInterval {
		t.Errorf("minGap = %v, want %v", ch.minGap, DefaultMinInterval)
	}
}
