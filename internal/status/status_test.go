package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"
)

func TestTrackerRecordSample(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr.RecordSample(72, at)
	tr.RecordSample(75, at.Add(time.Second))

	snap := tr.Snapshot()
	if snap.LastBPM != 75 {
		t.Errorf("LastBPM = %d, want 75", snap.LastBPM)
	}
	if snap.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", snap.SampleCount)
	}
	if !snap.LastSampleAt.Equal(at.Add(time.Second)) {
		t.Errorf("LastSampleAt = %v, want %v", snap.LastSampleAt, at.Add(time.Second))
	}
}

func TestTrackerInitialState(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	if got := tr.Snapshot().State; got != "idle" {
		t.Errorf("initial State = %q, want %q", got, "idle")
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			tr.RecordSample(60+n, time.Now())
		}(i)
		go func() {
			defer wg.Done()
			_ = tr.Snapshot()
		}()
	}
	wg.Wait()

	if got := tr.Snapshot().SampleCount; got != 10 {
		t.Errorf("SampleCount = %d, want 10", got)
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{
		DeviceName:  "Polar H10",
		OSCHost:     "127.0.0.1",
		OSCPort:     9000,
		StaleSec:    20,
		RateLimitMs: 1500,
		DBPath:      "cache/data.sqlite",
	})
	tr.SetState("streaming")
	tr.RecordSample(72, start.Add(time.Minute))

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("unmarshal status JSON: %v", err)
	}

	if parsed.Status.State != "streaming" {
		t.Errorf("state = %q, want %q", parsed.Status.State, "streaming")
	}
	if parsed.Status.LastBPM != 72 {
		t.Errorf("last_bpm = %d, want 72", parsed.Status.LastBPM)
	}
	if parsed.Status.Config.OSCPort != 9000 {
		t.Errorf("osc_port = %d, want 9000", parsed.Status.Config.OSCPort)
	}
	if parsed.Status.Event != "" {
		t.Errorf("event = %q, want empty for web JSON", parsed.Status.Event)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := NewTracker(time.Now(), Config{Broker: "tcp://broker:1883"})

	var parsed StatusJSON
	if err := json.Unmarshal(FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM"), &parsed); err != nil {
		t.Fatalf("unmarshal event JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("event/reason = %q/%q, want SHUTDOWN/SIGTERM", parsed.Status.Event, parsed.Status.Reason)
	}
	if parsed.Status.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("broker = %q, want tcp://broker:1883", parsed.Status.MQTT.Broker)
	}
}
