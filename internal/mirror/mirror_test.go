package mirror

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatSamplePayload(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	data, err := FormatSamplePayload(72, at)
	if err != nil {
		t.Fatalf("FormatSamplePayload: %v", err)
	}

	var parsed SamplePayload
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.Heart.BPM != 72 {
		t.Errorf("bpm = %d, want 72", parsed.Heart.BPM)
	}
	if parsed.Heart.Timestamp != "2025-06-01T12:30:00Z" {
		t.Errorf("timestamp = %q, want RFC3339 UTC", parsed.Heart.Timestamp)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGINT",
	}

	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.System.Event != "SHUTDOWN" || parsed.System.Reason != "SIGINT" {
		t.Errorf("event/reason = %q/%q, want SHUTDOWN/SIGINT", parsed.System.Event, parsed.System.Reason)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"state":"streaming"}}`)
	data, err := FormatSystemPayload(SystemEvent{RawPayload: raw})
	if err != nil {
		t.Fatalf("FormatSystemPayload: %v", err)
	}
	if string(data) != string(raw) {
		t.Errorf("payload = %s, want raw passthrough", data)
	}
}

func TestFakePublisherRecords(t *testing.T) {
	f := NewFakePublisher()

	if err := f.PublishSample(65, time.Now()); err != nil {
		t.Fatalf("PublishSample: %v", err)
	}
	if err := f.PublishSample(80, time.Now()); err != nil {
		t.Fatalf("PublishSample: %v", err)
	}

	if got := f.Published(); len(got) != 2 || got[0] != 65 || got[1] != 80 {
		t.Errorf("Published = %v, want [65 80]", got)
	}
}
