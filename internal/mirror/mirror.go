// Package mirror provides optional MQTT publishing of heart rate samples
// and lifecycle events, with abstraction for testing. Companion apps and
// the graph exporter subscribe to these topics; the relay itself never
// reads them back.
package mirror

import (
	"encoding/json"
	"time"
)

// TopicSamples is the MQTT topic for individual heart rate samples.
const TopicSamples = "heartrate/samples"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "heartrate/system"

// Publisher publishes relay events to MQTT.
type Publisher interface {
	// PublishSample sends one heart rate reading to the broker.
	// Returns error if publishing fails (must not crash the process).
	PublishSample(bpm int, at time.Time) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "fatal error" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// SamplePayload is the MQTT message payload for one reading.
type SamplePayload struct {
	Heart HeartInner `json:"heart"`
}

// HeartInner contains the reading details.
type HeartInner struct {
	Timestamp string `json:"timestamp"`
	BPM       int    `json:"bpm"`
}

// FormatSamplePayload creates the JSON payload for a heart rate sample.
func FormatSamplePayload(bpm int, at time.Time) ([]byte, error) {
	payload := SamplePayload{
		Heart: HeartInner{
			Timestamp: at.UTC().Format(time.RFC3339),
			BPM:       bpm,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
