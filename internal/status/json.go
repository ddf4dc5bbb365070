package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	State         string     `json:"state"`
	Device        string     `json:"device,omitempty"`
	LastBPM       int        `json:"last_bpm"`
	LastSampleAt  string     `json:"last_sample_at,omitempty"`
	SampleCount   int64      `json:"sample_count"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT mirror connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker,omitempty"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DeviceName    string `json:"device_name,omitempty"`
	DeviceAddress string `json:"device_address,omitempty"`
	OSCHost       string `json:"osc_host"`
	OSCPort       int    `json:"osc_port"`
	StaleSec      int64  `json:"stale_sec"`
	RateLimitMs   int64  `json:"rate_limit_ms"`
	DBPath        string `json:"db_path"`
	HTTPAddr      string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		State:         snap.State,
		Device:        snap.Device,
		LastBPM:       snap.LastBPM,
		SampleCount:   snap.SampleCount,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			DeviceName:    snap.Config.DeviceName,
			DeviceAddress: snap.Config.DeviceAddress,
			OSCHost:       snap.Config.OSCHost,
			OSCPort:       snap.Config.OSCPort,
			StaleSec:      snap.Config.StaleSec,
			RateLimitMs:   snap.Config.RateLimitMs,
			DBPath:        snap.Config.DBPath,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}
	if !snap.LastSampleAt.IsZero() {
		inner.LastSampleAt = snap.LastSampleAt.UTC().Format(time.RFC3339)
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
