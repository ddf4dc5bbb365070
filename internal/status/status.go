// Package status provides a thread-safe status tracker for the pulse-relay
// daemon. It is read by the HTTP status server and the MQTT mirror.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	DeviceName    string
	DeviceAddress string
	OSCHost       string
	OSCPort       int
	StaleSec      int64
	RateLimitMs   int64
	DBPath        string
	Broker        string
	HTTPAddr      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State         string
	Device        string
	LastBPM       int
	LastSampleAt  time.Time
	SampleCount   int64
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     "idle",
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// SetState records the coordinator's current state.
func (t *Tracker) SetState(state string) {
	t.mu.Lock()
	t.snap.State = state
	t.mu.Unlock()
}

// SetDevice records the connected device's name or address.
func (t *Tracker) SetDevice(device string) {
	t.mu.Lock()
	t.snap.Device = device
	t.mu.Unlock()
}

// RecordSample updates the last reading and the running count.
// Called from the coordinator on every valid sample.
func (t *Tracker) RecordSample(bpm int, at time.Time) {
	t.mu.Lock()
	t.snap.LastBPM = bpm
	t.snap.LastSampleAt = at
	t.snap.SampleCount++
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT mirror connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
