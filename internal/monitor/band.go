package monitor

import (
	"log"
	"strings"
	"time"

	"github.com/sweeney/pulse-relay/internal/ble"
	"github.com/sweeney/pulse-relay/internal/hrm"
)

// bandNameFragment identifies a Xiaomi Smart Band by its advertised name
// while no device is locked yet.
const bandNameFragment = "Xiaomi Smart Band"

// bandScanInterval is the minimum gap between processing advertisements from
// the same address while searching for a band.
const bandScanInterval = time.Second

// bandTracker implements the passive advertisement input mode: no
// connection, readings are parsed straight out of manufacturer data. The
// first band that yields a valid reading is locked by address; from then on
// every other advertiser is ignored.
type bandTracker struct {
	locked   string
	lastSeen map[string]time.Time
}

// newBandTracker creates a tracker. A non-empty addr pre-locks the tracker
// to that device, skipping the name-based search.
func newBandTracker(addr string) *bandTracker {
	return &bandTracker{
		locked:   addr,
		lastSeen: make(map[string]time.Time),
	}
}

// Readings returns the BPM values carried by adv, in manufacturer-data
// order. While unlocked it considers only devices advertising a band name,
// at most once per second per address, and locks onto the first one that
// yields a valid reading.
func (b *bandTracker) Readings(adv ble.Advertisement, now time.Time) []int {
	if b.locked != "" {
		if !strings.EqualFold(adv.Address, b.locked) {
			return nil
		}
		return b.decode(adv)
	}

	if last, ok := b.lastSeen[adv.Address]; ok && now.Sub(last) < bandScanInterval {
		return nil
	}
	b.lastSeen[adv.Address] = now

	if !strings.Contains(adv.Name, bandNameFragment) {
		return nil
	}

	readings := b.decode(adv)
	if len(readings) > 0 {
		b.locked = adv.Address
		log.Printf("monitor: locked onto band %s (%s)", adv.Name, adv.Address)
	}
	return readings
}

func (b *bandTracker) decode(adv ble.Advertisement) []int {
	var readings []int
	for _, el := range adv.ManufacturerData {
		if bpm, ok := hrm.DecodeBandAdvert(el.Data); ok {
			readings = append(readings, bpm)
		}
	}
	return readings
}
