// Package format turns a BPM reading into a chatbox message by picking a
// template from the band the reading falls into.
package format

import (
	"sort"
	"strconv"
	"strings"
)

// Placeholder is the substring in a template that is replaced with the
// decimal BPM value.
const Placeholder = "{{bpm}}"

// Band maps readings below Upper (strict) to a set of message templates.
// When a band holds more than one template, one is picked at random per call.
type Band struct {
	Upper     int
	Templates []string
}

// Formatter selects and fills templates. The random source is injected so
// tests can make the pick deterministic.
type Formatter struct {
	bands []Band
	pick  func(n int) int
}

// New creates a Formatter over the given bands. Bands are sorted by Upper;
// readings above the highest bound fall into the last band. pick(n) must
// return a value in [0, n); pass rand.Intn for production use.
func New(bands []Band, pick func(n int) int) *Formatter {
	sorted := make([]Band, len(bands))
	copy(sorted, bands)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Upper < sorted[j].Upper })
	return &Formatter{bands: sorted, pick: pick}
}

// DefaultBands returns the built-in banding: resting readings get a plain
// heart, climbing ones get progressively louder messages.
func DefaultBands() []Band {
	return []Band{
		{Upper: 70, Templates: []string{"♡ {{bpm}}"}},
		{Upper: 80, Templates: []string{"❤️ {{bpm}}"}},
		{Upper: 100, Templates: []string{"💕 {{bpm}} 💕"}},
		{Upper: 130, Templates: []string{"❤️💕 {{bpm}} 💕❤️"}},
		{Upper: 150, Templates: []string{
			"❤️❤️❤️ {{bpm}} ❤️❤️❤️",
			"💕💕💕 {{bpm}} 💕💕💕",
		}},
		{Upper: 999, Templates: []string{
			"❤️❤️❤️❤️ {{bpm}} ❤️❤️❤️❤️",
			"💕💕💕💕 {{bpm}} 💕💕💕💕",
			"LOVE ❤️ {{bpm}} ❤️ LOVE",
		}},
	}
}

// Format returns the message for the given BPM. ok is false when the reading
// is not a positive integer, when no bands are configured, or when the
// matching band has no templates — the caller must skip the send.
func (f *Formatter) Format(bpm int) (msg string, ok bool) {
	if bpm <= 0 || len(f.bands) == 0 {
		return "", false
	}

	band := f.bands[len(f.bands)-1]
	for _, b := range f.bands {
		if bpm < b.Upper {
			band = b
			break
		}
	}

	if len(band.Templates) == 0 {
		return "", false
	}

	tmpl := band.Templates[0]
	if len(band.Templates) > 1 {
		tmpl = band.Templates[f.pick(len(band.Templates))]
	}

	return strings.ReplaceAll(tmpl, Placeholder, strconv.Itoa(bpm)), true
}

// BandFor returns the templates of the band the BPM falls into. Used by
// tests to assert set membership without fixing the random pick.
func (f *Formatter) BandFor(bpm int) []string {
	if bpm <= 0 || len(f.bands) == 0 {
		return nil
	}
	band := f.bands[len(f.bands)-1]
	for _, b := range f.bands {
		if bpm < b.Upper {
			band = b
			break
		}
	}
	return band.Templates
}
