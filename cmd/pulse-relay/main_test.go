package main

import (
	"testing"

	"github.com/sweeney/pulse-relay/internal/config"
	"github.com/sweeney/pulse-relay/internal/format"
)

func TestBandsDefaultsWhenUnconfigured(t *testing.T) {
	got := bands(config.Default())
	want := format.DefaultBands()
	if len(got) != len(want) {
		t.Fatalf("bands = %d entries, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i].Upper != want[i].Upper {
			t.Errorf("band %d upper = %d, want %d", i, got[i].Upper, want[i].Upper)
		}
	}
}

func TestBandsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Labels = []config.LabelBand{
		{Upper: 100, Templates: []string{"calm {{bpm}}"}},
		{Upper: 999, Templates: []string{"racing {{bpm}}"}},
	}

	got := bands(cfg)
	if len(got) != 2 {
		t.Fatalf("bands = %d entries, want 2", len(got))
	}
	if got[0].Upper != 100 || got[0].Templates[0] != "calm {{bpm}}" {
		t.Errorf("band 0 = %+v", got[0])
	}
	if got[1].Upper != 999 {
		t.Errorf("band 1 upper = %d, want 999", got[1].Upper)
	}
}

func TestRunRejectsBadConfigPath(t *testing.T) {
	if err := run("/nonexistent/config.yaml"); err == nil {
		t.Fatal("run succeeded with missing config file")
	}
}
