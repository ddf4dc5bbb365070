package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
device:
  name: "Polar H10"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Device.Name != "Polar H10" {
		t.Errorf("device name = %q", cfg.Device.Name)
	}
	if cfg.Chatbox.Host != "127.0.0.1" || cfg.Chatbox.Port != 9000 {
		t.Errorf("chatbox defaults = %s:%d", cfg.Chatbox.Host, cfg.Chatbox.Port)
	}
	if cfg.Chatbox.RateLimitMs != 1500 {
		t.Errorf("rate limit = %d, want 1500", cfg.Chatbox.RateLimitMs)
	}
	if cfg.Health.StaleAfterSec != 20 || cfg.Health.StaleCheckSec != 5 {
		t.Errorf("stale defaults = %d/%d", cfg.Health.StaleAfterSec, cfg.Health.StaleCheckSec)
	}
	if cfg.Health.MemGrowthMB != 50 {
		t.Errorf("mem growth = %d, want 50", cfg.Health.MemGrowthMB)
	}
	if cfg.Storage.Path != "cache.db" {
		t.Errorf("storage path = %q", cfg.Storage.Path)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
device:
  address: "aa:bb:cc:dd:ee:ff"
  discovery_timeout_sec: 15
chatbox:
  host: "192.168.1.20"
  port: 9001
  rate_limit_ms: 2000
storage:
  path: "/var/lib/pulse-relay/cache.db"
health:
  stale_after_sec: 30
  mem_growth_mb: 100
  snapshot_dir: "/tmp/snapshots"
web:
  addr: ":8039"
mqtt:
  broker: "tcp://localhost:1883"
labels:
  - upper: 100
    templates: ["{{bpm}}"]
  - upper: 999
    templates: ["!! {{bpm}} !!"]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Device.Address != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("address = %q, want upper-cased", cfg.Device.Address)
	}
	if cfg.Device.DiscoveryTimeoutSec != 15 {
		t.Errorf("discovery timeout = %d", cfg.Device.DiscoveryTimeoutSec)
	}
	if cfg.Chatbox.RateLimitMs != 2000 {
		t.Errorf("rate limit = %d", cfg.Chatbox.RateLimitMs)
	}
	if cfg.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("broker = %q", cfg.MQTT.Broker)
	}
	if len(cfg.Labels) != 2 || cfg.Labels[1].Upper != 999 {
		t.Errorf("labels = %+v", cfg.Labels)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "name and address together",
			body: "device:\n  name: a\n  address: b\n",
			want: "mutually exclusive",
		},
		{
			name: "port out of range",
			body: "chatbox:\n  port: 70000\n",
			want: "out of range",
		},
		{
			name: "empty host",
			body: "chatbox:\n  host: \"\"\n  port: 9000\n",
			want: "host is required",
		},
		{
			name: "two input overrides at once",
			body: "device:\n  watch_only: true\n  band_only: true\n",
			want: "mutually exclusive",
		},
		{
			name: "broker without scheme",
			body: "mqtt:\n  broker: localhost:1883\n",
			want: "must be a URL",
		},
		{
			name: "band without templates",
			body: "labels:\n  - upper: 100\n    templates: []\n",
			want: "template",
		},
		{
			name: "band with zero bound",
			body: "labels:\n  - upper: 0\n    templates: [\"x\"]\n",
			want: "must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load succeeded for missing file")
	}
}
