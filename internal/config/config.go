// Package config loads and validates the relay's YAML configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Chatbox ChatboxConfig `yaml:"chatbox"`
	Storage StorageConfig `yaml:"storage"`
	Health  HealthConfig  `yaml:"health"`
	Web     WebConfig     `yaml:"web"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Labels  []LabelBand   `yaml:"labels"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	// Name and Address select the sensor by exact match. At most one may
	// be set; with neither, the first heart rate advertiser wins.
	Name    string `yaml:"name"`
	Address string `yaml:"address"`

	// DiscoveryTimeoutSec bounds the scan.
	DiscoveryTimeoutSec int `yaml:"discovery_timeout_sec"`

	// WatchOnly disables BLE: samples arrive only via the web ingest
	// endpoint (smartwatch companion apps).
	WatchOnly bool `yaml:"watch_only"`

	// BandOnly selects the passive advertisement mode for Xiaomi Smart
	// Bands: readings are parsed from manufacturer data during a
	// continuous scan, with no connection. Address, when set, pins the
	// scan to that device.
	BandOnly bool `yaml:"band_only"`
}

// ---- CHATBOX ----

type ChatboxConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	RateLimitMs int    `yaml:"rate_limit_ms"`
}

// ---- STORAGE ----

type StorageConfig struct {
	// Path is the SQLite database file. Parent directories are created
	// on open.
	Path string `yaml:"path"`
}

// ---- HEALTH ----

type HealthConfig struct {
	StaleCheckSec int    `yaml:"stale_check_sec"`
	StaleAfterSec int    `yaml:"stale_after_sec"`
	MemCheckSec   int    `yaml:"mem_check_sec"`
	MemGrowthMB   uint64 `yaml:"mem_growth_mb"`
	SnapshotDir   string `yaml:"snapshot_dir"`
}

// ---- WEB ----

type WebConfig struct {
	// Addr is the status/ingest HTTP listen address. Empty disables the
	// server.
	Addr string `yaml:"addr"`
}

// ---- MQTT ----

type MQTTConfig struct {
	// Broker enables the MQTT telemetry mirror when set, e.g.
	// tcp://localhost:1883.
	Broker string `yaml:"broker"`
}

// ---- LABELS ----

// LabelBand overrides one message band: readings strictly below Upper pick
// one of Templates. An empty Labels list keeps the built-in bands.
type LabelBand struct {
	Upper     int      `yaml:"upper"`
	Templates []string `yaml:"templates"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Device: DeviceConfig{
			DiscoveryTimeoutSec: 10,
		},
		Chatbox: ChatboxConfig{
			Host:        "127.0.0.1",
			Port:        9000,
			RateLimitMs: 1500,
		},
		Storage: StorageConfig{
			Path: "cache.db",
		},
		Health: HealthConfig{
			StaleCheckSec: 5,
			StaleAfterSec: 20,
			MemCheckSec:   5,
			MemGrowthMB:   50,
		},
	}
}

// Load reads the YAML file at path, layered over Default. The result is
// validated and normalized.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	Normalize(&cfg)
	return cfg, nil
}
