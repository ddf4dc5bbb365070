package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Device.Name != "" && cfg.Device.Address != "" {
		return fmt.Errorf("device: name and address are mutually exclusive")
	}
	if cfg.Device.WatchOnly && cfg.Device.BandOnly {
		return fmt.Errorf("device: watch_only and band_only are mutually exclusive")
	}
	if cfg.Device.DiscoveryTimeoutSec < 0 {
		return fmt.Errorf("device: discovery_timeout_sec must not be negative")
	}

	if cfg.Chatbox.Host == "" {
		return fmt.Errorf("chatbox: host is required")
	}
	if cfg.Chatbox.Port <= 0 || cfg.Chatbox.Port > 65535 {
		return fmt.Errorf("chatbox: port %d out of range", cfg.Chatbox.Port)
	}
	if cfg.Chatbox.RateLimitMs < 0 {
		return fmt.Errorf("chatbox: rate_limit_ms must not be negative")
	}

	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage: path is required")
	}

	if cfg.Health.StaleCheckSec < 0 || cfg.Health.StaleAfterSec < 0 || cfg.Health.MemCheckSec < 0 {
		return fmt.Errorf("health: intervals must not be negative")
	}

	if b := cfg.MQTT.Broker; b != "" {
		if !strings.Contains(b, "://") {
			return fmt.Errorf("mqtt: broker %q must be a URL, e.g. tcp://localhost:1883", b)
		}
	}

	for i, band := range cfg.Labels {
		if band.Upper <= 0 {
			return fmt.Errorf("labels[%d]: upper must be positive", i)
		}
		if len(band.Templates) == 0 {
			return fmt.Errorf("labels[%d]: at least one template is required", i)
		}
	}

	return nil
}

// Normalize applies post-validation normalization. It is allowed to mutate
// configuration and MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Device.Name = strings.TrimSpace(cfg.Device.Name)
	cfg.Device.Address = strings.TrimSpace(cfg.Device.Address)

	// Addresses compare case-insensitively; fold once here.
	cfg.Device.Address = strings.ToUpper(cfg.Device.Address)

	if cfg.Device.DiscoveryTimeoutSec == 0 {
		cfg.Device.DiscoveryTimeoutSec = 10
	}
	if cfg.Chatbox.RateLimitMs == 0 {
		cfg.Chatbox.RateLimitMs = 1500
	}
	if cfg.Health.StaleCheckSec == 0 {
		cfg.Health.StaleCheckSec = 5
	}
	if cfg.Health.StaleAfterSec == 0 {
		cfg.Health.StaleAfterSec = 20
	}
	if cfg.Health.MemCheckSec == 0 {
		cfg.Health.MemCheckSec = 5
	}
	if cfg.Health.MemGrowthMB == 0 {
		cfg.Health.MemGrowthMB = 50
	}
}
