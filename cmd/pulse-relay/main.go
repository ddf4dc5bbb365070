// Command pulse-relay bridges a BLE heart rate sensor to a VRChat chatbox
// over OSC, persisting every reading to a local SQLite database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/pulse-relay/internal/ble"
	"github.com/sweeney/pulse-relay/internal/config"
	"github.com/sweeney/pulse-relay/internal/format"
	"github.com/sweeney/pulse-relay/internal/metrics"
	"github.com/sweeney/pulse-relay/internal/mirror"
	"github.com/sweeney/pulse-relay/internal/monitor"
	"github.com/sweeney/pulse-relay/internal/osc"
	"github.com/sweeney/pulse-relay/internal/status"
	"github.com/sweeney/pulse-relay/internal/store"
	"github.com/sweeney/pulse-relay/internal/supervise"
	"github.com/sweeney/pulse-relay/internal/web"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty for built-in defaults)")
	flag.Parse()

	// The only non-zero exit in the program.
	if err := run(*configPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
	}

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	transport := osc.NewRealTransport(cfg.Chatbox.Host, cfg.Chatbox.Port)
	channel := osc.NewChannel(transport, time.Duration(cfg.Chatbox.RateLimitMs)*time.Millisecond, time.Now)
	defer channel.Close()

	formatter := format.New(bands(cfg), rand.Intn)

	tracker := status.NewTracker(time.Now(), status.Config{
		DeviceName:    cfg.Device.Name,
		DeviceAddress: cfg.Device.Address,
		OSCHost:       cfg.Chatbox.Host,
		OSCPort:       cfg.Chatbox.Port,
		StaleSec:      int64(cfg.Health.StaleAfterSec),
		RateLimitMs:   int64(cfg.Chatbox.RateLimitMs),
		DBPath:        cfg.Storage.Path,
		Broker:        cfg.MQTT.Broker,
		HTTPAddr:      cfg.Web.Addr,
	})

	met := metrics.New()

	// The MQTT mirror is optional telemetry; an unreachable broker must not
	// keep the relay from starting.
	var mirrorPub mirror.Publisher
	var mirrorStatus mirror.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		pub, err := mirror.NewRealPublisher(cfg.MQTT.Broker)
		if err != nil {
			log.Printf("mqtt mirror disabled: %v", err)
		} else {
			mirrorPub = pub
			mirrorStatus = pub
			defer pub.Close()
			tracker.SetMQTTConnected(pub.IsConnected())

			snap := tracker.Snapshot()
			startup := mirror.SystemEvent{
				Timestamp:  snap.Now,
				Event:      "STARTUP",
				Retained:   true,
				RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
			}
			if err := pub.PublishSystem(startup); err != nil {
				log.Printf("failed to publish startup event: %v", err)
			} else {
				log.Printf("published startup event")
			}
		}
	}

	coord := monitor.New(monitor.Config{
		DeviceName:       cfg.Device.Name,
		DeviceAddress:    cfg.Device.Address,
		DiscoveryTimeout: time.Duration(cfg.Device.DiscoveryTimeoutSec) * time.Second,
		WatchOnly:        cfg.Device.WatchOnly,
		BandOnly:         cfg.Device.BandOnly,
	}, monitor.Deps{
		Central:   ble.NewRealCentral(),
		Store:     st,
		Output:    channel,
		Formatter: formatter,
		NewWatchdog: func(last func() (time.Time, bool), onStale func(string)) monitor.Watchdog {
			return supervise.New(supervise.Config{
				StaleInterval:  time.Duration(cfg.Health.StaleCheckSec) * time.Second,
				StaleThreshold: time.Duration(cfg.Health.StaleAfterSec) * time.Second,
				MemInterval:    time.Duration(cfg.Health.MemCheckSec) * time.Second,
				MemGrowthMB:    float64(cfg.Health.MemGrowthMB),
				SnapshotDir:    cfg.Health.SnapshotDir,
			}, last, onStale)
		},
		Mirror:  mirrorPub,
		Tracker: tracker,
		Metrics: met,
	})

	if cfg.Web.Addr != "" {
		srv := web.New(cfg.Web.Addr, tracker, coord, met.Handler())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.Web.Addr)
	}

	log.Printf("started: chatbox=%s:%d rate_limit=%dms db=%s",
		cfg.Chatbox.Host, cfg.Chatbox.Port, cfg.Chatbox.RateLimitMs, cfg.Storage.Path)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	out := coord.Run(context.Background(), sigCh)

	if mirrorPub != nil {
		if mirrorStatus != nil {
			tracker.SetMQTTConnected(mirrorStatus.IsConnected())
		}
		snap := tracker.Snapshot()
		shutdown := mirror.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "SHUTDOWN",
			Reason:     out.Reason,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", out.Reason),
		}
		if err := mirrorPub.PublishSystem(shutdown); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		} else {
			log.Printf("published shutdown event")
		}
	}

	return out.Err
}

// bands converts configured label overrides into message bands, keeping the
// built-ins when none are configured.
func bands(cfg config.Config) []format.Band {
	if len(cfg.Labels) == 0 {
		return format.DefaultBands()
	}
	out := make([]format.Band, 0, len(cfg.Labels))
	for _, b := range cfg.Labels {
		out = append(out, format.Band{Upper: b.Upper, Templates: b.Templates})
	}
	return out
}
