// Package monitor contains the monitoring coordinator: the state machine
// that discovers and connects to the heart rate device, fans each sample
// out to the store and the chatbox channel, and owns the shutdown path.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sweeney/pulse-relay/internal/ble"
	"github.com/sweeney/pulse-relay/internal/format"
	"github.com/sweeney/pulse-relay/internal/hrm"
	"github.com/sweeney/pulse-relay/internal/metrics"
	"github.com/sweeney/pulse-relay/internal/mirror"
	"github.com/sweeney/pulse-relay/internal/osc"
	"github.com/sweeney/pulse-relay/internal/status"
	"github.com/sweeney/pulse-relay/internal/store"
)

// Coordinator states, in lifecycle order.
const (
	StateIdle         = "idle"
	StateDiscovering  = "discovering"
	StateConnecting   = "connecting"
	StateSubscribing  = "subscribing"
	StateStreaming    = "streaming"
	StateShuttingDown = "shutting_down"
	StateTerminated   = "terminated"
)

// DefaultDiscoveryTimeout bounds the scan for a matching device.
const DefaultDiscoveryTimeout = 10 * time.Second

// Watchdog is the liveness supervisor as the coordinator sees it.
type Watchdog interface {
	Start()
	Stop()
}

// WatchdogFactory builds the supervisor around the coordinator's liveness
// clock and fatal trigger. Injected so tests can substitute a fake.
type WatchdogFactory func(lastSample func() (time.Time, bool), onStale func(reason string)) Watchdog

// Config selects the target device and tunes the coordinator.
type Config struct {
	// DeviceName and DeviceAddress select the peripheral by exact match.
	// When both are empty, any device advertising the heart rate service
	// is accepted.
	DeviceName    string
	DeviceAddress string

	// DiscoveryTimeout bounds the scan; zero means the default.
	DiscoveryTimeout time.Duration

	// WatchOnly skips the BLE stages entirely: samples arrive only via
	// Ingest (the watch companion endpoint).
	WatchOnly bool

	// BandOnly selects the passive advertisement mode: readings are parsed
	// from Xiaomi Smart Band manufacturer data during a continuous scan,
	// with no connection phase. DeviceAddress, when set, pre-locks the
	// scan to that device.
	BandOnly bool

	// Now is injectable for tests; zero means time.Now.
	Now func() time.Time
}

// Deps are the coordinator's injected collaborators. Their lifetimes are
// tied to process startup and shutdown; the coordinator coordinates, but
// does not exclusively control, them. Mirror, Tracker and Metrics are
// optional and may be nil.
type Deps struct {
	Central     ble.Central
	Store       store.Store
	Output      *osc.Channel
	Formatter   *format.Formatter
	NewWatchdog WatchdogFactory
	Mirror      mirror.Publisher
	Tracker     *status.Tracker
	Metrics     *metrics.Metrics
}

// Outcome is the result of a coordinator run. Err is nil when shutdown was
// a clean, externally requested stop; non-nil for any fatal condition.
type Outcome struct {
	Reason string
	Err    error
}

type persistReq struct {
	bpm int
	at  time.Time
}

// Coordinator orchestrates discovery, connection, subscription, per-sample
// fan-out and shutdown.
type Coordinator struct {
	cfg  Config
	deps Deps

	live liveness
	band *bandTracker

	notifCh   chan []byte
	advCh     chan ble.Advertisement
	ingestCh  chan int
	fatalCh   chan string
	persistCh chan persistReq
	sendCh    chan int

	done         chan struct{}
	shutdownOnce sync.Once

	mu         sync.Mutex
	state      string
	peripheral ble.Peripheral
	scanning   bool
	watchdog   Watchdog
}

// New creates a Coordinator. Run may be called once.
func New(cfg Config, deps Deps) *Coordinator {
	if cfg.DiscoveryTimeout <= 0 {
		cfg.DiscoveryTimeout = DefaultDiscoveryTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Coordinator{
		cfg:       cfg,
		deps:      deps,
		band:      newBandTracker(cfg.DeviceAddress),
		notifCh:   make(chan []byte, 16),
		advCh:     make(chan ble.Advertisement, 16),
		ingestCh:  make(chan int, 16),
		fatalCh:   make(chan string, 1),
		persistCh: make(chan persistReq, 64),
		sendCh:    make(chan int, 1),
		done:      make(chan struct{}),
		state:     StateIdle,
	}
}

// State returns the coordinator's current lifecycle state.
func (c *Coordinator) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(state string) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	if c.deps.Tracker != nil {
		c.deps.Tracker.SetState(state)
	}
}

// Ingest feeds an already-decoded reading into the sample path, as if it
// were a device notification. Used by the watch companion HTTP endpoint.
func (c *Coordinator) Ingest(bpm int) {
	select {
	case c.ingestCh <- bpm:
	default:
		log.Printf("monitor: ingest queue full, dropping sample")
	}
}

// Run drives the full lifecycle and blocks until shutdown. It returns an
// Outcome rather than exiting: the single process-exit point lives in main.
func (c *Coordinator) Run(ctx context.Context, sig <-chan os.Signal) Outcome {
	go c.persistLoop()
	go c.sendLoop()

	wd := c.deps.NewWatchdog(c.live.Last, c.triggerFatal)
	c.mu.Lock()
	c.watchdog = wd
	c.mu.Unlock()
	wd.Start()

	switch {
	case c.cfg.WatchOnly:
		// No BLE at all; readings arrive via Ingest.
	case c.cfg.BandOnly:
		if err := c.startBandScan(); err != nil {
			return c.finish(Outcome{Reason: err.Error(), Err: err})
		}
	default:
		if out, fatal := c.bringUp(ctx, sig); fatal != nil || out != nil {
			if out != nil {
				return c.finish(*out)
			}
			return c.finish(Outcome{Reason: fatal.Error(), Err: fatal})
		}
	}

	c.setState(StateStreaming)
	log.Printf("monitor: streaming heart rate samples")
	return c.finish(c.streamLoop(ctx, sig))
}

// startBandScan enters the passive advertisement mode: power on the
// adapter and scan indefinitely, feeding advertisements to the stream loop.
// There is no connection and no discovery timeout; a band that is not
// broadcasting yet is simply not heard until it does.
func (c *Coordinator) startBandScan() error {
	if err := c.deps.Central.Enable(); err != nil {
		return fmt.Errorf("adapter not powered on: %w", err)
	}

	c.setState(StateDiscovering)
	log.Printf("monitor: scanning for band advertisements")

	c.mu.Lock()
	c.scanning = true
	c.mu.Unlock()

	go func() {
		err := c.deps.Central.Scan(func(adv ble.Advertisement) {
			select {
			case c.advCh <- adv:
			default:
			}
		})
		if err != nil {
			c.triggerFatal(fmt.Sprintf("scan failed: %v", err))
		}
	}()
	return nil
}

// bringUp walks Idle → Discovering → Connecting → Subscribing. It returns
// a non-nil Outcome for an externally requested stop, a non-nil error for
// a fatal condition, or (nil, nil) on success.
func (c *Coordinator) bringUp(ctx context.Context, sig <-chan os.Signal) (*Outcome, error) {
	// The adapter power-on wait has no fixed timeout; the platform stack
	// owns this latency.
	if err := c.deps.Central.Enable(); err != nil {
		return nil, fmt.Errorf("adapter not powered on: %w", err)
	}

	c.setState(StateDiscovering)
	log.Printf("monitor: scanning for heart rate device (timeout %v)", c.cfg.DiscoveryTimeout)

	found := make(chan ble.Advertisement, 1)
	scanErr := make(chan error, 1)
	var once sync.Once

	c.mu.Lock()
	c.scanning = true
	c.mu.Unlock()

	go func() {
		err := c.deps.Central.Scan(func(adv ble.Advertisement) {
			if !c.matches(adv) {
				return
			}
			once.Do(func() {
				if err := c.deps.Central.StopScan(); err != nil {
					log.Printf("monitor: stop scan: %v", err)
				}
				found <- adv
			})
		})
		if err != nil {
			scanErr <- err
		}
	}()

	timer := time.NewTimer(c.cfg.DiscoveryTimeout)
	defer timer.Stop()

	var adv ble.Advertisement
	select {
	case adv = <-found:
		c.mu.Lock()
		c.scanning = false
		c.mu.Unlock()
	case err := <-scanErr:
		return nil, fmt.Errorf("scan failed: %w", err)
	case <-timer.C:
		return nil, errors.New("discovery timeout, no device found")
	case reason := <-c.fatalCh:
		return nil, errors.New(reason)
	case s := <-sig:
		out := Outcome{Reason: signalName(s)}
		return &out, nil
	case <-ctx.Done():
		out := Outcome{Reason: "context canceled"}
		return &out, nil
	}

	device := adv.Name
	if device == "" {
		device = adv.Address
	}
	log.Printf("monitor: found device %s (%s)", device, adv.Address)

	c.setState(StateConnecting)
	c.mu.Lock()
	if c.peripheral != nil {
		c.mu.Unlock()
		return nil, errors.New("connection attempt while a device is already connected")
	}
	c.mu.Unlock()

	p, err := c.deps.Central.Connect(adv)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	c.mu.Lock()
	c.peripheral = p
	c.mu.Unlock()
	if c.deps.Tracker != nil {
		c.deps.Tracker.SetDevice(device)
	}
	log.Printf("monitor: connected to %s", device)

	c.setState(StateSubscribing)
	err = p.Subscribe(func(payload []byte) {
		// The stack may reuse the buffer after the callback returns.
		buf := make([]byte, len(payload))
		copy(buf, payload)
		select {
		case c.notifCh <- buf:
		default:
			log.Printf("monitor: notification queue full, dropping payload")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return nil, nil
}

// streamLoop is the steady state: decode, fan out, and watch for shutdown
// triggers. Notifications are handled in arrival order.
func (c *Coordinator) streamLoop(ctx context.Context, sig <-chan os.Signal) Outcome {
	for {
		select {
		case payload := <-c.notifCh:
			c.handlePayload(payload)
		case adv := <-c.advCh:
			c.handleBandAdvertisement(adv)
		case bpm := <-c.ingestCh:
			c.handleSample(bpm)
		case reason := <-c.fatalCh:
			return Outcome{Reason: reason, Err: errors.New(reason)}
		case s := <-sig:
			log.Printf("monitor: received %v, shutting down", s)
			return Outcome{Reason: signalName(s)}
		case <-ctx.Done():
			return Outcome{Reason: "context canceled"}
		}
	}
}

func (c *Coordinator) handleBandAdvertisement(adv ble.Advertisement) {
	readings := c.band.Readings(adv, c.cfg.Now())
	if len(readings) > 0 && c.deps.Tracker != nil {
		device := adv.Name
		if device == "" {
			device = adv.Address
		}
		c.deps.Tracker.SetDevice(device)
	}
	for _, bpm := range readings {
		c.handleSample(bpm)
	}
}

func (c *Coordinator) handlePayload(payload []byte) {
	bpm, err := hrm.Decode(payload)
	if err != nil {
		log.Printf("monitor: %v", err)
		return
	}
	c.handleSample(bpm)
}

// handleSample runs the per-sample pipeline: validate, update the liveness
// clock, then fan out. Persistence and sending are independent side
// effects; a failure in one never blocks or cancels the other.
func (c *Coordinator) handleSample(bpm int) {
	if bpm <= 0 {
		log.Printf("monitor: discarding invalid heart rate %d", bpm)
		return
	}

	now := c.cfg.Now()
	c.live.Touch(now)

	if c.deps.Tracker != nil {
		c.deps.Tracker.RecordSample(bpm, now)
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.SamplesReceived.Inc()
		c.deps.Metrics.LastBPM.Set(float64(bpm))
	}

	// Persistence keeps arrival order via the queue; when the queue is
	// full the sample is dropped, never the stream.
	select {
	case c.persistCh <- persistReq{bpm: bpm, at: now}:
	default:
		log.Printf("monitor: persist queue full, dropping sample")
	}

	c.offerSend(bpm)
}

// offerSend places bpm in the single-slot send mailbox, displacing any
// queued value: the most recent sample that clears the rate gate is the
// one that gets sent.
func (c *Coordinator) offerSend(bpm int) {
	select {
	case c.sendCh <- bpm:
		return
	default:
	}
	select {
	case <-c.sendCh:
	default:
	}
	select {
	case c.sendCh <- bpm:
	default:
	}
}

func (c *Coordinator) persistLoop() {
	for {
		select {
		case <-c.done:
			return
		case req := <-c.persistCh:
			if err := c.deps.Store.Insert(req.bpm); err != nil {
				log.Printf("monitor: persist sample: %v", err)
				if c.deps.Metrics != nil {
					c.deps.Metrics.StoreErrors.Inc()
				}
			} else if c.deps.Metrics != nil {
				c.deps.Metrics.SamplesPersisted.Inc()
			}

			if c.deps.Mirror != nil {
				if err := c.deps.Mirror.PublishSample(req.bpm, req.at); err != nil {
					log.Printf("monitor: mirror sample: %v", err)
				}
			}
		}
	}
}

func (c *Coordinator) sendLoop() {
	for {
		select {
		case <-c.done:
			return
		case bpm := <-c.sendCh:
			msg, ok := c.deps.Formatter.Format(bpm)
			if !ok {
				log.Printf("monitor: no message for heart rate %d", bpm)
				continue
			}

			sent, err := c.deps.Output.Send(msg)
			if sent && c.deps.Metrics != nil {
				c.deps.Metrics.SendsAttempted.Inc()
			}
			switch {
			case err != nil && !sent:
				// Rejected before the attempt: over the length limit.
				log.Printf("monitor: chatbox message rejected: %v", err)
				if c.deps.Metrics != nil {
					c.deps.Metrics.SendsRejected.Inc()
				}
			case err != nil:
				log.Printf("monitor: send chatbox message: %v", err)
				if c.deps.Metrics != nil {
					c.deps.Metrics.SendErrors.Inc()
				}
			case !sent:
				if c.deps.Metrics != nil {
					c.deps.Metrics.SendsRateLimited.Inc()
				}
			default:
				log.Printf("monitor: sent chatbox message: %s", msg)
			}
		}
	}
}

func (c *Coordinator) triggerFatal(reason string) {
	select {
	case c.fatalCh <- reason:
	default:
	}
}

// finish runs the shutdown sequence and marks the coordinator terminated.
func (c *Coordinator) finish(out Outcome) Outcome {
	if out.Err != nil {
		log.Printf("monitor: fatal: %v", out.Err)
	}
	c.Shutdown()
	c.setState(StateTerminated)
	return out
}

// Shutdown tears down collaborators best-effort and in order: supervisor
// timers, scanning, the device connection, then the store. Each step's
// failure is logged but never prevents subsequent steps. Safe to call more
// than once, including concurrently.
func (c *Coordinator) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.setState(StateShuttingDown)

		c.mu.Lock()
		wd := c.watchdog
		p := c.peripheral
		scanning := c.scanning
		c.peripheral = nil
		c.scanning = false
		c.mu.Unlock()

		if wd != nil {
			wd.Stop()
		}

		if scanning {
			if err := c.deps.Central.StopScan(); err != nil {
				log.Printf("monitor: stop scan during shutdown: %v", err)
			}
		}

		if p != nil {
			if err := p.Disconnect(); err != nil {
				log.Printf("monitor: disconnect during shutdown: %v", err)
			}
		}

		close(c.done)

		if err := c.deps.Store.Close(); err != nil {
			log.Printf("monitor: close store: %v", err)
		}
	})
}

// matches applies the target preference order: exact name, then exact
// address, then any advertiser of the heart rate service.
func (c *Coordinator) matches(adv ble.Advertisement) bool {
	if c.cfg.DeviceName != "" {
		return adv.Name == c.cfg.DeviceName
	}
	if c.cfg.DeviceAddress != "" {
		return strings.EqualFold(adv.Address, c.cfg.DeviceAddress)
	}
	return adv.HasHeartRateService
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
