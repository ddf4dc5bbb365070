// Package supervise runs the background liveness checks: a stale-data
// watchdog that triggers shutdown when samples stop arriving, and an
// advisory memory-growth monitor that writes diagnostic snapshots.
package supervise

import (
	"log"
	"runtime"
	"sync"
	"time"
)

// Defaults for the check timers.
const (
	DefaultStaleInterval  = 5 * time.Second
	DefaultStaleThreshold = 20 * time.Second
	DefaultMemInterval    = 5 * time.Second
	DefaultMemGrowthMB    = 50.0
)

// Config controls the supervisor's timers and probes. Zero fields fall back
// to the defaults above. Now and HeapMB are injectable for tests.
type Config struct {
	StaleInterval  time.Duration
	StaleThreshold time.Duration
	MemInterval    time.Duration
	MemGrowthMB    float64
	SnapshotDir    string

	Now    func() time.Time
	HeapMB func() float64
}

// Supervisor owns two independent periodic checks, each on its own
// cancelable timer. Stop is idempotent: a tick already running completes,
// but no new tick is scheduled afterwards.
type Supervisor struct {
	cfg          Config
	lastSample   func() (time.Time, bool)
	onStale      func(reason string)
	processStart time.Time

	staleOnce sync.Once

	mu         sync.Mutex
	baselineMB float64
	baselined  bool

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New creates a Supervisor. lastSample reports the liveness clock: the time
// of the most recent sample and whether any sample has arrived yet. onStale
// is the fatal trigger; it fires at most once.
func New(cfg Config, lastSample func() (time.Time, bool), onStale func(reason string)) *Supervisor {
	if cfg.StaleInterval <= 0 {
		cfg.StaleInterval = DefaultStaleInterval
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = DefaultStaleThreshold
	}
	if cfg.MemInterval <= 0 {
		cfg.MemInterval = DefaultMemInterval
	}
	if cfg.MemGrowthMB <= 0 {
		cfg.MemGrowthMB = DefaultMemGrowthMB
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.HeapMB == nil {
		cfg.HeapMB = heapMB
	}

	return &Supervisor{
		cfg:          cfg,
		lastSample:   lastSample,
		onStale:      onStale,
		processStart: cfg.Now(),
		stop:         make(chan struct{}),
	}
}

// Start launches both check timers.
func (s *Supervisor) Start() {
	s.wg.Add(2)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.StaleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkStale(s.cfg.Now())
			}
		}
	}()

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.MemInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.checkMemory(s.cfg.Now())
			}
		}
	}()
}

// Stop cancels both timers and waits for in-flight ticks to finish.
// Safe to call more than once and from concurrent goroutines.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	s.wg.Wait()
}

// checkStale fires the fatal trigger when the gap since the last sample
// exceeds the threshold. Before the first sample ever arrives there is no
// timestamp to compare against, so the check is inert — discovery and
// connect latency must not count as staleness.
func (s *Supervisor) checkStale(now time.Time) {
	lastAt, ok := s.lastSample()
	if !ok {
		return
	}
	if gap := now.Sub(lastAt); gap > s.cfg.StaleThreshold {
		s.staleOnce.Do(func() {
			log.Printf("supervise: no data received for %v (threshold %v)", gap.Truncate(time.Millisecond), s.cfg.StaleThreshold)
			s.onStale("timeout, no data received")
		})
	}
}

// checkMemory records heap usage on the first tick as baseline and warns on
// growth beyond the configured delta. Advisory only: it never affects
// control flow.
func (s *Supervisor) checkMemory(now time.Time) {
	current := s.cfg.HeapMB()

	s.mu.Lock()
	if !s.baselined {
		s.baselineMB = current
		s.baselined = true
		s.mu.Unlock()
		log.Printf("supervise: memory baseline %.1f MB", current)
		return
	}
	baseline := s.baselineMB
	s.mu.Unlock()

	if current-baseline > s.cfg.MemGrowthMB {
		log.Printf("supervise: heap grew from %.1f MB to %.1f MB (threshold +%.0f MB)",
			baseline, current, s.cfg.MemGrowthMB)
		if err := s.writeSnapshot(now, current, baseline); err != nil {
			log.Printf("supervise: write memory snapshot: %v", err)
		}
	}
}

func heapMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / (1024 * 1024)
}
