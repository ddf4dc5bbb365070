package monitor

import (
	"sync"
	"time"
)

// liveness is the clock the staleness watchdog reads: the time of the most
// recent valid sample, and whether any sample has arrived at all.
type liveness struct {
	mu   sync.Mutex
	last time.Time
	seen bool
}

func (l *liveness) Touch(at time.Time) {
	l.mu.Lock()
	l.last = at
	l.seen = true
	l.mu.Unlock()
}

func (l *liveness) Last() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.seen
}
