package supervise

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// MemorySnapshot is the diagnostic record written when heap growth exceeds
// the threshold. Operator-facing only; nothing in the process reads it back.
type MemorySnapshot struct {
	Timestamp     string  `json:"timestamp"`
	HeapMB        float64 `json:"heap_mb"`
	BaselineMB    float64 `json:"baseline_mb"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

func (s *Supervisor) writeSnapshot(now time.Time, currentMB, baselineMB float64) error {
	if s.cfg.SnapshotDir == "" {
		return nil
	}

	if err := os.MkdirAll(s.cfg.SnapshotDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	snap := MemorySnapshot{
		Timestamp:     now.UTC().Format(time.RFC3339),
		HeapMB:        currentMB,
		BaselineMB:    baselineMB,
		UptimeSeconds: int64(now.Sub(s.processStart).Seconds()),
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	name := fmt.Sprintf("mem-%s.json", now.UTC().Format("20060102T150405"))
	path := filepath.Join(s.cfg.SnapshotDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}

	log.Printf("supervise: wrote memory snapshot %s", path)
	return nil
}
