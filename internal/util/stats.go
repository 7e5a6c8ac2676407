package util

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pterm/pterm"
)

// ──────────────────────────────────────────────────────────────────────────────
// Global stats singleton
// ──────────────────────────────────────────────────────────────────────────────

// Stats is the process-wide counter of binary data forwarded through
// open channels (spec.md SendBinaryData/BinaryData — the hub's one
// payload path it does not otherwise inspect).
var Stats = &stats{}

type stats struct {
	BytesForwarded atomic.Int64
}

func (s *stats) AddForwarded(n int) { s.BytesForwarded.Add(int64(n)) }

// ──────────────────────────────────────────────────────────────────────────────
// Periodic reporter
// ──────────────────────────────────────────────────────────────────────────────

// Snapshot is the live counts a reporter tick needs from the hub.
type Snapshot interface {
	ConnectionCount() int
	OpenChannelCount() int
}

// StartStatsReporter launches a goroutine that logs hub-wide traffic and
// occupancy every 10 seconds. It stops when ctx is cancelled.
func StartStatsReporter(ctx context.Context, snap Snapshot) {
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()

		var prevBytes int64
		for {
			select {
			case <-ticker.C:
				bytes := Stats.BytesForwarded.Load()
				rate := float64(bytes-prevBytes) / 10.0
				prevBytes = bytes

				pterm.DefaultLogger.Info(formatStats(rate, snap.ConnectionCount(), snap.OpenChannelCount()))

			case <-ctx.Done():
				return
			}
		}
	}()
}

// byteUnits defines the units for formatting byte counts in a human-readable way.
var byteUnits = []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}

// formatBytes formats a byte count into a human-readable string with fixed width (exactly 8 chars)
// for example: "99.0   B", " 1.5 KiB", " 0.1 MiB", "98.9 GiB", etc.
func formatBytes(b float64) string {
	unitIdx := 0

	// to prevent "100.0 KiB", which is 9 chars
	for b > 99 && unitIdx < 5 {
		b /= 1024
		unitIdx++
	}

	return fmt.Sprintf("%4.1f %3s", b, byteUnits[unitIdx])
}

// formatStats returns a formatted string of the current stats for display in the logger.
func formatStats(rate float64, conns, openChannels int) string {
	return fmt.Sprintf("Forwarded: %s/s | Connections: %d | Open channels: %d",
		formatBytes(rate),
		conns,
		openChannels,
	)
}
