package health

import (
	"context"
	"runtime"
	"time"
)

// DatabaseProbe pings the export database within timeout.
func DatabaseProbe(ping func(ctx context.Context) error, timeout time.Duration) ProbeFunc {
	return func() Probe {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			return Probe{Status: StatusUnhealthy, Message: err.Error()}
		}
		return Probe{Status: StatusHealthy, Message: "Connected"}
	}
}

// MemoryProbe degrades when allocated heap exceeds 90% of memory obtained
// from the OS.
func MemoryProbe(usage func() (alloc, sys uint64)) ProbeFunc {
	return func() Probe {
		alloc, sys := usage()
		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			return Probe{Status: StatusDegraded, Message: "High memory usage"}
		}
		return Probe{Status: StatusHealthy, Message: "Memory usage normal"}
	}
}

// RuntimeMemory reads the current heap allocation and OS memory.
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}
