//go:build !linux

package rtprio

// Raise is a no-op on platforms without SCHED_FIFO support (the
// real-time scheduling requirement is Linux-specific; other platforms
// fall back to the default scheduler).
func Raise(priority int) error { return nil }
