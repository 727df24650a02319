//go:build linux

// Package rtprio raises the calling goroutine's underlying OS thread to a
// real-time scheduling policy: channel workers run at elevated real-time
// priority, each using SCHED_FIFO. Best-effort: an unprivileged process
// logs and continues rather than failing, since the core must still run
// for development/testing without CAP_SYS_NICE.
package rtprio

import (
	"fmt"
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedParam mirrors struct sched_param from sched.h. x/sys/unix doesn't
// wrap sched_setscheduler on linux, so Raise drives the syscall directly.
type schedParam struct {
	priority int32
}

// Raise locks the calling goroutine to its OS thread and requests
// SCHED_FIFO at the given priority (1-99). Call this as the first thing a
// channel worker goroutine does.
func Raise(priority int) error {
	runtime.LockOSThread()
	param := schedParam{priority: int32(priority)}
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, uintptr(unix.SCHED_FIFO), uintptr(unsafe.Pointer(&param)))
	if errno != 0 {
		return fmt.Errorf("rtprio: SCHED_FIFO priority %d: %w", priority, errno)
	}
	return nil
}
