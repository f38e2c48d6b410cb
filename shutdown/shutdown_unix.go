//go:build !windows

// Package shutdown registers the signals that end a recording.
package shutdown

import (
	"os"
	"os/signal"
	"syscall"
)

// Notify subscribes ch to interrupt-style termination signals.
func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
}

// NotifyStop subscribes ch to the cross-process stop signal sent by a second
// toggle invocation.
func NotifyStop(ch chan os.Signal) {
	signal.Notify(ch, syscall.SIGUSR1)
}
