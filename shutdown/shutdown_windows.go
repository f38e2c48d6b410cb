//go:build windows

package shutdown

import (
	"os"
	"os/signal"
)

func Notify(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}

// NotifyStop subscribes ch to the stop request from a second invocation. On
// Windows that arrives as an interrupt, so both triggers share the channel.
func NotifyStop(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
