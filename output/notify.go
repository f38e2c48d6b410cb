package output

import (
	"github.com/gen2brain/beeep"
)

// DesktopNotifier shows transient desktop notifications.
type DesktopNotifier struct{}

func (DesktopNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}
