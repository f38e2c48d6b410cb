//go:build !darwin

package output

import (
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

// KeyPaster synthesizes Ctrl+V into the focused window. The key bonding is
// created once because uinput setup on Linux needs a settle delay.
type KeyPaster struct{}

func (KeyPaster) Paste() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	if kbErr != nil {
		return kbErr
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasCTRL(true)
	return kb.Launching()
}
