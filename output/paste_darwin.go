//go:build darwin

package output

import "github.com/micmonay/keybd_event"

// KeyPaster synthesizes the paste chord into the focused window.
type KeyPaster struct{}

func (KeyPaster) Paste() error {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSuper(true) // Cmd+V on macOS
	return kb.Launching()
}
