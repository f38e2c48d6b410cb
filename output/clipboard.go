package output

import (
	"github.com/atotto/clipboard"
)

// SystemClipboard copies through the platform clipboard utility (xclip,
// xsel, wl-clipboard, pbcopy or the win32 API, depending on OS).
type SystemClipboard struct{}

func (SystemClipboard) Write(text string) error {
	return clipboard.WriteAll(text)
}
