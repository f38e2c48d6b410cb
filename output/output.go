// Package output delivers a finished transcript to its sinks. Stdout is the
// canonical destination and the only one whose failure matters; clipboard,
// paste, notes and notifications are best-effort extras.
package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"microdrop/log"
	"microdrop/transcribe"
)

// Clipboard copies text into the system clipboard.
type Clipboard interface {
	Write(text string) error
}

// Paster simulates the platform paste chord into the focused window.
type Paster interface {
	Paste() error
}

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(title, body string) error
}

// Options selects which sinks run for one dispatch.
type Options struct {
	Clipboard bool
	Paste     bool
	NotesFile string
	Notify    bool
	// Timestamps formats the clipboard and notes text: "none", "simple" or
	// "detailed". Stdout is always the plain joined text.
	Timestamps string
	// SideEffects false keeps stdout but suppresses everything else, used
	// for cancelled sessions.
	SideEffects bool
}

type Dispatcher struct {
	Stdout    io.Writer
	Clipboard Clipboard
	Paster    Paster
	Notifier  Notifier
}

func NewDispatcher(stdout io.Writer, cb Clipboard, p Paster, n Notifier) *Dispatcher {
	return &Dispatcher{Stdout: stdout, Clipboard: cb, Paster: p, Notifier: n}
}

// Dispatch writes the transcript to every configured sink. Ordering is
// fixed: stdout first, then clipboard, then paste only once the clipboard
// holds the text, then notes, then notification. Sink failures after stdout
// are logged and swallowed.
func (d *Dispatcher) Dispatch(t *transcribe.Transcript, opts Options) error {
	text := t.Text()
	if text == "" {
		log.Info("empty transcript, nothing to deliver")
		return nil
	}

	if _, err := fmt.Fprintln(d.Stdout, text); err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}

	if !opts.SideEffects {
		log.Debugf("side effects suppressed")
		return nil
	}

	formatted := Format(t, opts.Timestamps)

	copied := false
	if opts.Clipboard && d.Clipboard != nil {
		if err := d.Clipboard.Write(formatted); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
		} else {
			copied = true
		}
	}

	// Pasting without the text on the clipboard would paste stale content
	// into the user's window, so it is gated on the copy above.
	if opts.Paste && d.Paster != nil {
		if !copied {
			log.Warnf("skipping paste, transcript is not on the clipboard")
		} else if err := d.Paster.Paste(); err != nil {
			log.Warnf("paste failed: %v", err)
		}
	}

	if opts.NotesFile != "" {
		if err := appendNotes(opts.NotesFile, formatted); err != nil {
			log.Warnf("notes append failed: %v", err)
		}
	}

	if opts.Notify && d.Notifier != nil {
		if err := d.Notifier.Notify("microdrop", summarize(text)); err != nil {
			log.Warnf("notification failed: %v", err)
		}
	}

	return nil
}

// Format renders the transcript for clipboard and notes. "none" joins the
// segments into one line; "simple" puts each segment on its own line with
// its start offset; "detailed" adds the end offset and confidence.
func Format(t *transcribe.Transcript, mode string) string {
	switch mode {
	case "simple", "detailed":
	default:
		return t.Text()
	}

	var lines []string
	for _, s := range t.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if mode == "simple" {
			lines = append(lines, fmt.Sprintf("[%s] %s", offset(s.Start), text))
		} else {
			lines = append(lines, fmt.Sprintf("[%s - %s] (%.0f%%) %s",
				offset(s.Start), offset(s.End), s.Confidence*100, text))
		}
	}
	return strings.Join(lines, "\n")
}

// offset renders a segment offset as MM:SS.mmm.
func offset(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

func appendNotes(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(text + "\n")
	return err
}

const notifyLimit = 80

func summarize(text string) string {
	if len(text) <= notifyLimit {
		return text
	}
	return text[:notifyLimit-3] + "..."
}
