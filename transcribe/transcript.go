// Package transcribe turns normalized audio into text. The speech engine is
// an opaque collaborator behind the Engine interface; this package owns model
// resolution, failure classification, and the cancellable pipeline around
// the engine call.
package transcribe

import (
	"strings"
	"time"
)

// Segment is one recognized span of speech.
type Segment struct {
	Text       string
	Start      time.Duration
	End        time.Duration
	Confidence float64
}

// Transcript is the immutable result of one session.
type Transcript struct {
	Segments       []Segment
	Language       string
	ProcessingTime time.Duration
}

// Text joins the segment texts into the canonical single-line output.
func (t *Transcript) Text() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		if txt := strings.TrimSpace(s.Text); txt != "" {
			parts = append(parts, txt)
		}
	}
	return strings.Join(parts, " ")
}

func (t *Transcript) Empty() bool {
	return t.Text() == ""
}
