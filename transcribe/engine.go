package transcribe

import "context"

// Engine is the entire surface this tool depends on from the speech
// recognition library: mono 16 kHz float samples in, transcript out.
// Implementations must honor ctx cancellation by returning early with a
// partial or empty transcript and a nil error.
type Engine interface {
	Transcribe(ctx context.Context, samples []float32) (*Transcript, error)
}
