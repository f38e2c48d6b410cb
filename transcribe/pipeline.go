package transcribe

import (
	"context"
	"time"

	"microdrop/log"
)

// Result carries the transcript plus whether the session was cancelled
// mid-inference. Cancelled results still print to stdout but suppress
// clipboard, paste and notes.
type Result struct {
	Transcript *Transcript
	Cancelled  bool
}

// Pipeline runs the engine on a worker goroutine so the caller can abandon
// a slow inference without blocking on it forever.
type Pipeline struct {
	Engine     Engine
	CancelWait time.Duration
}

const defaultCancelWait = 10 * time.Second

// Run transcribes the normalized samples. A cancelled ctx yields a partial
// or empty transcript with Cancelled set, never an error. Engine errors come
// back as *Failure.
func (p *Pipeline) Run(ctx context.Context, samples []float32) (Result, error) {
	if len(samples) == 0 {
		return Result{}, preprocessFailure("no audio captured")
	}

	type outcome struct {
		t   *Transcript
		err error
	}
	done := make(chan outcome, 1)
	started := time.Now()

	go func() {
		t, err := p.Engine.Transcribe(ctx, samples)
		done <- outcome{t, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return Result{}, out.err
		}
		if out.t == nil {
			out.t = &Transcript{}
		}
		out.t.ProcessingTime = time.Since(started)
		return Result{Transcript: out.t, Cancelled: ctx.Err() != nil}, nil
	case <-ctx.Done():
	}

	// Cancelled: give the engine a bounded window to unwind.
	wait := p.CancelWait
	if wait <= 0 {
		wait = defaultCancelWait
	}
	select {
	case out := <-done:
		if out.err != nil || out.t == nil {
			return Result{Transcript: &Transcript{}, Cancelled: true}, nil
		}
		out.t.ProcessingTime = time.Since(started)
		return Result{Transcript: out.t, Cancelled: true}, nil
	case <-time.After(wait):
		log.Warnf("engine did not stop within %s after cancel, abandoning it", wait)
		return Result{Transcript: &Transcript{}, Cancelled: true}, nil
	}
}
