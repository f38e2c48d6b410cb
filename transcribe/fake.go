package transcribe

import (
	"context"
	"sync"
	"time"
)

// FakeEngine returns a canned transcript after an optional delay. Test-only.
type FakeEngine struct {
	Result *Transcript
	Err    error
	Delay  time.Duration

	mu      sync.Mutex
	calls   int
	samples []float32
}

func (f *FakeEngine) Transcribe(ctx context.Context, samples []float32) (*Transcript, error) {
	f.mu.Lock()
	f.calls++
	f.samples = append([]float32(nil), samples...)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return &Transcript{}, nil
		}
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Result != nil {
		return f.Result, nil
	}
	return &Transcript{}, nil
}

// Calls reports how many times Transcribe ran.
func (f *FakeEngine) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastSamples returns a copy of the samples from the most recent call.
func (f *FakeEngine) LastSamples() []float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.samples
}
