package audio

import (
	"sync"
	"time"
)

// typicalBatchFrames sizes the ring buffer: backends deliver batches of
// roughly this many frames.
const typicalBatchFrames = 1024

// CaptureResult is everything collected for one recording session, returned
// once the ring buffer has been fully drained.
type CaptureResult struct {
	Batches  []RawFrameBatch
	Frames   uint64
	Overflow uint64
	Format   CaptureConfig
	Duration time.Duration
}

// Recorder wires a capture device to the ring buffer and drains it
// continuously. The device callback is the single producer; the drain
// goroutine is the single consumer.
type Recorder struct {
	device CaptureDevice
	ring   *RingBuffer

	mu      sync.Mutex
	batches []RawFrameBatch
	frames  uint64

	started   time.Time
	drainStop chan struct{}
	drainDone chan struct{}
}

// NewRecorder sizes the ring for headroomSeconds of audio at the device's
// negotiated rate.
func NewRecorder(device CaptureDevice, headroomSeconds int) *Recorder {
	format := device.Format()
	capacity := headroomSeconds * int(format.SampleRate) / typicalBatchFrames
	return &Recorder{
		device: device,
		ring:   NewRingBuffer(capacity),
	}
}

// Start registers the callback, starts the device stream, and launches the
// drain loop. The callback only copies the batch and pushes it; all other
// work happens on the consumer side.
func (r *Recorder) Start() error {
	r.drainStop = make(chan struct{})
	r.drainDone = make(chan struct{})
	r.started = time.Now()

	r.device.SetCallback(func(data []byte, frameCount uint32) {
		if len(data) == 0 {
			return
		}
		pcm := make([]byte, len(data))
		copy(pcm, data)
		r.ring.Push(RawFrameBatch{Data: pcm, Frames: frameCount, At: time.Now()})
	})

	if err := r.device.Start(); err != nil {
		r.device.ClearCallback()
		return &DeviceError{Op: "start", Err: err}
	}

	go r.drainLoop()
	return nil
}

func (r *Recorder) drainLoop() {
	defer close(r.drainDone)
	for {
		batch, ok := r.ring.Pop()
		if ok {
			r.collect(batch)
			continue
		}
		select {
		case <-r.drainStop:
			return
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (r *Recorder) collect(b RawFrameBatch) {
	r.mu.Lock()
	r.batches = append(r.batches, b)
	r.frames += uint64(b.Frames)
	r.mu.Unlock()
}

// Stop tears down the stream and performs the deterministic flush: the
// device is stopped first so no new batches arrive, then every batch still
// in the ring is drained before the result is assembled. Transcription must
// never start on a partially-flushed buffer.
func (r *Recorder) Stop() CaptureResult {
	r.device.Stop()
	r.device.ClearCallback()

	close(r.drainStop)
	<-r.drainDone

	for _, batch := range r.ring.Drain() {
		r.collect(batch)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return CaptureResult{
		Batches:  r.batches,
		Frames:   r.frames,
		Overflow: r.ring.Overflow(),
		Format:   r.device.Format(),
		Duration: time.Since(r.started),
	}
}
