package audio

import (
	"sync"
	"time"
)

const fakeBatchFrames = 1024

// FakeContext feeds a fixed PCM buffer through the same callback path the
// real backends use. Test-only.
type FakeContext struct {
	pcm    []byte
	format CaptureConfig
}

func NewFakeContext(pcm []byte, format CaptureConfig) *FakeContext {
	return &FakeContext{pcm: pcm, format: format}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: "fake"}}, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{
		pcm:       f.pcm,
		format:    f.format,
		audioDone: make(chan struct{}),
	}, nil
}

type FakeCapture struct {
	pcm       []byte
	format    CaptureConfig
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone closes once the whole PCM buffer has been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) Format() CaptureConfig { return f.format }

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})

	bytesPerFrame := 2 * int(f.format.Channels)
	chunkBytes := fakeBatchFrames * bytesPerFrame

	go func() {
		defer close(f.feedDone)
		for pos := 0; pos < len(f.pcm); {
			select {
			case <-f.stopCh:
				return
			default:
			}
			end := min(pos+chunkBytes, len(f.pcm))
			f.mu.Lock()
			cb := f.cb
			f.mu.Unlock()
			if cb == nil {
				time.Sleep(time.Millisecond)
				continue
			}
			chunk := make([]byte, end-pos)
			copy(chunk, f.pcm[pos:end])
			cb(chunk, uint32(len(chunk)/bytesPerFrame))
			pos = end
		}
		close(f.audioDone)
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	if f.feedDone != nil {
		<-f.feedDone
	}
}

func (f *FakeCapture) Close() {}
