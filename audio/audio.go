// Package audio owns microphone capture: device enumeration, the real-time
// capture callback, the bounded ring buffer between the callback and the
// drain loop, and normalization of captured PCM for the speech engine.
package audio

import "fmt"

// TargetSampleRate is the rate the speech engine consumes.
const TargetSampleRate = 16000

// DataCallback runs on the backend's real-time audio thread. It must not
// block; data is interleaved S16LE in the negotiated capture format.
type DataCallback func(data []byte, frameCount uint32)

// CaptureConfig is both the requested and the negotiated stream format.
type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	Format() CaptureConfig
	DeviceName() string
}

// DeviceError marks microphone failures so the caller can map them to the
// audio-device exit code.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// FindDevice resolves a device by name, or returns nil for the system
// default when name is empty.
func FindDevice(ctx Context, name string) (*DeviceInfo, error) {
	if name == "" {
		return nil, nil
	}
	devices, err := ctx.Devices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].Name == name {
			return &devices[i], nil
		}
	}
	return nil, &DeviceError{Op: "select", Err: fmt.Errorf("device %q not found", name)}
}
