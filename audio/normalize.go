package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	soxr "github.com/zaf/resample"
)

// Normalize converts an ordered batch sequence into the engine's input
// format: mono float32 at 16 kHz. Channels are downmixed by arithmetic mean;
// the sample rate is converted with soxr. Deterministic: identical input
// produces identical output. The format is whatever the capture device
// negotiated; nothing here asserts it.
func Normalize(batches []RawFrameBatch, format CaptureConfig) ([]float32, error) {
	if len(batches) == 0 {
		return nil, nil
	}
	if format.Channels == 0 || format.SampleRate == 0 {
		return nil, fmt.Errorf("normalize: invalid capture format %dch @ %d Hz", format.Channels, format.SampleRate)
	}

	total := 0
	for _, b := range batches {
		total += len(b.Data)
	}
	raw := make([]byte, 0, total)
	for _, b := range batches {
		raw = append(raw, b.Data...)
	}

	samples := bytesToInt16(raw)
	mono := downmixMono(samples, int(format.Channels))

	if format.SampleRate != TargetSampleRate {
		var err error
		mono, err = resampleMono(mono, format.SampleRate)
		if err != nil {
			return nil, err
		}
	}

	out := make([]float32, len(mono))
	for i, s := range mono {
		out[i] = float32(s) / 32768.0
	}
	return out, nil
}

func bytesToInt16(data []byte) []int16 {
	n := len(data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return out
}

// downmixMono averages interleaved channels per frame. A trailing incomplete
// frame is dropped.
func downmixMono(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	mono := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var sum int32
		for c := 0; c < channels; c++ {
			sum += int32(samples[f*channels+c])
		}
		mono[f] = int16(sum / int32(channels))
	}
	return mono
}

func resampleMono(samples []int16, rate uint32) ([]int16, error) {
	in := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(in[i*2:], uint16(s))
	}

	var buf bytes.Buffer
	res, err := soxr.New(&buf, float64(rate), float64(TargetSampleRate), 1, soxr.I16, soxr.HighQ)
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}
	if _, err := res.Write(in); err != nil {
		res.Close()
		return nil, fmt.Errorf("resample: %w", err)
	}
	// Close flushes the tail of the conversion window.
	if err := res.Close(); err != nil {
		return nil, fmt.Errorf("resample flush: %w", err)
	}
	return bytesToInt16(buf.Bytes()), nil
}
