package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func pcmFromInt16(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestDownmixStereoAverage(t *testing.T) {
	for _, tt := range []struct {
		name string
		in   []int16
		want []int16
	}{
		{"positive", []int16{100, 200, 1000, 3000}, []int16{150, 2000}},
		{"negative", []int16{-100, -200, -1000, -3000}, []int16{-150, -2000}},
		{"mixed", []int16{-100, 100, 32767, -32768}, []int16{0, 0}},
		{"trailing incomplete frame dropped", []int16{10, 20, 30}, []int16{15}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := downmixMono(tt.in, 2)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("sample %d = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDownmixMonoPassthrough(t *testing.T) {
	in := []int16{1, -2, 3}
	got := downmixMono(in, 1)
	if len(got) != 3 || got[0] != 1 || got[1] != -2 || got[2] != 3 {
		t.Errorf("mono passthrough changed samples: %v", got)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	out, err := Normalize(nil, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("Normalize(nil): %v", err)
	}
	if len(out) != 0 {
		t.Errorf("Normalize(nil) = %d samples, want 0", len(out))
	}
}

func TestNormalizeInvalidFormat(t *testing.T) {
	batches := []RawFrameBatch{{Data: []byte{0, 0}, Frames: 1}}
	if _, err := Normalize(batches, CaptureConfig{}); err == nil {
		t.Error("expected error for zero format")
	}
}

func TestNormalizeAt16kMono(t *testing.T) {
	samples := []int16{0, 16384, -16384, 32767, -32768}
	batches := []RawFrameBatch{{Data: pcmFromInt16(samples), Frames: uint32(len(samples))}}

	out, err := Normalize(batches, CaptureConfig{SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []float32{0, 0.5, -0.5, 32767.0 / 32768.0, -1}
	if len(out) != len(want) {
		t.Fatalf("got %d samples, want %d", len(out), len(want))
	}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %f, want %f", i, out[i], want[i])
		}
	}
}

func TestNormalizeSplitAcrossBatches(t *testing.T) {
	// The batch boundaries must not affect the result.
	samples := []int16{10, 20, 30, 40, 50, 60}
	whole := []RawFrameBatch{{Data: pcmFromInt16(samples), Frames: 6}}
	split := []RawFrameBatch{
		{Data: pcmFromInt16(samples[:2]), Frames: 2},
		{Data: pcmFromInt16(samples[2:5]), Frames: 3},
		{Data: pcmFromInt16(samples[5:]), Frames: 1},
	}
	format := CaptureConfig{SampleRate: 16000, Channels: 1}

	a, err := Normalize(whole, format)
	if err != nil {
		t.Fatalf("Normalize(whole): %v", err)
	}
	b, err := Normalize(split, format)
	if err != nil {
		t.Fatalf("Normalize(split): %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("sample %d: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestNormalizeResamples48kStereo(t *testing.T) {
	const frames = 48000 // one second
	stereo := make([]int16, frames*2)
	for i := 0; i < frames; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/48000))
		stereo[i*2] = v
		stereo[i*2+1] = v
	}
	batches := []RawFrameBatch{{Data: pcmFromInt16(stereo), Frames: frames}}

	out, err := Normalize(batches, CaptureConfig{SampleRate: 48000, Channels: 2})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	// One second in, one second out at 16 kHz, give or take the
	// resampler's edge window.
	if len(out) < 15800 || len(out) > 16200 {
		t.Errorf("got %d samples, want ~16000", len(out))
	}
	for i, s := range out {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d = %f out of [-1,1]", i, s)
		}
	}
}
