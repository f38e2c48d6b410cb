package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"microdrop/audio"
	"microdrop/log"
)

// defaultBinary is the whisper.cpp CLI frontend expected on PATH.
const defaultBinary = "whisper-cli"

// WhisperCLI runs a local whisper.cpp binary over a temporary WAV file and
// parses its full-JSON output. CPU-bound and long-running; cancellation
// kills the child process, which yields an empty transcript rather than an
// error.
type WhisperCLI struct {
	ModelPath string
	Language  string
	Binary    string
}

// NewWhisperCLI validates the model file and locates the engine binary.
func NewWhisperCLI(modelPath, language string) (*WhisperCLI, error) {
	info, err := os.Stat(modelPath)
	if err != nil {
		return nil, modelLoadFailure("model file not found: %s", modelPath)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, modelLoadFailure("model file unusable: %s", modelPath)
	}

	binary := os.Getenv("MICRODROP_WHISPER_BIN")
	if binary == "" {
		binary = defaultBinary
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, inferenceFailure("speech engine binary %q not found on PATH", binary)
	}

	return &WhisperCLI{ModelPath: modelPath, Language: language, Binary: path}, nil
}

func (w *WhisperCLI) Transcribe(ctx context.Context, samples []float32) (*Transcript, error) {
	tmpDir, err := os.MkdirTemp("", "microdrop-*")
	if err != nil {
		return nil, inferenceFailure("create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	wavPath := filepath.Join(tmpDir, "audio.wav")
	if err := writeWAV(wavPath, samples); err != nil {
		return nil, err
	}

	outPrefix := filepath.Join(tmpDir, "result")
	args := []string{
		"-m", w.ModelPath,
		"-f", wavPath,
		"-ojf",
		"-of", outPrefix,
		"-np",
	}
	if w.Language != "" {
		args = append(args, "-l", w.Language)
	}

	cmd := exec.CommandContext(ctx, w.Binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stderr

	log.Debugf("running %s %v", w.Binary, args)
	runErr := cmd.Run()

	if ctx.Err() != nil {
		// Cancelled mid-inference: the child was killed. Report whatever was
		// written before the kill, or nothing.
		if t, err := parseResultFile(outPrefix + ".json"); err == nil {
			return t, nil
		}
		return &Transcript{}, nil
	}
	if runErr != nil {
		msg := stderr.String()
		if bytes.Contains(stderr.Bytes(), []byte("failed to load model")) ||
			bytes.Contains(stderr.Bytes(), []byte("failed to initialize whisper context")) {
			return nil, modelLoadFailure("engine rejected model %s: %s", w.ModelPath, firstLine(msg))
		}
		return nil, inferenceFailure("engine exited: %v: %s", runErr, firstLine(msg))
	}

	t, err := parseResultFile(outPrefix + ".json")
	if err != nil {
		return nil, inferenceFailure("read engine output: %v", err)
	}
	return t, nil
}

// writeWAV stores the normalized samples as 16 kHz mono 16-bit PCM.
func writeWAV(path string, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return inferenceFailure("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, audio.TargetSampleRate, 16, 1, 1)
	data := make([]int, len(samples))
	for i, s := range samples {
		v := int(s * 32767)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		data[i] = v
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.TargetSampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return inferenceFailure("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		return inferenceFailure("finalize wav: %v", err)
	}
	return nil
}

// whisperResult mirrors the whisper.cpp --output-json-full schema, reduced
// to the fields this tool consumes.
type whisperResult struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text   string `json:"text"`
		Tokens []struct {
			Text string  `json:"text"`
			P    float64 `json:"p"`
		} `json:"tokens"`
	} `json:"transcription"`
}

func parseResultFile(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseResult(data)
}

func parseResult(data []byte) (*Transcript, error) {
	var res whisperResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("malformed engine JSON: %w", err)
	}

	t := &Transcript{Language: res.Result.Language}
	for _, seg := range res.Transcription {
		s := Segment{
			Text:       seg.Text,
			Start:      time.Duration(seg.Offsets.From) * time.Millisecond,
			End:        time.Duration(seg.Offsets.To) * time.Millisecond,
			Confidence: tokenConfidence(seg.Tokens),
		}
		t.Segments = append(t.Segments, s)
	}
	return t, nil
}

// tokenConfidence averages token probabilities, skipping special tokens like
// [_BEG_].
func tokenConfidence(tokens []struct {
	Text string  `json:"text"`
	P    float64 `json:"p"`
}) float64 {
	var sum float64
	var n int
	for _, tok := range tokens {
		if len(tok.Text) > 1 && tok.Text[0] == '[' {
			continue
		}
		sum += tok.P
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func firstLine(s string) string {
	if i := bytes.IndexByte([]byte(s), '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
