// Package log writes all diagnostics to stderr. Stdout is reserved for
// transcript text so that piping microdrop into another tool stays safe.
package log

import (
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.Mutex
	logger zerolog.Logger
	ready  bool
)

// Init configures the stderr logger. Safe to call more than once; the last
// call wins. verbose enables debug-level events.
func Init(verbose bool) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	writer := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	logger = zerolog.New(writer).Level(level).With().Timestamp().Int("pid", os.Getpid()).Logger()
	ready = true
}

func get() (zerolog.Logger, bool) {
	mu.Lock()
	defer mu.Unlock()
	return logger, ready
}

func Debugf(format string, args ...any) {
	if l, ok := get(); ok {
		l.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Info(msg string) {
	if l, ok := get(); ok {
		l.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if l, ok := get(); ok {
		l.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Warnf(format string, args ...any) {
	if l, ok := get(); ok {
		l.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Errorf(format string, args ...any) {
	if l, ok := get(); ok {
		l.Error().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart records the beginning of a recording session.
func SessionStart(token string, device string) {
	if l, ok := get(); ok {
		l.Info().
			Str("token", token).
			Str("device", device).
			Msg("session_start")
	}
}

// CaptureStats is the final status report for a capture: total frames,
// batches drained, overflow evictions, and wall-clock duration.
func CaptureStats(frames uint64, batches int, overflow uint64, durationS float64) {
	if l, ok := get(); ok {
		l.Info().
			Uint64("frames", frames).
			Int("batches", batches).
			Uint64("overflow", overflow).
			Float64("audio_s", durationS).
			Msg("capture_stats")
	}
	if overflow > 0 {
		Warnf("ring buffer overflowed: %d batches evicted", overflow)
	}
}

// TranscriptionDone records inference timing once a transcript is produced.
func TranscriptionDone(segments int, totalMs float64, cancelled bool) {
	if l, ok := get(); ok {
		l.Info().
			Int("segments", segments).
			Float64("total_ms", totalMs).
			Bool("cancelled", cancelled).
			Msg("transcription")
	}
}

// SessionEnd records the outcome of the whole toggle invocation.
func SessionEnd(state string) {
	if l, ok := get(); ok {
		l.Info().Str("state", state).Msg("session_end")
	}
}
