package transcribe

import "fmt"

// FailureKind classifies fatal transcription errors. Every kind maps to the
// same process exit code but is reported distinctly on stderr.
type FailureKind int

const (
	// FailureModelLoad: missing or unreadable model file.
	FailureModelLoad FailureKind = iota
	// FailureInference: the engine itself failed.
	FailureInference
	// FailurePreprocess: zero-length or malformed normalized audio.
	FailurePreprocess
)

func (k FailureKind) String() string {
	switch k {
	case FailureModelLoad:
		return "model load failure"
	case FailureInference:
		return "inference failure"
	case FailurePreprocess:
		return "audio preprocessing failure"
	}
	return "unknown failure"
}

// Failure wraps an error with its classification so the caller can pick the
// exit code without inspecting message text.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func modelLoadFailure(format string, args ...any) error {
	return &Failure{Kind: FailureModelLoad, Err: fmt.Errorf(format, args...)}
}

func inferenceFailure(format string, args ...any) error {
	return &Failure{Kind: FailureInference, Err: fmt.Errorf(format, args...)}
}

func preprocessFailure(format string, args ...any) error {
	return &Failure{Kind: FailurePreprocess, Err: fmt.Errorf(format, args...)}
}

// PreprocessError classifies an audio preparation error that happened
// outside this package, such as a normalization failure.
func PreprocessError(err error) error {
	return &Failure{Kind: FailurePreprocess, Err: err}
}
