package transcribe

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResolveModel picks the model file for this session. Precedence: the
// explicit CLI path, then the configured path (with the quantization
// variant spliced into the name when set), then a scan of the user's model
// directory.
func ResolveModel(explicit, configured, variant string) (string, error) {
	if explicit != "" {
		return expandTilde(explicit), nil
	}
	if configured != "" {
		path := expandTilde(configured)
		if variant != "" {
			path = applyVariant(path, variant)
		}
		return path, nil
	}
	return findDefaultModel()
}

// applyVariant turns "ggml-base.en.bin" + "q5_1" into "ggml-base.en-q5_1.bin",
// matching the naming scheme of published whisper.cpp model files.
func applyVariant(path, variant string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	if strings.HasSuffix(base, "-"+variant) {
		return path
	}
	return base + "-" + variant + ext
}

// findDefaultModel scans the model directory and returns the first usable
// model file, smallest first so a fresh install with only a tiny model
// still works.
func findDefaultModel() (string, error) {
	dir := modelDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", modelLoadFailure("no model configured and model dir %s is unreadable: %v", dir, err)
	}

	type candidate struct {
		path string
		size int64
	}
	var found []candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".bin" && ext != ".gguf" && ext != ".ggml" {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		found = append(found, candidate{filepath.Join(dir, e.Name()), info.Size()})
	}
	if len(found) == 0 {
		return "", modelLoadFailure("no model files in %s", dir)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].size < found[j].size })
	return found[0].path, nil
}

func modelDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "microdrop", "models")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "models")
	}
	return filepath.Join(home, ".local", "share", "microdrop", "models")
}

func expandTilde(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
