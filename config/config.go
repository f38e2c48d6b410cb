// Package config loads the TOML configuration file and applies environment
// overrides. Missing files are not an error; defaults apply.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Audio  AudioConfig  `toml:"audio"`
	Model  ModelConfig  `toml:"model"`
	Output OutputConfig `toml:"output"`
}

type AudioConfig struct {
	// Preferred input device name (empty = system default).
	Device string `toml:"device"`
	// Maximum recording duration in seconds (0 = unlimited).
	MaxDuration int `toml:"max_duration"`
	// Ring buffer headroom in seconds of audio kept between the capture
	// callback and the drain loop.
	HeadroomSeconds int `toml:"headroom_seconds"`
}

type ModelConfig struct {
	// Path to the speech model file. Empty means search the data dir.
	ModelPath string `toml:"model_path"`
	// Quantization variant suffix, e.g. "q5_1".
	QuantizationVariant string `toml:"quantization_variant"`
	// Language hint passed to the engine (empty = auto-detect).
	Language string `toml:"language"`
	// Seconds to wait for a non-cancellable inference call after a stop
	// request before suppressing all side effects except stdout.
	CancelWaitSeconds int `toml:"cancel_wait_seconds"`
}

type OutputConfig struct {
	EnableClipboard bool   `toml:"enable_clipboard"`
	EnablePaste     bool   `toml:"enable_paste"`
	TimestampFormat string `toml:"timestamp_format"` // none|simple|detailed
	NotesFile       string `toml:"notes_file"`
	Notify          bool   `toml:"notify"`
}

func Default() Config {
	return Config{
		Audio: AudioConfig{
			HeadroomSeconds: 10,
		},
		Model: ModelConfig{
			Language:          "en",
			CancelWaitSeconds: 10,
		},
		Output: OutputConfig{
			EnableClipboard: true,
			TimestampFormat: "none",
		},
	}
}

// Load reads the config from the default location.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from a specific path. A missing file yields the
// defaults; a malformed file is an error.
func LoadFrom(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		applyEnvOverrides(&cfg)
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Audio.HeadroomSeconds <= 0 {
		cfg.Audio.HeadroomSeconds = Default().Audio.HeadroomSeconds
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MICRODROP_MODEL_PATH"); v != "" {
		cfg.Model.ModelPath = expandTilde(v)
	}
	if v := os.Getenv("MICRODROP_DEVICE"); v != "" {
		cfg.Audio.Device = v
	}
	if v := os.Getenv("MICRODROP_NOTES_FILE"); v != "" {
		cfg.Output.NotesFile = expandTilde(v)
	}
}

// Path returns the config file location under the XDG config dir.
func Path() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "microdrop", "config.toml"), nil
}

// WriteDefault writes a commented default config to the default path.
// It refuses to overwrite an existing file unless force is set.
func WriteDefault(force bool) (string, error) {
	path, err := Path()
	if err != nil {
		return "", err
	}
	return path, WriteDefaultTo(path, force)
}

func WriteDefaultTo(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	if err := enc.Encode(Default()); err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	return os.WriteFile(path, []byte(sb.String()), 0o644)
}

func expandTilde(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
