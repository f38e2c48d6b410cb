package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if !cfg.Output.EnableClipboard {
		t.Error("default enable_clipboard should be true")
	}
	if cfg.Audio.HeadroomSeconds != 10 {
		t.Errorf("default headroom = %d, want 10", cfg.Audio.HeadroomSeconds)
	}
	if cfg.Model.Language != "en" {
		t.Errorf("default language = %q, want en", cfg.Model.Language)
	}
}

func TestLoadFromParsesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[audio]
device = "USB Mic"
max_duration = 120

[model]
model_path = "~/models/ggml-base.en.bin"
quantization_variant = "q5_1"
language = "de"

[output]
enable_clipboard = false
enable_paste = true
timestamp_format = "detailed"
notes_file = "/tmp/notes.md"
notify = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Audio.Device != "USB Mic" || cfg.Audio.MaxDuration != 120 {
		t.Errorf("audio section = %+v", cfg.Audio)
	}
	if cfg.Model.QuantizationVariant != "q5_1" || cfg.Model.Language != "de" {
		t.Errorf("model section = %+v", cfg.Model)
	}
	if cfg.Output.EnableClipboard || !cfg.Output.EnablePaste || cfg.Output.TimestampFormat != "detailed" {
		t.Errorf("output section = %+v", cfg.Output)
	}
}

func TestLoadFromMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[audio\ndevice="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MICRODROP_MODEL_PATH", "/env/model.bin")
	t.Setenv("MICRODROP_DEVICE", "EnvMic")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Model.ModelPath != "/env/model.bin" {
		t.Errorf("ModelPath = %q", cfg.Model.ModelPath)
	}
	if cfg.Audio.Device != "EnvMic" {
		t.Errorf("Device = %q", cfg.Audio.Device)
	}
}

func TestWriteDefaultRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteDefaultTo(path, false); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteDefaultTo(path, false); err == nil {
		t.Fatal("expected refusal without force")
	}
	if err := WriteDefaultTo(path, true); err != nil {
		t.Fatalf("forced write: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if cfg.Audio.HeadroomSeconds != Default().Audio.HeadroomSeconds {
		t.Errorf("written defaults do not round trip: %+v", cfg.Audio)
	}
}
