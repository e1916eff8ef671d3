package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dooshek/cablespeak/internal/fileops"
	"github.com/dooshek/cablespeak/internal/types"
)

func TestLoadConfigFrom_Missing(t *testing.T) {
	fo := fileops.NewFileOps(t.TempDir())

	cfg, err := LoadConfigFrom(fo)
	if err != nil {
		t.Fatalf("LoadConfigFrom() error = %v", err)
	}
	if cfg != nil {
		t.Errorf("LoadConfigFrom() = %+v, want nil for missing file", cfg)
	}
}

func TestSaveConfigTo_RoundTrip(t *testing.T) {
	fo := fileops.NewFileOps(t.TempDir())

	in := &types.Config{
		Keys:  types.Keys{DeepgramKey: "dg-key"},
		TTS:   types.TTSConfig{Provider: "deepgram", Voice: "Luna (American, feminine)"},
		Audio: types.AudioConfig{Device: "CABLE Input"},
	}
	if err := SaveConfigTo(fo, in); err != nil {
		t.Fatalf("SaveConfigTo() error = %v", err)
	}

	out, err := LoadConfigFrom(fo)
	if err != nil {
		t.Fatalf("LoadConfigFrom() error = %v", err)
	}
	if out.Keys.DeepgramKey != "dg-key" {
		t.Errorf("DeepgramKey = %q", out.Keys.DeepgramKey)
	}
	if out.TTS.Voice != "Luna (American, feminine)" {
		t.Errorf("Voice = %q", out.TTS.Voice)
	}
	if out.Audio.Device != "CABLE Input" {
		t.Errorf("Device = %q", out.Audio.Device)
	}
}

func TestSaveConfigTo_MergesExisting(t *testing.T) {
	fo := fileops.NewFileOps(t.TempDir())

	first := &types.Config{
		Keys: types.Keys{DeepgramKey: "keep-me"},
		TTS:  types.TTSConfig{Voice: "Zeus (American, masculine)", TimeoutSeconds: 12},
	}
	if err := SaveConfigTo(fo, first); err != nil {
		t.Fatal(err)
	}

	second := &types.Config{
		Audio: types.AudioConfig{Device: "Loopback"},
		TTS:   types.TTSConfig{Voice: "Hera (American, feminine)"},
	}
	if err := SaveConfigTo(fo, second); err != nil {
		t.Fatal(err)
	}

	out, err := LoadConfigFrom(fo)
	if err != nil {
		t.Fatal(err)
	}
	if out.Keys.DeepgramKey != "keep-me" {
		t.Errorf("DeepgramKey = %q, want keep-me", out.Keys.DeepgramKey)
	}
	if out.TTS.TimeoutSeconds != 12 {
		t.Errorf("TimeoutSeconds = %d, want 12", out.TTS.TimeoutSeconds)
	}
	if out.TTS.Voice != "Hera (American, feminine)" {
		t.Errorf("Voice = %q", out.TTS.Voice)
	}
	if out.Audio.Device != "Loopback" {
		t.Errorf("Device = %q", out.Audio.Device)
	}
}

func TestLoadConfigFrom_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	fo := fileops.NewFileOps(dir)
	if err := os.WriteFile(filepath.Join(dir, configFilename), []byte("tts: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfigFrom(fo); err == nil {
		t.Error("LoadConfigFrom() expected parse error")
	}
}
