package types

import "testing"

func TestGetTTSConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	tts := cfg.GetTTSConfig()

	if tts.Provider != "deepgram" {
		t.Errorf("Provider = %s, want deepgram", tts.Provider)
	}
	if tts.Voice != DefaultVoiceLabel {
		t.Errorf("Voice = %s, want %s", tts.Voice, DefaultVoiceLabel)
	}
	if tts.BaseURL != DefaultDeepgramURL {
		t.Errorf("BaseURL = %s, want %s", tts.BaseURL, DefaultDeepgramURL)
	}
	if tts.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", tts.TimeoutSeconds)
	}
	if tts.OpenAI.Format != "mp3" {
		t.Errorf("OpenAI.Format = %s, want mp3", tts.OpenAI.Format)
	}
}

func TestGetTTSConfig_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{TTS: TTSConfig{
		Provider:       "openai",
		Voice:          "nova",
		TimeoutSeconds: 5,
		OpenAI:         TTSOpenAIConfig{Model: "tts-1", Speed: 1.5},
	}}
	tts := cfg.GetTTSConfig()

	if tts.Provider != "openai" || tts.Voice != "nova" {
		t.Errorf("got provider=%s voice=%s", tts.Provider, tts.Voice)
	}
	if tts.TimeoutSeconds != 5 {
		t.Errorf("TimeoutSeconds = %d, want 5", tts.TimeoutSeconds)
	}
	if tts.OpenAI.Model != "tts-1" || tts.OpenAI.Speed != 1.5 {
		t.Errorf("OpenAI = %+v", tts.OpenAI)
	}
}

func TestGetAudioConfig(t *testing.T) {
	if got := (&Config{}).GetAudioConfig().Device; got != "CABLE Input" {
		t.Errorf("Device = %q, want CABLE Input", got)
	}
	cfg := &Config{Audio: AudioConfig{Device: "Loopback"}}
	if got := cfg.GetAudioConfig().Device; got != "Loopback" {
		t.Errorf("Device = %q, want Loopback", got)
	}
}

func TestGetHotkeyConfig(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetHotkeyConfig(); got.Enabled || got.Stop != DefaultStopKey {
		t.Errorf("GetHotkeyConfig() = %+v, want disabled with the default key", got)
	}

	custom := KeyBinding{Key: "space", Super: true}
	cfg.Hotkey = HotkeyConfig{Enabled: true, Stop: custom}
	if got := cfg.GetHotkeyConfig(); !got.Enabled || got.Stop != custom {
		t.Errorf("GetHotkeyConfig() = %+v", got)
	}
}
