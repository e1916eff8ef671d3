package types

// TTSProvider names a synthesis backend
type TTSProvider string

const (
	ProviderDeepgram TTSProvider = "deepgram"
	ProviderOpenAI   TTSProvider = "openai"
)

const (
	DefaultDeepgramURL  = "https://api.deepgram.com"
	DefaultVoiceLabel   = "Orion (American, masculine) - Use this one"
	DefaultDeviceSubstr = "CABLE Input"
	DefaultTimeoutSecs  = 30
)

type KeyBinding struct {
	Key   string `yaml:"key"`   // The actual key (e.g., "a", "1", "space")
	Ctrl  bool   `yaml:"ctrl"`  // Control key modifier
	Shift bool   `yaml:"shift"` // Shift key modifier
	Alt   bool   `yaml:"alt"`   // Alt key modifier
	Super bool   `yaml:"super"` // Super (Windows/Command) key modifier
}

// DefaultStopKey is Ctrl+Alt+S
var DefaultStopKey = KeyBinding{Key: "s", Ctrl: true, Alt: true}

type Keys struct {
	DeepgramKey string `yaml:"deepgram_api_key"`
	OpenAIKey   string `yaml:"openai_api_key"`
}

// TTSConfig holds configuration for Text-to-Speech
type TTSConfig struct {
	Provider       string          `yaml:"provider"`        // "deepgram", "openai"
	Voice          string          `yaml:"voice"`           // display label from the voice catalog
	BaseURL        string          `yaml:"base_url"`        // Deepgram API root, overridable for proxies
	TimeoutSeconds int             `yaml:"timeout_seconds"` // HTTP round trip limit
	OpenAI         TTSOpenAIConfig `yaml:"openai"`
}

// TTSOpenAIConfig holds OpenAI TTS specific configuration
type TTSOpenAIConfig struct {
	Model  string  `yaml:"model"`  // "tts-1" or "tts-1-hd"
	Speed  float64 `yaml:"speed"`  // 0.25-4.0, default 1.0
	Format string  `yaml:"format"` // "mp3", "opus", "aac", "flac"
}

// AudioConfig selects the output device
type AudioConfig struct {
	Device string `yaml:"device"` // case-sensitive substring of the device name
}

type DBusConfig struct {
	Enabled bool `yaml:"enabled"`
}

// HotkeyConfig configures the global stop shortcut read from evdev
type HotkeyConfig struct {
	Enabled bool       `yaml:"enabled"`
	Stop    KeyBinding `yaml:"stop"`
}

type Config struct {
	Keys   Keys         `yaml:"keys"`
	TTS    TTSConfig    `yaml:"tts"`
	Audio  AudioConfig  `yaml:"audio"`
	DBus   DBusConfig   `yaml:"dbus"`
	Hotkey HotkeyConfig `yaml:"hotkey"`
}

// GetTTSConfig returns TTS configuration with defaults
func (c *Config) GetTTSConfig() TTSConfig {
	config := c.TTS

	if config.Provider == "" {
		config.Provider = string(ProviderDeepgram)
	}
	if config.Voice == "" && config.Provider == string(ProviderDeepgram) {
		config.Voice = DefaultVoiceLabel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultDeepgramURL
	}
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = DefaultTimeoutSecs
	}

	// OpenAI TTS defaults
	if config.OpenAI.Model == "" {
		config.OpenAI.Model = "tts-1-hd"
	}
	if config.OpenAI.Speed == 0 {
		config.OpenAI.Speed = 1.0
	}
	if config.OpenAI.Format == "" {
		config.OpenAI.Format = "mp3"
	}

	return config
}

// GetAudioConfig returns audio configuration with defaults
func (c *Config) GetAudioConfig() AudioConfig {
	config := c.Audio
	if config.Device == "" {
		config.Device = DefaultDeviceSubstr
	}
	return config
}

// GetHotkeyConfig returns hotkey configuration with defaults
func (c *Config) GetHotkeyConfig() HotkeyConfig {
	config := c.Hotkey
	if config.Stop.Key == "" {
		config.Stop = DefaultStopKey
	}
	return config
}
