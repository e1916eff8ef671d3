package tts

import (
	"fmt"
	"time"

	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/types"
)

// NewSynthesizer creates the provider named in config, authenticated with apiKey
func NewSynthesizer(config types.TTSConfig, apiKey string) (Synthesizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required for %s TTS provider - configure it using the wizard or the environment", config.Provider)
	}

	var s Synthesizer
	switch config.Provider {
	case "", string(types.ProviderDeepgram):
		opts := []DeepgramOption{}
		if config.BaseURL != "" {
			opts = append(opts, WithBaseURL(config.BaseURL))
		}
		if config.TimeoutSeconds > 0 {
			opts = append(opts, WithTimeout(time.Duration(config.TimeoutSeconds)*time.Second))
		}
		s = NewDeepgramClient(apiKey, opts...)

	case string(types.ProviderOpenAI):
		s = NewOpenAITTSProvider(apiKey, OpenAIConfig{
			Model:  config.OpenAI.Model,
			Speed:  config.OpenAI.Speed,
			Format: config.OpenAI.Format,
		})

	default:
		return nil, fmt.Errorf("unsupported TTS provider: %s (supported: deepgram, openai)", config.Provider)
	}

	logger.Infof("Initialized TTS provider: %s", s.Name())
	return s, nil
}
