package tts

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/sashabaranov/go-openai"
)

// OpenAITTSProvider implements Synthesizer for OpenAI TTS API
type OpenAITTSProvider struct {
	client *openai.Client
	config OpenAIConfig
}

// OpenAIConfig holds OpenAI TTS configuration
type OpenAIConfig struct {
	Model   string  // "tts-1" or "tts-1-hd"
	Speed   float64 // 0.25-4.0, default 1.0
	Format  string  // "mp3", "opus", "aac", "flac", "wav"
	BaseURL string  // optional API root, mostly for tests
}

// NewOpenAITTSProvider creates a new OpenAI TTS provider
func NewOpenAITTSProvider(apiKey string, config OpenAIConfig) *OpenAITTSProvider {
	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	if config.Model == "" {
		config.Model = "tts-1-hd"
	}
	if config.Speed == 0 {
		config.Speed = 1.0
	}
	if config.Format == "" {
		// ffmpeg decodes everything, mp3 keeps the transient file name honest
		config.Format = string(FormatMP3)
	}

	return &OpenAITTSProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Synthesize converts text to speech and returns audio data
func (p *OpenAITTSProvider) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	voice := req.Voice
	if voice == "" {
		voice = "nova"
	}

	logger.Infof("Generating TTS for text (length: %d chars) with voice: %s", len(req.Text), voice)

	response, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.Model),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		Speed:          p.config.Speed,
		ResponseFormat: openai.SpeechResponseFormat(p.config.Format),
	})
	if err != nil {
		return nil, mapOpenAIError(ctx, err)
	}
	defer response.Close()

	audioData, err := io.ReadAll(response)
	if err != nil {
		return nil, &TransportError{Message: fmt.Sprintf("read audio: %v", err), Err: err}
	}

	logger.Infof("Generated %d bytes of %s audio (%s)",
		len(audioData), p.config.Format, humanSize(len(audioData)))

	return audioData, nil
}

// Name returns provider name
func (p *OpenAITTSProvider) Name() string {
	return "OpenAI TTS"
}

func mapOpenAIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := ""
		if reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &APIError{Status: reqErr.HTTPStatusCode, Body: body}
	}

	return &TransportError{Message: err.Error(), Err: err}
}

// humanSize provides human-readable size estimate
func humanSize(bytes int) string {
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	} else if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
