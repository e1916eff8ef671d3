package tts

import (
	"context"
	"fmt"
)

// Request is one synthesis call: the text to speak and the provider's voice model id
type Request struct {
	Text  string
	Voice string
}

// Synthesizer defines the interface for text-to-speech providers.
// Implementations perform no text validation; callers reject empty input.
type Synthesizer interface {
	// Synthesize converts text to encoded audio bytes
	Synthesize(ctx context.Context, req Request) ([]byte, error)

	// Name returns the name of the provider
	Name() string
}

// AudioFormat represents supported audio formats
type AudioFormat string

const (
	FormatOpus AudioFormat = "opus"
	FormatMP3  AudioFormat = "mp3"
	FormatAAC  AudioFormat = "aac"
	FormatFLAC AudioFormat = "flac"
	FormatWAV  AudioFormat = "wav"
)

// APIError is a non-200 answer from the TTS service. Body is kept verbatim.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API Error: %d - %s", e.Status, e.Body)
}

// TransportError covers DNS, TLS, timeout and connection faults.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return "transport error: " + e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
