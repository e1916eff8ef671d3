package audio

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ChunkFrames is the number of frames written to a sink per step.
// Cancellation is observed between chunks.
const ChunkFrames = 1024

var (
	// ErrDeviceNotFound is returned when no output device name matches.
	ErrDeviceNotFound = errors.New("output device not found")
	// ErrStopped is returned by Engine.Play when playback was cancelled.
	ErrStopped = errors.New("playback stopped")
)

// Asset is an audio file to play. Transient assets are synthesis output and
// are removed once playback ends; user assets are left alone.
type Asset struct {
	Path      string
	Transient bool
}

// DisplayName returns the base name of the asset file
func (a Asset) DisplayName() string {
	return filepath.Base(a.Path)
}

// Buffer holds decoded interleaved samples.
type Buffer struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Frames returns the number of sample frames in the buffer
func (b Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Device is an enumerated playback device. ID is backend specific.
type Device struct {
	Index int
	Name  string
	ID    any
}

func (d Device) String() string {
	return fmt.Sprintf("[%d] %s", d.Index, d.Name)
}

// Kind classifies playback failures
type Kind int

const (
	KindDecode Kind = iota
	KindDevice
	KindIO
	KindFormatMismatch
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindDevice:
		return "device"
	case KindIO:
		return "io"
	case KindFormatMismatch:
		return "format mismatch"
	default:
		return "unknown"
	}
}

// PlaybackError wraps a failure of Engine.Play with its kind
type PlaybackError struct {
	Kind Kind
	Err  error
}

func (e *PlaybackError) Error() string {
	return fmt.Sprintf("playback %s error: %v", e.Kind, e.Err)
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a PlaybackError of the given kind
func IsKind(err error, kind Kind) bool {
	var pe *PlaybackError
	return errors.As(err, &pe) && pe.Kind == kind
}
