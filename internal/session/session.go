// Package session sequences synthesis and playback for one output device.
package session

import (
	"context"
	"errors"

	"github.com/dooshek/cablespeak/internal/audio"
)

var (
	ErrEmptyText    = errors.New("text is empty")
	ErrMissingAsset = errors.New("no media file selected or file does not exist")
	ErrUnknownVoice = errors.New("unknown voice")
	ErrBusy         = errors.New("another operation is in progress")
	ErrClosed       = errors.New("session closed")
)

// State of the orchestrator
type State int

const (
	Idle State = iota
	Synthesizing
	Playing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Synthesizing:
		return "synthesizing"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Kind tells speech and media operations apart
type Kind string

const (
	KindNone   Kind = ""
	KindSpeech Kind = "speech"
	KindMedia  Kind = "media"
)

// Listener receives state notifications. Calls are made from the
// orchestrator goroutine and should return quickly.
type Listener interface {
	Busy(kind Kind)
	Idle()
	Error(message string)
	FileSelected(displayName string)
}

// Listeners fans notifications out to several listeners
type Listeners []Listener

func (ls Listeners) Busy(kind Kind) {
	for _, l := range ls {
		l.Busy(kind)
	}
}

func (ls Listeners) Idle() {
	for _, l := range ls {
		l.Idle()
	}
}

func (ls Listeners) Error(message string) {
	for _, l := range ls {
		l.Error(message)
	}
}

func (ls Listeners) FileSelected(displayName string) {
	for _, l := range ls {
		l.FileSelected(displayName)
	}
}

// NopListener ignores every notification. Embed it to implement a subset.
type NopListener struct{}

func (NopListener) Busy(Kind)           {}
func (NopListener) Idle()               {}
func (NopListener) Error(string)        {}
func (NopListener) FileSelected(string) {}

// Status is a snapshot of the orchestrator state
type Status struct {
	State        State
	Kind         Kind
	SelectedFile string
	Generation   uint64
}

// Enablement says which user actions make sense in a state
type Enablement struct {
	Speak        bool
	StopSpeaking bool
	PlayMedia    bool
	StopMedia    bool
}

func (s Status) Enablement() Enablement {
	idle := s.State == Idle
	playing := s.State == Playing
	return Enablement{
		Speak:        idle,
		StopSpeaking: playing,
		PlayMedia:    idle && s.SelectedFile != "",
		StopMedia:    playing,
	}
}

// Player streams an asset to a device; *audio.Engine implements it.
type Player interface {
	Play(ctx context.Context, asset audio.Asset, device audio.Device) error
}

// DeviceResolver finds the output device; *audio.Resolver implements it.
type DeviceResolver interface {
	Find(substr string) (audio.Device, error)
}

// TransientWriter persists synthesis output; fileops.FileOps implements it.
type TransientWriter interface {
	WriteTransientAudio(data []byte) (string, error)
}

// StatsRecorder records usage; *stats.StatsManager implements it.
type StatsRecorder interface {
	AddSpeech(voice string, characters int)
	AddMediaPlay()
	AddFailure()
}
