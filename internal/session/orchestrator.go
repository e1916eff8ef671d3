package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/dooshek/cablespeak/internal/audio"
	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/tts"
	"github.com/dooshek/cablespeak/internal/voices"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config wires the orchestrator to its collaborators
type Config struct {
	Synthesizer tts.Synthesizer
	Voices      *voices.Catalog
	Resolver    DeviceResolver
	Player      Player
	Files       TransientWriter
	// DeviceName is matched as a substring of the output device name.
	DeviceName string

	Stats    StatsRecorder // optional
	Listener Listener      // optional
}

type resultKind int

const (
	synthesisDone resultKind = iota
	playbackDone
)

type taskResult struct {
	kind       resultKind
	generation uint64
	taskID     string
	data       []byte
	err        error
}

type synthesisTask struct {
	id     string
	voice  voices.Voice
	chars  int
	cancel context.CancelFunc
}

type playbackTask struct {
	id     string
	asset  audio.Asset
	device audio.Device
	cancel context.CancelFunc
	done   chan struct{}
}

// Orchestrator owns the Idle/Synthesizing/Playing state machine. All state is
// confined to one goroutine; public methods are serialized through it.
type Orchestrator struct {
	cfg      Config
	listener Listener
	log      zerolog.Logger

	cmds     chan func()
	results  chan taskResult
	quit     chan struct{}
	quitOnce sync.Once
	stopped  chan struct{}

	// loop-owned
	state      State
	kind       Kind
	generation uint64
	selected   string
	synthesis  *synthesisTask
	playback   *playbackTask
}

// New validates cfg and starts the orchestrator loop
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Synthesizer == nil:
		return nil, errors.New("session: synthesizer is required")
	case cfg.Voices == nil:
		return nil, errors.New("session: voice catalog is required")
	case cfg.Resolver == nil:
		return nil, errors.New("session: device resolver is required")
	case cfg.Player == nil:
		return nil, errors.New("session: player is required")
	case cfg.Files == nil:
		return nil, errors.New("session: transient writer is required")
	}

	listener := cfg.Listener
	if listener == nil {
		listener = NopListener{}
	}

	o := &Orchestrator{
		cfg:      cfg,
		listener: listener,
		log:      logger.With("session"),
		cmds:     make(chan func()),
		// room for every worker that can be in flight plus stale ones
		results: make(chan taskResult, 4),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go o.loop()
	return o, nil
}

func (o *Orchestrator) loop() {
	defer close(o.stopped)
	for {
		select {
		case fn := <-o.cmds:
			fn()
		case r := <-o.results:
			o.handleResult(r)
		case <-o.quit:
			o.shutdown()
			return
		}
	}
}

// do runs fn on the loop goroutine and waits for it to finish
func (o *Orchestrator) do(fn func()) error {
	done := make(chan struct{})
	select {
	case o.cmds <- func() { fn(); close(done) }:
	case <-o.stopped:
		return ErrClosed
	}
	<-done
	return nil
}

// Speak synthesizes text with the voice identified by voiceLabel (label,
// 1-based index or model id; empty selects the default) and plays it.
func (o *Orchestrator) Speak(text, voiceLabel string) error {
	var err error
	if cerr := o.do(func() { err = o.speak(text, voiceLabel) }); cerr != nil {
		return cerr
	}
	return err
}

// StopSpeaking cancels active playback and waits for it to end.
// It is a no-op when nothing is playing.
func (o *Orchestrator) StopSpeaking() error {
	return o.do(func() { o.stop("speaking") })
}

// StopMedia behaves like StopSpeaking; either stop halts any playback.
func (o *Orchestrator) StopMedia() error {
	return o.do(func() { o.stop("media") })
}

// SelectFile remembers path as the media asset for PlayMedia
func (o *Orchestrator) SelectFile(path string) error {
	var err error
	if cerr := o.do(func() { err = o.selectFile(path) }); cerr != nil {
		return cerr
	}
	return err
}

// PlayMedia plays the selected file
func (o *Orchestrator) PlayMedia() error {
	var err error
	if cerr := o.do(func() { err = o.playMedia() }); cerr != nil {
		return cerr
	}
	return err
}

// Status returns a snapshot of the current state
func (o *Orchestrator) Status() Status {
	var s Status
	if err := o.do(func() {
		s = Status{State: o.state, Kind: o.kind, SelectedFile: o.selected, Generation: o.generation}
	}); err != nil {
		return Status{State: Idle}
	}
	return s
}

// Voices returns the catalog the orchestrator resolves labels against
func (o *Orchestrator) Voices() *voices.Catalog {
	return o.cfg.Voices
}

// Close stops any active work and ends the loop. Further calls return ErrClosed.
func (o *Orchestrator) Close() error {
	o.quitOnce.Do(func() { close(o.quit) })
	<-o.stopped
	return nil
}

func (o *Orchestrator) speak(text, voiceLabel string) error {
	if o.state != Idle {
		return ErrBusy
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	voice := o.cfg.Voices.Default()
	if voiceLabel != "" {
		v, err := o.cfg.Voices.Resolve(voiceLabel)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnknownVoice, voiceLabel)
		}
		voice = v
	}

	o.generation++
	gen := o.generation
	ctx, cancel := context.WithCancel(context.Background())
	task := &synthesisTask{id: uuid.NewString(), voice: voice, chars: len([]rune(text)), cancel: cancel}
	o.synthesis = task

	o.setState(Synthesizing, KindSpeech)
	o.log.Info().
		Str("task", task.id).
		Uint64("generation", gen).
		Str("voice", voice.Model).
		Int("chars", task.chars).
		Msg("Synthesis started")

	synth := o.cfg.Synthesizer
	go func() {
		data, err := synth.Synthesize(ctx, tts.Request{Text: text, Voice: voice.Model})
		o.results <- taskResult{kind: synthesisDone, generation: gen, taskID: task.id, data: data, err: err}
	}()
	return nil
}

func (o *Orchestrator) selectFile(path string) error {
	if path == "" {
		return ErrMissingAsset
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		o.listener.Error(fmt.Sprintf("%v: %s", ErrMissingAsset, path))
		return fmt.Errorf("%w: %s", ErrMissingAsset, path)
	}

	o.selected = path
	name := audio.Asset{Path: path}.DisplayName()
	o.log.Info().Str("file", path).Msg("Media file selected")
	o.listener.FileSelected(name)
	return nil
}

func (o *Orchestrator) playMedia() error {
	if o.state != Idle {
		return ErrBusy
	}
	if o.selected == "" {
		o.listener.Error(ErrMissingAsset.Error())
		return ErrMissingAsset
	}
	if _, err := os.Stat(o.selected); err != nil {
		err = fmt.Errorf("%w: %s", ErrMissingAsset, o.selected)
		o.listener.Error(err.Error())
		return err
	}

	o.generation++
	return o.startPlayback(audio.Asset{Path: o.selected}, KindMedia)
}

// startPlayback resolves the device and launches the playback worker under
// the current generation.
func (o *Orchestrator) startPlayback(asset audio.Asset, kind Kind) error {
	device, err := o.cfg.Resolver.Find(o.cfg.DeviceName)
	if err != nil {
		if asset.Transient {
			if rmErr := os.Remove(asset.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				o.log.Error().Err(rmErr).Str("path", asset.Path).Msg("Failed to remove transient audio")
			}
		}
		o.fail(err)
		return err
	}

	gen := o.generation
	ctx, cancel := context.WithCancel(context.Background())
	task := &playbackTask{
		id:     uuid.NewString(),
		asset:  asset,
		device: device,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	o.playback = task

	o.setState(Playing, kind)
	o.log.Info().
		Str("task", task.id).
		Uint64("generation", gen).
		Str("asset", asset.DisplayName()).
		Str("device", device.Name).
		Msg("Playback started")

	if kind == KindMedia && o.cfg.Stats != nil {
		o.cfg.Stats.AddMediaPlay()
	}

	player := o.cfg.Player
	go func() {
		defer close(task.done)
		err := player.Play(ctx, asset, device)
		o.results <- taskResult{kind: playbackDone, generation: gen, taskID: task.id, err: err}
	}()
	return nil
}

func (o *Orchestrator) stop(what string) {
	task := o.playback
	if task == nil {
		o.log.Debug().Str("stop", what).Str("state", o.state.String()).Msg("Stop ignored, nothing playing")
		return
	}

	task.cancel()
	<-task.done

	o.playback = nil
	o.generation++
	o.log.Info().Str("task", task.id).Str("stop", what).Msg("Playback stopped")
	o.setState(Idle, KindNone)
}

func (o *Orchestrator) handleResult(r taskResult) {
	if r.generation != o.generation {
		o.log.Debug().
			Str("task", r.taskID).
			Uint64("generation", r.generation).
			Uint64("current", o.generation).
			Msg("Ignoring stale task result")
		return
	}

	switch r.kind {
	case synthesisDone:
		task := o.synthesis
		o.synthesis = nil
		if task != nil {
			task.cancel()
		}
		if r.err != nil {
			o.fail(fmt.Errorf("speech synthesis failed: %w", r.err))
			return
		}

		path, err := o.cfg.Files.WriteTransientAudio(r.data)
		if err != nil {
			o.fail(&audio.PlaybackError{Kind: audio.KindIO, Err: err})
			return
		}
		o.log.Info().Str("task", r.taskID).Int("bytes", len(r.data)).Msg("Synthesis finished")
		if o.cfg.Stats != nil && task != nil {
			o.cfg.Stats.AddSpeech(task.voice.Model, task.chars)
		}
		o.startPlayback(audio.Asset{Path: path, Transient: true}, KindSpeech)

	case playbackDone:
		if o.playback != nil {
			o.playback.cancel()
			o.playback = nil
		}
		if r.err != nil && !errors.Is(r.err, audio.ErrStopped) {
			o.fail(r.err)
			return
		}
		o.log.Info().Str("task", r.taskID).Msg("Playback finished")
		o.setState(Idle, KindNone)
	}
}

func (o *Orchestrator) fail(err error) {
	o.log.Error().Err(err).Str("state", o.state.String()).Msg("Operation failed")
	if o.cfg.Stats != nil {
		o.cfg.Stats.AddFailure()
	}
	o.listener.Error(err.Error())
	o.setState(Idle, KindNone)
}

func (o *Orchestrator) setState(s State, kind Kind) {
	prev := o.state
	o.state = s
	o.kind = kind

	switch {
	case s == Idle:
		o.listener.Idle()
	case prev == Idle || s == Synthesizing:
		o.listener.Busy(kind)
	}
}

func (o *Orchestrator) shutdown() {
	if o.synthesis != nil {
		o.synthesis.cancel()
		o.synthesis = nil
	}
	if o.playback != nil {
		o.playback.cancel()
		<-o.playback.done
		o.playback = nil
	}
	o.generation++
	o.state = Idle
	o.kind = KindNone
}
