package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/rs/zerolog"
)

// Sink is an open output stream on a device
type Sink interface {
	SampleRate() int
	Channels() int
	// Write blocks until the device has room for the samples.
	Write(samples []float32) error
	// Drain waits for queued samples to be played.
	Drain() error
	Close() error
}

// Output opens sinks on devices
type Output interface {
	Open(device Device, sampleRate, channels int) (Sink, error)
}

// Progress is reported after every chunk written
type Progress struct {
	Chunk int
	Total int
	Level float64
}

// Engine streams decoded assets to an output device
type Engine struct {
	decoder  Decoder
	output   Output
	observer func(Progress)
	log      zerolog.Logger
}

type EngineOption func(*Engine)

// WithObserver registers a callback receiving per-chunk progress.
// It runs on the playback goroutine and must not block.
func WithObserver(fn func(Progress)) EngineOption {
	return func(e *Engine) {
		e.observer = fn
	}
}

func NewEngine(decoder Decoder, output Output, opts ...EngineOption) *Engine {
	e := &Engine{
		decoder: decoder,
		output:  output,
		log:     logger.With("playback"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Play decodes asset and streams it to device until done or ctx is cancelled.
// A cancelled playback returns ErrStopped. Transient assets are removed
// whatever the outcome.
func (e *Engine) Play(ctx context.Context, asset Asset, device Device) (err error) {
	defer func() {
		if !asset.Transient {
			return
		}
		if rmErr := os.Remove(asset.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			e.log.Error().Err(rmErr).Str("path", asset.Path).Msg("Failed to remove transient audio")
			if err == nil || errors.Is(err, ErrStopped) {
				err = &PlaybackError{Kind: KindIO, Err: rmErr}
			}
			return
		}
		e.log.Debug().Str("path", asset.Path).Msg("Removed transient audio")
	}()

	buf, err := e.decoder.Decode(ctx, asset.Path)
	if err != nil {
		if ctx.Err() != nil {
			return ErrStopped
		}
		return &PlaybackError{Kind: KindDecode, Err: err}
	}
	if buf.Channels <= 0 || buf.SampleRate <= 0 {
		return &PlaybackError{Kind: KindDecode, Err: fmt.Errorf("invalid format: %d channels at %d Hz", buf.Channels, buf.SampleRate)}
	}

	sink, err := e.output.Open(device, buf.SampleRate, buf.Channels)
	if err != nil {
		return &PlaybackError{Kind: KindDevice, Err: err}
	}
	if sink.SampleRate() != buf.SampleRate || sink.Channels() != buf.Channels {
		sink.Close()
		return &PlaybackError{Kind: KindFormatMismatch, Err: fmt.Errorf(
			"asset is %d Hz/%d ch, device opened at %d Hz/%d ch",
			buf.SampleRate, buf.Channels, sink.SampleRate(), sink.Channels())}
	}

	chunkLen := ChunkFrames * buf.Channels
	total := (len(buf.Samples) + chunkLen - 1) / chunkLen
	meter := NewLevelMeter()
	start := time.Now()

	e.log.Info().
		Str("asset", asset.DisplayName()).
		Str("device", device.Name).
		Int("sample_rate", buf.SampleRate).
		Int("channels", buf.Channels).
		Int("chunks", total).
		Msg("Playback started")

	for i := 0; i < total; i++ {
		if ctx.Err() != nil {
			sink.Close()
			e.log.Info().Int("chunk", i).Int("chunks", total).Msg("Playback stopped")
			return ErrStopped
		}

		end := min((i+1)*chunkLen, len(buf.Samples))
		chunk := buf.Samples[i*chunkLen : end]
		if err := sink.Write(chunk); err != nil {
			sink.Close()
			return &PlaybackError{Kind: KindDevice, Err: fmt.Errorf("write chunk %d: %w", i+1, err)}
		}

		level := meter.Process(chunk)
		if e.observer != nil {
			e.observer(Progress{Chunk: i + 1, Total: total, Level: level})
		}
	}

	if err := sink.Drain(); err != nil {
		sink.Close()
		return &PlaybackError{Kind: KindDevice, Err: fmt.Errorf("drain: %w", err)}
	}
	if err := sink.Close(); err != nil {
		return &PlaybackError{Kind: KindDevice, Err: err}
	}

	e.log.Info().Dur("elapsed", time.Since(start)).Int("chunks", total).Msg("Playback finished")
	return nil
}
