// Package device exposes miniaudio playback devices to the audio engine.
package device

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dooshek/cablespeak/internal/audio"
	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/gen2brain/malgo"
)

// queueDepth bounds buffered chunks so Write blocks with the device
const queueDepth = 2

// devicePeriods is the number of periods in the device ring buffer
const devicePeriods = 3

var errSinkClosed = errors.New("sink closed")

// Backend owns a miniaudio context and implements audio.Enumerator and
// audio.Output.
type Backend struct {
	ctx *malgo.AllocatedContext
}

func NewBackend() (*Backend, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debugf("miniaudio: %s", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}
	return &Backend{ctx: ctx}, nil
}

func (b *Backend) Close() error {
	if b.ctx == nil {
		return nil
	}
	err := b.ctx.Uninit()
	b.ctx.Free()
	b.ctx = nil
	return err
}

// PlaybackDevices lists output devices in miniaudio enumeration order
func (b *Backend) PlaybackDevices() ([]audio.Device, error) {
	infos, err := b.ctx.Devices(malgo.Playback)
	if err != nil {
		return nil, err
	}

	devices := make([]audio.Device, 0, len(infos))
	for i := range infos {
		devices = append(devices, audio.Device{
			Index: i,
			Name:  infos[i].Name(),
			ID:    infos[i].ID,
		})
	}
	return devices, nil
}

// Open starts a float32 playback stream on device
func (b *Backend) Open(device audio.Device, sampleRate, channels int) (audio.Sink, error) {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatF32
	cfg.Playback.Channels = uint32(channels)
	cfg.SampleRate = uint32(sampleRate)
	cfg.Periods = devicePeriods
	cfg.Alsa.NoMMap = 1

	s := &sink{
		chunks:   make(chan []byte, queueDepth),
		closed:   make(chan struct{}),
		channels: channels,
		rate:     sampleRate,
	}

	if id, ok := device.ID.(malgo.DeviceID); ok {
		s.id = id
		cfg.Playback.DeviceID = s.id.Pointer()
	}

	dev, err := malgo.InitDevice(b.ctx.Context, cfg, malgo.DeviceCallbacks{
		Data: s.onData,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", device.Name, err)
	}
	s.dev = dev

	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("start %s: %w", device.Name, err)
	}

	logger.Debugf("Opened %s at %d Hz, %d channels", device, dev.SampleRate(), dev.PlaybackChannels())
	return s, nil
}

type sink struct {
	dev      *malgo.Device
	id       malgo.DeviceID
	channels int
	rate     int

	chunks  chan []byte
	closed  chan struct{}
	once    sync.Once
	pending sync.WaitGroup

	// frames requested by the last callback
	periodFrames atomic.Uint32

	// owned by the audio callback
	current []byte
}

func (s *sink) SampleRate() int {
	return int(s.dev.SampleRate())
}

func (s *sink) Channels() int {
	return int(s.dev.PlaybackChannels())
}

func (s *sink) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	data := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}

	s.pending.Add(1)
	select {
	case s.chunks <- data:
		return nil
	case <-s.closed:
		s.pending.Done()
		return errSinkClosed
	}
}

func (s *sink) Drain() error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()

	// device latency plus the queued chunks, generously
	select {
	case <-done:
	case <-s.closed:
		return errSinkClosed
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timed out draining playback queue")
	}

	// the last chunk has only been copied into the device buffer
	select {
	case <-time.After(tailDelay(s.periodFrames.Load(), s.rate)):
		return nil
	case <-s.closed:
		return errSinkClosed
	}
}

// tailDelay is how long a full device buffer takes to play out
func tailDelay(periodFrames uint32, rate int) time.Duration {
	if periodFrames == 0 || rate <= 0 {
		return 0
	}
	return time.Duration(devicePeriods) * time.Duration(periodFrames) * time.Second / time.Duration(rate)
}

func (s *sink) Close() error {
	s.once.Do(func() {
		close(s.closed)
		if err := s.dev.Stop(); err != nil {
			logger.Warnf("Failed to stop playback device: %v", err)
		}
		s.dev.Uninit()
	})
	return nil
}

// onData fills the device buffer from queued chunks, padding with silence
func (s *sink) onData(out, _ []byte, frames uint32) {
	s.periodFrames.Store(frames)
	written := 0
	for written < len(out) {
		if len(s.current) == 0 {
			select {
			case c := <-s.chunks:
				s.current = c
			default:
				clear(out[written:])
				return
			}
		}

		n := copy(out[written:], s.current)
		written += n
		s.current = s.current[n:]
		if len(s.current) == 0 {
			s.pending.Done()
		}
	}
}
