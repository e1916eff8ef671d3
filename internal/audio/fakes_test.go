package audio

import (
	"context"
	"errors"
	"sync"
)

type fakeEnumerator struct {
	devices []Device
	err     error
}

func (f fakeEnumerator) PlaybackDevices() ([]Device, error) {
	return f.devices, f.err
}

type fakeDecoder struct {
	buf Buffer
	err error
}

func (f fakeDecoder) Decode(ctx context.Context, path string) (Buffer, error) {
	return f.buf, f.err
}

type fakeSink struct {
	mu         sync.Mutex
	rate       int
	channels   int
	writes     [][]float32
	drained    bool
	closed     bool
	writeErr   error
	afterWrite func(n int)
}

func (s *fakeSink) SampleRate() int { return s.rate }
func (s *fakeSink) Channels() int   { return s.channels }

func (s *fakeSink) Write(samples []float32) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.mu.Lock()
	s.writes = append(s.writes, samples)
	n := len(s.writes)
	s.mu.Unlock()
	if s.afterWrite != nil {
		s.afterWrite(n)
	}
	return nil
}

func (s *fakeSink) Drain() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drained = true
	return nil
}

func (s *fakeSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSink) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.writes)
}

type fakeOutput struct {
	sink    *fakeSink
	err     error
	opened  Device
	reqRate int
	reqCh   int
}

func (o *fakeOutput) Open(device Device, sampleRate, channels int) (Sink, error) {
	o.opened = device
	o.reqRate = sampleRate
	o.reqCh = channels
	if o.err != nil {
		return nil, o.err
	}
	if o.sink.rate == 0 {
		o.sink.rate = sampleRate
	}
	if o.sink.channels == 0 {
		o.sink.channels = channels
	}
	return o.sink, nil
}

var errFake = errors.New("fake failure")

// bufferOf returns a buffer holding exactly n chunks of stereo audio
func bufferOf(chunks int) Buffer {
	samples := make([]float32, chunks*ChunkFrames*2)
	for i := range samples {
		samples[i] = 0.25
	}
	return Buffer{Samples: samples, SampleRate: 44100, Channels: 2}
}
