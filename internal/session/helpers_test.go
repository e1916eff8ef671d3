package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dooshek/cablespeak/internal/audio"
	"github.com/dooshek/cablespeak/internal/tts"
	"github.com/dooshek/cablespeak/internal/voices"
)

const testTimeout = 2 * time.Second

var errFake = errors.New("fake failure")

// recorder is a Listener that keeps every notification in order
type recorder struct {
	mu     sync.Mutex
	events []string
	notify chan string
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan string, 64)}
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	r.notify <- e
}

func (r *recorder) Busy(kind Kind)        { r.add("busy:" + string(kind)) }
func (r *recorder) Idle()                 { r.add("idle") }
func (r *recorder) Error(msg string)      { r.add("error:" + msg) }
func (r *recorder) FileSelected(n string) { r.add("selected:" + n) }

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// waitFor blocks until an event with the given prefix arrives
func (r *recorder) waitFor(t *testing.T, prefix string) string {
	t.Helper()
	deadline := time.After(testTimeout)
	for {
		select {
		case e := <-r.notify:
			if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
				return e
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q; events so far: %v", prefix, r.all())
			return ""
		}
	}
}

type fakeSynth struct {
	mu      sync.Mutex
	calls   []tts.Request
	data    []byte
	err     error
	release chan struct{} // when set, Synthesize blocks until closed
	onCall  func()
}

func (s *fakeSynth) Name() string { return "fake" }

func (s *fakeSynth) Synthesize(ctx context.Context, req tts.Request) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	onCall := s.onCall
	s.mu.Unlock()
	if onCall != nil {
		onCall()
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.data, s.err
}

func (s *fakeSynth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeResolver struct {
	devices []audio.Device
}

func (r fakeResolver) Find(substr string) (audio.Device, error) {
	return audio.NewResolver(staticEnumerator(r.devices)).Find(substr)
}

type staticEnumerator []audio.Device

func (e staticEnumerator) PlaybackDevices() ([]audio.Device, error) {
	return e, nil
}

var testDevices = []audio.Device{
	{Index: 0, Name: "Speakers (Realtek High Definition Audio)"},
	{Index: 1, Name: "Headphones (USB Audio)"},
	{Index: 2, Name: "CABLE Input (VB-Audio Virtual Cable)"},
}

// blockingPlayer plays until released or cancelled
type blockingPlayer struct {
	started chan audio.Asset
	release chan struct{}
	err     error
}

func newBlockingPlayer() *blockingPlayer {
	return &blockingPlayer{started: make(chan audio.Asset, 4), release: make(chan struct{})}
}

func (p *blockingPlayer) Play(ctx context.Context, asset audio.Asset, device audio.Device) error {
	p.started <- asset
	select {
	case <-p.release:
		return p.err
	case <-ctx.Done():
		return audio.ErrStopped
	}
}

func (p *blockingPlayer) waitStarted(t *testing.T) audio.Asset {
	t.Helper()
	select {
	case a := <-p.started:
		return a
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for playback to start")
		return audio.Asset{}
	}
}

// capturePlayer hands each playback context to the test
type capturePlayer struct {
	inner Player
	ctxs  chan context.Context
}

func (p *capturePlayer) Play(ctx context.Context, asset audio.Asset, device audio.Device) error {
	p.ctxs <- ctx
	return p.inner.Play(ctx, asset, device)
}

// memDecoder returns a fixed buffer for every path
type memDecoder struct {
	buf audio.Buffer
}

func (d memDecoder) Decode(ctx context.Context, path string) (audio.Buffer, error) {
	return d.buf, nil
}

type countingSink struct {
	mu         sync.Mutex
	rate, ch   int
	writes     int
	drained    bool
	afterWrite func(n int)
}

func (s *countingSink) SampleRate() int { return s.rate }
func (s *countingSink) Channels() int   { return s.ch }

func (s *countingSink) Write(samples []float32) error {
	s.mu.Lock()
	s.writes++
	n := s.writes
	s.mu.Unlock()
	if s.afterWrite != nil {
		s.afterWrite(n)
	}
	return nil
}

func (s *countingSink) Drain() error {
	s.mu.Lock()
	s.drained = true
	s.mu.Unlock()
	return nil
}

func (s *countingSink) Close() error { return nil }

func (s *countingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

type sinkOutput struct {
	sink   *countingSink
	device chan audio.Device
}

func (o *sinkOutput) Open(device audio.Device, rate, ch int) (audio.Sink, error) {
	if o.device != nil {
		o.device <- device
	}
	o.sink.rate, o.sink.ch = rate, ch
	return o.sink, nil
}

func chunkedBuffer(chunks int) audio.Buffer {
	return audio.Buffer{
		Samples:    make([]float32, chunks*audio.ChunkFrames*2),
		SampleRate: 48000,
		Channels:   2,
	}
}

type memWriter struct {
	path string
	err  error
}

func (w memWriter) WriteTransientAudio(data []byte) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	return w.path, nil
}

type fakeStats struct {
	mu       sync.Mutex
	speech   map[string]int
	media    int
	failures int
}

func (s *fakeStats) AddSpeech(voice string, chars int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.speech == nil {
		s.speech = map[string]int{}
	}
	s.speech[voice] += chars
}

func (s *fakeStats) AddMediaPlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.media++
}

func (s *fakeStats) AddFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
}

func testCatalog(t *testing.T) *voices.Catalog {
	t.Helper()
	c, err := voices.ForProvider("deepgram", "")
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func newTestOrchestrator(t *testing.T, cfg Config) *Orchestrator {
	t.Helper()
	if cfg.Voices == nil {
		cfg.Voices = testCatalog(t)
	}
	if cfg.Resolver == nil {
		cfg.Resolver = fakeResolver{devices: testDevices}
	}
	if cfg.DeviceName == "" {
		cfg.DeviceName = "CABLE Input"
	}
	o, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

func waitState(t *testing.T, o *Orchestrator, want State) Status {
	t.Helper()
	deadline := time.Now().Add(testTimeout)
	for time.Now().Before(deadline) {
		s := o.Status()
		if s.State == want {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state never became %s (now %s)", want, o.Status().State)
	return Status{}
}

func mustEqual(t *testing.T, got, want []string) {
	t.Helper()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}
