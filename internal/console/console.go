// Package console is a line-oriented shell over the session. It prints
// session notifications as they arrive and turns typed commands into
// session calls.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dooshek/cablespeak/internal/audio"
	"github.com/dooshek/cablespeak/internal/clipboard"
	"github.com/dooshek/cablespeak/internal/session"
	"github.com/dooshek/cablespeak/internal/voices"
	"github.com/fatih/color"
)

// Controller is the part of the session the shell drives
type Controller interface {
	Speak(text, voiceLabel string) error
	StopSpeaking() error
	SelectFile(path string) error
	PlayMedia() error
	StopMedia() error
	Status() session.Status
	Voices() *voices.Catalog
}

// DeviceLister enumerates output devices for the devices command
type DeviceLister interface {
	PlaybackDevices() ([]audio.Device, error)
}

var userHomeDir = os.UserHomeDir

var (
	bold   = color.New(color.Bold)
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

// Shell reads commands from in and writes to out. Output from the command
// loop and from session notifications is serialized.
type Shell struct {
	in  io.Reader
	out io.Writer

	readClipboard func() (string, error)

	mu      sync.Mutex
	ctrl    Controller
	devices DeviceLister
	voice   string
}

func New(in io.Reader, out io.Writer) *Shell {
	return &Shell{in: in, out: out, readClipboard: clipboard.ReadText}
}

// Attach sets the session and device lister; devices may be nil.
func (s *Shell) Attach(ctrl Controller, devices DeviceLister) {
	s.ctrl = ctrl
	s.devices = devices
}

// SetVoice picks the voice used by speak. An empty label means the default.
func (s *Shell) SetVoice(label string) {
	s.mu.Lock()
	s.voice = label
	s.mu.Unlock()
}

// Run processes commands until quit or ctx cancellation (both return nil)
// or end of input (io.EOF).
func (s *Shell) Run(ctx context.Context) error {
	if s.ctrl == nil {
		return errors.New("no controller attached")
	}

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
		close(lines)
	}()

	s.printf(bold, "CableSpeak ready. Type 'help' for commands.\n")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return err
				}
				return io.EOF
			}
			if quit := s.Execute(line); quit {
				return nil
			}
		}
	}
}

// Execute runs one command line and reports whether the shell should exit
func (s *Shell) Execute(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "speak", "say":
		s.report(s.ctrl.Speak(arg, s.currentVoice()))
	case "speakclip", "paste":
		s.speakClipboard()
	case "voice":
		s.selectVoice(arg)
	case "voices":
		s.listVoices()
	case "devices":
		s.listDevices()
	case "select", "open":
		s.report(s.ctrl.SelectFile(expandHome(arg)))
	case "play":
		s.report(s.ctrl.PlayMedia())
	case "stop":
		s.report(s.ctrl.StopSpeaking())
	case "stopmedia":
		s.report(s.ctrl.StopMedia())
	case "status":
		s.printStatus()
	case "help", "?":
		s.printHelp()
	case "quit", "exit":
		return true
	default:
		s.printf(yellow, "Unknown command %q, type 'help'\n", cmd)
	}
	return false
}

func (s *Shell) currentVoice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

func (s *Shell) speakClipboard() {
	text, err := s.readClipboard()
	if err != nil {
		s.report(err)
		return
	}
	s.report(s.ctrl.Speak(text, s.currentVoice()))
}

func (s *Shell) selectVoice(ref string) {
	if ref == "" {
		s.printf(yellow, "Usage: voice <label|number>\n")
		return
	}
	v, err := s.ctrl.Voices().Resolve(ref)
	if err != nil {
		s.report(err)
		return
	}
	s.SetVoice(v.Label)
	s.printf(green, "Voice: %s\n", v.Label)
}

func (s *Shell) listVoices() {
	catalog := s.ctrl.Voices()
	current := s.currentVoice()
	if current == "" {
		current = catalog.Default().Label
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, label := range catalog.Labels() {
		marker := " "
		if label == current {
			marker = "*"
		}
		fmt.Fprintf(s.out, "%s %2d. %s\n", marker, i+1, label)
	}
}

func (s *Shell) listDevices() {
	if s.devices == nil {
		s.printf(yellow, "Device enumeration is not available\n")
		return
	}
	devices, err := s.devices.PlaybackDevices()
	if err != nil {
		s.report(err)
		return
	}
	if len(devices) == 0 {
		s.printf(yellow, "No playback devices found\n")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range devices {
		fmt.Fprintf(s.out, "  %s\n", d)
	}
}

func (s *Shell) printStatus() {
	st := s.ctrl.Status()
	en := st.Enablement()

	file := st.SelectedFile
	if file == "" {
		file = "(none)"
	}
	state := st.State.String()
	if st.Kind != session.KindNone {
		state += " (" + string(st.Kind) + ")"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cyan.Fprintf(s.out, "State: %s\n", state)
	fmt.Fprintf(s.out, "File:  %s\n", file)
	fmt.Fprintf(s.out, "Available: %s\n", strings.Join(available(en), ", "))
}

func available(en session.Enablement) []string {
	var out []string
	if en.Speak {
		out = append(out, "speak")
	}
	if en.StopSpeaking {
		out = append(out, "stop")
	}
	if en.PlayMedia {
		out = append(out, "play")
	}
	if en.StopMedia {
		out = append(out, "stopmedia")
	}
	if len(out) == 0 {
		out = append(out, "none")
	}
	return out
}

func (s *Shell) printHelp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	bold.Fprintln(s.out, "Commands:")
	fmt.Fprint(s.out, `  speak <text>        synthesize text and play it
  speakclip           speak the clipboard contents
  voice <label|n>     choose the voice for speak
  voices              list voices (* marks the current one)
  devices             list playback devices
  select <path>       choose a media file (mp3, mp4, ...)
  play                play the selected media file
  stop                stop playback
  stopmedia           stop playback
  status              show state and available actions
  quit                exit
`)
}

func (s *Shell) report(err error) {
	if err == nil {
		return
	}
	s.printf(red, "❌ %v\n", err)
}

func (s *Shell) printf(c *color.Color, format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Fprintf(s.out, format, args...)
}

func (s *Shell) Busy(kind session.Kind) {
	if kind == session.KindMedia {
		s.printf(cyan, "▶️  Playing media...\n")
		return
	}
	s.printf(cyan, "⏳ Generating speech...\n")
}

func (s *Shell) Idle() {
	s.printf(green, "✅ Ready\n")
}

func (s *Shell) Error(message string) {
	s.printf(red, "❌ %s\n", message)
}

func (s *Shell) FileSelected(displayName string) {
	s.printf(green, "📁 Selected: %s\n", displayName)
}

func expandHome(path string) string {
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := userHomeDir(); err == nil {
			return filepath.Join(home, rest)
		}
	}
	return path
}
