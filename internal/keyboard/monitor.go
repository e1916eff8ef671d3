// Package keyboard watches evdev keyboards for a global shortcut.
package keyboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/MarinX/keylogger"
	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/types"
)

const debounceThreshold = 500 * time.Millisecond

var ErrNoKeyboard = errors.New("no keyboard devices found")

// ModifierState tracks the state of modifier keys (Ctrl, Shift, Alt, Super)
type ModifierState struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Super bool
}

// matcher turns a stream of key events into shortcut activations
type matcher struct {
	binding   types.KeyBinding
	target    uint16
	modifiers ModifierState
	last      time.Time
}

func newMatcher(binding types.KeyBinding) (*matcher, error) {
	code, ok := KeyCodes[strings.ToLower(binding.Key)]
	if !ok {
		return nil, fmt.Errorf("unsupported key %q", binding.Key)
	}
	return &matcher{binding: binding, target: code}, nil
}

// handle reports whether the event completes the shortcut
func (m *matcher) handle(code uint16, pressed bool, now time.Time) bool {
	switch code {
	case LeftControl, RightControl:
		m.modifiers.Ctrl = pressed
	case LeftShift, RightShift:
		m.modifiers.Shift = pressed
	case LeftAlt, RightAlt:
		m.modifiers.Alt = pressed
	case LeftSuper, RightSuper:
		m.modifiers.Super = pressed
	default:
		if !pressed || code != m.target || !m.modifiersMatch() {
			return false
		}
		if !m.last.IsZero() && now.Sub(m.last) <= debounceThreshold {
			logger.Debugf("Ignoring shortcut - %d ms after the previous one", now.Sub(m.last).Milliseconds())
			return false
		}
		m.last = now
		return true
	}
	return false
}

func (m *matcher) modifiersMatch() bool {
	return m.modifiers.Ctrl == m.binding.Ctrl &&
		m.modifiers.Shift == m.binding.Shift &&
		m.modifiers.Alt == m.binding.Alt &&
		m.modifiers.Super == m.binding.Super
}

// Monitor calls action whenever the binding is pressed on any keyboard
type Monitor struct {
	binding types.KeyBinding
	action  func()

	mu      sync.Mutex
	loggers []*keylogger.KeyLogger
}

func NewMonitor(binding types.KeyBinding, action func()) (*Monitor, error) {
	if _, err := newMatcher(binding); err != nil {
		return nil, err
	}
	return &Monitor{binding: binding, action: action}, nil
}

// Start opens every keyboard device and blocks until ctx is done
func (m *Monitor) Start(ctx context.Context) error {
	devices := keylogger.FindAllKeyboardDevices()
	if len(devices) == 0 {
		return ErrNoKeyboard
	}

	var wg sync.WaitGroup
	opened := 0
	for _, dev := range devices {
		kbd, err := keylogger.New(dev)
		if err != nil {
			if strings.Contains(err.Error(), "permission denied") {
				logger.Warnf("Cannot access keyboard device %s. Add yourself to the input group: sudo usermod -aG input $USER, then log in again.", dev)
			} else {
				logger.Debugf("Skipping keyboard %s: %v", dev, err)
			}
			continue
		}

		m.mu.Lock()
		m.loggers = append(m.loggers, kbd)
		m.mu.Unlock()
		opened++

		match, _ := newMatcher(m.binding)
		wg.Add(1)
		go func(dev string, kbd *keylogger.KeyLogger) {
			defer wg.Done()
			m.watch(ctx, dev, kbd, match)
		}(dev, kbd)
	}

	if opened == 0 {
		return fmt.Errorf("error initializing keylogger: none of %d keyboards could be opened", len(devices))
	}

	logger.Infof("⌨️  Press %s to stop playback", FormatBinding(m.binding))
	<-ctx.Done()
	m.Stop()
	wg.Wait()
	return nil
}

func (m *Monitor) watch(ctx context.Context, dev string, kbd *keylogger.KeyLogger, match *matcher) {
	events := kbd.Read()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				logger.Debugf("Keyboard %s closed", dev)
				return
			}
			if e.Type != keylogger.EvKey {
				continue
			}
			var pressed bool
			switch {
			case e.KeyPress():
				pressed = true
			case e.KeyRelease():
				pressed = false
			default:
				continue
			}
			if match.handle(uint16(e.Code), pressed, time.Now()) {
				logger.Debugf("Shortcut %s detected on %s", FormatBinding(m.binding), dev)
				m.action()
			}
		}
	}
}

// Stop closes the keyboard devices; it is safe to call more than once
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kbd := range m.loggers {
		kbd.Close()
	}
	m.loggers = nil
}
