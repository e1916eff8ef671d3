package notification

import (
	"fmt"
	"runtime"

	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/session"
)

const appName = "CableSpeak"

// Notifier shows desktop notifications for session events. It implements
// session.Listener.
type Notifier interface {
	session.Listener
	Notify(title, message string) error
}

// SilentNotifier is a no-op implementation for console-only and daemon mode
type SilentNotifier struct {
	session.NopListener
}

func NewSilent() Notifier {
	return &SilentNotifier{}
}

func (s *SilentNotifier) Notify(title, message string) error { return nil }

type baseNotifier struct {
	platform platformNotifier
}

type platformNotifier interface {
	send(title, message string) error
}

// New creates a new platform-specific notification service
func New() Notifier {
	logger.Debug("Initializing notification system")
	var platform platformNotifier
	switch runtime.GOOS {
	case "darwin":
		logger.Debug("Using Darwin (macOS) notifier")
		platform = newDarwinNotifier()
	default:
		logger.Debug("Using Linux notifier")
		platform = newLinuxNotifier()
	}
	return &baseNotifier{platform: platform}
}

func (n *baseNotifier) Notify(title, message string) error {
	return n.platform.send(title, message)
}

func (n *baseNotifier) Busy(kind session.Kind) {
	n.notify(appName, busyMessage(kind))
}

// Idle is not announced; the end of playback is audible anyway.
func (n *baseNotifier) Idle() {}

func (n *baseNotifier) Error(message string) {
	n.notify(appName+" error", message)
}

func (n *baseNotifier) FileSelected(displayName string) {
	n.notify(appName, formatSelectedMessage(displayName))
}

func (n *baseNotifier) notify(title, message string) {
	if err := n.Notify(title, message); err != nil {
		logger.Warnf("Failed to send notification: %v", err)
	}
}

func busyMessage(kind session.Kind) string {
	switch kind {
	case session.KindSpeech:
		return "Generating speech..."
	case session.KindMedia:
		return "Playing media..."
	default:
		return "Working..."
	}
}

func formatSelectedMessage(name string) string {
	return fmt.Sprintf("Selected: %s", name)
}
