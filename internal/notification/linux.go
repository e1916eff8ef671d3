package notification

import (
	"os/exec"
	"sync"

	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/godbus/dbus/v5"
)

const (
	notificationsService = "org.freedesktop.Notifications"
	notificationsPath    = "/org/freedesktop/Notifications"
	notifyMethod         = notificationsService + ".Notify"
	expireTimeoutMs      = int32(4000)
)

type linuxNotifier struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	lastID uint32
}

func newLinuxNotifier() platformNotifier {
	logger.Debug("Initializing Linux notifier")

	n := &linuxNotifier{}
	conn, err := dbus.SessionBus()
	if err != nil {
		logger.Debugf("Session bus unavailable, falling back to notify-send: %v", err)
		return n
	}
	n.conn = conn
	return n
}

// send replaces the previous notification so status updates do not pile up
func (n *linuxNotifier) send(title, message string) error {
	logger.Debugf("Sending notification: %s - %s", title, message)

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn != nil {
		obj := n.conn.Object(notificationsService, notificationsPath)
		call := obj.Call(notifyMethod, 0,
			appName, n.lastID, "audio-speakers", title, message,
			[]string{}, map[string]dbus.Variant{}, expireTimeoutMs)
		if call.Err == nil {
			var id uint32
			if err := call.Store(&id); err == nil {
				n.lastID = id
			}
			return nil
		}
		logger.Debugf("D-Bus notification failed, trying notify-send: %v", call.Err)
	}

	go func() {
		if err := exec.Command("notify-send", "-a", appName, title, message).Run(); err != nil {
			logger.Errorf("Failed to send notification: %v", err)
		}
	}()
	return nil
}
