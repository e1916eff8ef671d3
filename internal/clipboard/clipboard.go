// Package clipboard reads text from the desktop clipboard.
package clipboard

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/dooshek/cablespeak/internal/logger"
)

var ErrNoClipboardTool = errors.New("no clipboard tool found (install wl-clipboard or xclip)")

var lookPath = exec.LookPath

var runCommand = func(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// ReadText returns the current clipboard text
func ReadText() (string, error) {
	name, args, err := pasteCommand()
	if err != nil {
		return "", err
	}

	logger.Debugf("clipboard: reading with %s", name)
	out, err := runCommand(name, args...)
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard with %s: %w", name, err)
	}
	return string(out), nil
}

// pasteCommand picks the tool for the running platform and session type
func pasteCommand() (string, []string, error) {
	if runtime.GOOS == "darwin" {
		return "pbpaste", nil, nil
	}

	candidates := []struct {
		name string
		args []string
	}{
		{"xclip", []string{"-selection", "clipboard", "-o"}},
		{"wl-paste", []string{"--no-newline"}},
	}
	if !isX11() {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	for _, c := range candidates {
		if _, err := lookPath(c.name); err == nil {
			return c.name, c.args, nil
		}
	}
	return "", nil, ErrNoClipboardTool
}

// isX11 checks if the current session is running X11
func isX11() bool {
	session := os.Getenv("XDG_SESSION_TYPE")
	return strings.ToLower(session) == "x11"
}
