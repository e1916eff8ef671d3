package keyboard

import (
	"fmt"
	"strings"

	"github.com/dooshek/cablespeak/internal/types"
)

// ParseBinding reads a combination such as "ctrl+alt+s". Exactly one
// non-modifier key is required.
func ParseBinding(s string) (types.KeyBinding, error) {
	var kb types.KeyBinding
	for _, part := range strings.Split(strings.ToLower(strings.TrimSpace(s)), "+") {
		part = strings.TrimSpace(part)
		switch part {
		case "ctrl", "control":
			kb.Ctrl = true
		case "shift":
			kb.Shift = true
		case "alt":
			kb.Alt = true
		case "super", "meta", "win", "cmd":
			kb.Super = true
		case "esc":
			part = "escape"
			fallthrough
		default:
			if _, ok := KeyCodes[part]; !ok {
				return types.KeyBinding{}, fmt.Errorf("unsupported key %q", part)
			}
			if kb.Key != "" {
				return types.KeyBinding{}, fmt.Errorf("more than one key in %q", s)
			}
			kb.Key = part
		}
	}
	if kb.Key == "" {
		return types.KeyBinding{}, fmt.Errorf("no key in %q", s)
	}
	return kb, nil
}

// FormatBinding prints a binding as CTRL + ALT + S
func FormatBinding(kb types.KeyBinding) string {
	var parts []string
	if kb.Ctrl {
		parts = append(parts, "CTRL")
	}
	if kb.Shift {
		parts = append(parts, "SHIFT")
	}
	if kb.Alt {
		parts = append(parts, "ALT")
	}
	if kb.Super {
		parts = append(parts, "SUPER")
	}
	if kb.Key != "" {
		parts = append(parts, strings.ToUpper(kb.Key))
	}
	return strings.Join(parts, " + ")
}
