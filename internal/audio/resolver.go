package audio

import (
	"fmt"
	"strings"

	"github.com/dooshek/cablespeak/internal/logger"
)

// Enumerator lists the host's playback devices in backend order
type Enumerator interface {
	PlaybackDevices() ([]Device, error)
}

// Resolver picks an output device by name
type Resolver struct {
	enumerator Enumerator
}

func NewResolver(e Enumerator) *Resolver {
	return &Resolver{enumerator: e}
}

// Find returns the first device whose name contains substr.
// Matching is case-sensitive and there is no fallback device.
func (r *Resolver) Find(substr string) (Device, error) {
	devices, err := r.enumerator.PlaybackDevices()
	if err != nil {
		return Device{}, fmt.Errorf("enumerate playback devices: %w", err)
	}

	for _, d := range devices {
		if strings.Contains(d.Name, substr) {
			logger.Debugf("Resolved output device %q to %s", substr, d)
			return d, nil
		}
	}

	logger.Warnf("No output device matches %q (%d devices available)", substr, len(devices))
	return Device{}, fmt.Errorf("%w: no device name contains %q", ErrDeviceNotFound, substr)
}
