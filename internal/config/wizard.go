package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dooshek/cablespeak/internal/audio"
	"github.com/dooshek/cablespeak/internal/keyboard"
	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/secret"
	"github.com/dooshek/cablespeak/internal/types"
	"github.com/dooshek/cablespeak/internal/voices"
	"github.com/fatih/color"
)

// DeviceLister lets the wizard offer the devices it can see
type DeviceLister interface {
	PlaybackDevices() ([]audio.Device, error)
}

// RunWizard asks for the provider, credential, output device and voice and
// saves the answers. devices may be nil when no audio backend is available.
func RunWizard(devices DeviceLister) error {
	return runWizard(os.Stdin, os.Stdout, devices, SaveConfig)
}

type wizard struct {
	in      *bufio.Reader
	out     io.Writer
	devices DeviceLister
}

var (
	bold   = color.New(color.Bold)
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
)

func runWizard(in io.Reader, out io.Writer, devices DeviceLister, save func(*types.Config) error) error {
	w := &wizard{in: bufio.NewReader(in), out: out, devices: devices}

	bold.Fprintln(out, "\n🔊 Welcome to the CableSpeak configuration wizard!")
	fmt.Fprintln(out, "\nThis wizard sets up speech synthesis and the output device.")

	for {
		config, err := w.ask()
		if err != nil {
			logger.Error("Failed to read input", err)
			return err
		}

		yellow.Fprintln(out, "\nSummary:")
		fmt.Fprintf(out, "  Provider: %s\n", config.TTS.Provider)
		fmt.Fprintf(out, "  API key:  %s\n", maskKey(config))
		fmt.Fprintf(out, "  Device:   %s\n", config.Audio.Device)
		fmt.Fprintf(out, "  Voice:    %s\n", config.TTS.Voice)
		fmt.Fprintf(out, "  D-Bus:    %t\n", config.DBus.Enabled)
		if config.Hotkey.Enabled {
			fmt.Fprintf(out, "  Hotkey:   %s\n", keyboard.FormatBinding(config.Hotkey.Stop))
		} else {
			fmt.Fprintln(out, "  Hotkey:   off")
		}

		ok, err := w.confirm("\nSave this configuration? [Y/n]: ", true)
		if err != nil {
			logger.Error("Failed to read input", err)
			return err
		}
		if !ok {
			fmt.Fprintln(out, "\nOK, let's try again.")
			continue
		}

		if err := save(config); err != nil {
			logger.Error("Failed to save config", err)
			return err
		}

		green.Fprintln(out, "\n✅ Configuration saved successfully!")
		if maskKey(config) == "(from environment)" {
			fmt.Fprintf(out, "Remember to export %s or put it in a .env file.\n", secret.KeyForProvider(config.TTS.Provider))
		}
		return nil
	}
}

func (w *wizard) ask() (*types.Config, error) {
	config := &types.Config{}

	cyan.Fprintln(w.out, "\nWhich speech provider do you want to use?")
	fmt.Fprintln(w.out, "  1. Deepgram (default)")
	fmt.Fprintln(w.out, "  2. OpenAI")
	choice, err := w.prompt("Provider [1]: ")
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(choice) {
	case "2", "openai":
		config.TTS.Provider = string(types.ProviderOpenAI)
	default:
		config.TTS.Provider = string(types.ProviderDeepgram)
	}

	cyan.Fprintf(w.out, "\nEnter your API key (leave empty to use %s from the environment or .env):\n", secret.KeyForProvider(config.TTS.Provider))
	key, err := w.prompt("API key: ")
	if err != nil {
		return nil, err
	}
	if config.TTS.Provider == string(types.ProviderOpenAI) {
		config.Keys.OpenAIKey = key
	} else {
		config.Keys.DeepgramKey = key
	}

	device, err := w.askDevice()
	if err != nil {
		return nil, err
	}
	config.Audio.Device = device

	voice, err := w.askVoice(config.TTS.Provider)
	if err != nil {
		return nil, err
	}
	config.TTS.Voice = voice

	config.DBus.Enabled, err = w.confirm("\nEnable the D-Bus control service? [y/N]: ", false)
	if err != nil {
		return nil, err
	}

	config.Hotkey.Enabled, err = w.confirm("\nEnable a global stop hotkey (reads /dev/input)? [y/N]: ", false)
	if err != nil {
		return nil, err
	}
	if config.Hotkey.Enabled {
		if config.Hotkey.Stop, err = w.askHotkey(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (w *wizard) askDevice() (string, error) {
	var list []audio.Device
	if w.devices != nil {
		var err error
		list, err = w.devices.PlaybackDevices()
		if err != nil {
			logger.Warnf("Could not list playback devices: %v", err)
		}
	}

	cyan.Fprintln(w.out, "\nWhich output device should audio go to?")
	if len(list) > 0 {
		for i, d := range list {
			fmt.Fprintf(w.out, "  %d. %s\n", i+1, d.Name)
		}
		fmt.Fprintln(w.out, "Pick a number or type part of the device name.")
	} else {
		fmt.Fprintln(w.out, "Type part of the device name (case-sensitive).")
	}

	answer, err := w.prompt(fmt.Sprintf("Device [%s]: ", types.DefaultDeviceSubstr))
	if err != nil {
		return "", err
	}
	if answer == "" {
		return types.DefaultDeviceSubstr, nil
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(list) {
		return list[n-1].Name, nil
	}
	return answer, nil
}

func (w *wizard) askVoice(provider string) (string, error) {
	catalog, err := voices.ForProvider(provider, "")
	if err != nil {
		return "", err
	}

	cyan.Fprintln(w.out, "\nWhich voice should be the default?")
	for i, label := range catalog.Labels() {
		fmt.Fprintf(w.out, "  %2d. %s\n", i+1, label)
	}

	for {
		answer, err := w.prompt(fmt.Sprintf("Voice [%s]: ", catalog.Default().Label))
		if err != nil {
			return "", err
		}
		if answer == "" {
			return catalog.Default().Label, nil
		}
		v, err := catalog.Resolve(answer)
		if err == nil {
			return v.Label, nil
		}
		yellow.Fprintf(w.out, "No voice matches %q, try again.\n", answer)
	}
}

func (w *wizard) askHotkey() (types.KeyBinding, error) {
	fmt.Fprintln(w.out, "Use combinations like ctrl+alt+s, super+space or f9.")
	for {
		answer, err := w.prompt("Hotkey [ctrl+alt+s]: ")
		if err != nil {
			return types.KeyBinding{}, err
		}
		if answer == "" {
			return types.DefaultStopKey, nil
		}
		kb, err := keyboard.ParseBinding(answer)
		if err == nil {
			return kb, nil
		}
		yellow.Fprintf(w.out, "%v, try again.\n", err)
	}
}

func (w *wizard) prompt(label string) (string, error) {
	fmt.Fprint(w.out, label)
	line, err := w.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return sanitize(line), nil
}

func (w *wizard) confirm(label string, def bool) (bool, error) {
	response, err := w.prompt(label)
	if err != nil {
		return false, err
	}
	response = strings.ToLower(response)
	if response == "" {
		return def, nil
	}
	return response == "y" || response == "yes", nil
}

// sanitize trims the line and drops control characters left by terminals
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
}

func maskKey(config *types.Config) string {
	key := config.Keys.DeepgramKey
	if config.TTS.Provider == string(types.ProviderOpenAI) {
		key = config.Keys.OpenAIKey
	}
	if key == "" {
		return "(from environment)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
