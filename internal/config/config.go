package config

import (
	"fmt"

	"github.com/dooshek/cablespeak/internal/fileops"
	"github.com/dooshek/cablespeak/internal/logger"
	"github.com/dooshek/cablespeak/internal/types"
	"gopkg.in/yaml.v3"
)

const (
	configFilename = "cablespeak.yaml"
)

// LoadConfig reads ~/.config/cablespeak/cablespeak.yaml.
// A missing file yields (nil, nil) so the caller can start the wizard.
func LoadConfig() (*types.Config, error) {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return LoadConfigFrom(fileOps)
}

// LoadConfigFrom reads the config file through the given FileOps
func LoadConfigFrom(fileOps fileops.FileOps) (*types.Config, error) {
	if err := fileOps.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := fileOps.LoadConfig(configFilename)
	if err != nil {
		if err == fileops.ErrConfigNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config types.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

func SaveConfig(config *types.Config) error {
	fileOps, err := fileops.NewDefaultFileOps()
	if err != nil {
		return fmt.Errorf("failed to initialize file operations: %w", err)
	}
	return SaveConfigTo(fileOps, config)
}

// SaveConfigTo merges config into the existing file (if any) and writes it back
func SaveConfigTo(fileOps fileops.FileOps, config *types.Config) error {
	existingConfig, err := LoadConfigFrom(fileOps)
	if err != nil {
		logger.Warnf("Failed to load existing config: %v", err)
	} else if existingConfig != nil {
		mergeConfigs(existingConfig, config)
		config = existingConfig
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fileOps.SaveConfig(configFilename, data); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// mergeConfigs merges the sourceConfig into targetConfig, preserving existing values in targetConfig
// that are not explicitly set in sourceConfig
func mergeConfigs(targetConfig, sourceConfig *types.Config) {
	if sourceConfig.Keys.DeepgramKey != "" {
		targetConfig.Keys.DeepgramKey = sourceConfig.Keys.DeepgramKey
	}
	if sourceConfig.Keys.OpenAIKey != "" {
		targetConfig.Keys.OpenAIKey = sourceConfig.Keys.OpenAIKey
	}

	if sourceConfig.TTS.Provider != "" {
		targetConfig.TTS.Provider = sourceConfig.TTS.Provider
	}
	if sourceConfig.TTS.Voice != "" {
		targetConfig.TTS.Voice = sourceConfig.TTS.Voice
	}
	if sourceConfig.TTS.BaseURL != "" {
		targetConfig.TTS.BaseURL = sourceConfig.TTS.BaseURL
	}
	if sourceConfig.TTS.TimeoutSeconds != 0 {
		targetConfig.TTS.TimeoutSeconds = sourceConfig.TTS.TimeoutSeconds
	}
	if sourceConfig.TTS.OpenAI.Model != "" {
		targetConfig.TTS.OpenAI.Model = sourceConfig.TTS.OpenAI.Model
	}
	if sourceConfig.TTS.OpenAI.Speed != 0 {
		targetConfig.TTS.OpenAI.Speed = sourceConfig.TTS.OpenAI.Speed
	}
	if sourceConfig.TTS.OpenAI.Format != "" {
		targetConfig.TTS.OpenAI.Format = sourceConfig.TTS.OpenAI.Format
	}

	if sourceConfig.Audio.Device != "" {
		targetConfig.Audio.Device = sourceConfig.Audio.Device
	}

	if sourceConfig.Hotkey.Stop.Key != "" {
		targetConfig.Hotkey.Stop = sourceConfig.Hotkey.Stop
	}

	// a bool cannot say "unset", so the wizard's choice always wins
	targetConfig.DBus.Enabled = sourceConfig.DBus.Enabled
	targetConfig.Hotkey.Enabled = sourceConfig.Hotkey.Enabled
}
