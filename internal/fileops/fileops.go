package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/dooshek/cablespeak/internal/logger"
)

// ErrConfigNotFound is returned when a configuration file does not exist
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrProcessAlreadyRunning is returned when the cablespeak process is already running
var ErrProcessAlreadyRunning = errors.New("cablespeak process is already running")

const (
	transientAudioName = "temp_audio.mp3"
	statsFilename      = "stats.json"
	pidFilename        = "cablespeak.pid"
)

// FileOps interface defines operations for managing files in the cablespeak config directory
type FileOps interface {
	// GetConfigDir returns the full path to the cablespeak config directory
	GetConfigDir() string

	// GetTempDir returns the directory holding transient synthesis output
	GetTempDir() string

	// TransientAudioPath is the one well-known location synthesis output is written to
	TransientAudioPath() string

	// WriteTransientAudio overwrites the transient audio file and returns its path
	WriteTransientAudio(data []byte) (string, error)

	// GetStatsPath returns the usage statistics file
	GetStatsPath() string

	// SaveConfig saves data to a file in the config directory
	SaveConfig(filename string, data []byte) error

	// LoadConfig loads data from a file in the config directory
	LoadConfig(filename string) ([]byte, error)

	// EnsureDirectories creates necessary directories if they don't exist
	EnsureDirectories() error

	// SavePID saves the current process ID to a file
	SavePID() error

	// CheckPID checks if another instance is running
	// Returns ErrProcessAlreadyRunning if another instance is running
	CheckPID() error

	// CleanupPID removes the PID file
	CleanupPID() error

	// HandleExit ensures proper cleanup of PID file on application exit
	HandleExit()
}

// DefaultFileOps implements FileOps interface
type DefaultFileOps struct {
	configDir string
}

// NewDefaultFileOps creates a new DefaultFileOps instance rooted at ~/.config/cablespeak
func NewDefaultFileOps() (*DefaultFileOps, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewFileOps(filepath.Join(homeDir, ".config", "cablespeak")), nil
}

// NewFileOps creates a DefaultFileOps rooted at an arbitrary directory
func NewFileOps(configDir string) *DefaultFileOps {
	return &DefaultFileOps{configDir: configDir}
}

func (f *DefaultFileOps) GetConfigDir() string {
	return f.configDir
}

func (f *DefaultFileOps) GetTempDir() string {
	return filepath.Join(f.configDir, "tmp")
}

func (f *DefaultFileOps) TransientAudioPath() string {
	return filepath.Join(f.GetTempDir(), transientAudioName)
}

func (f *DefaultFileOps) WriteTransientAudio(data []byte) (string, error) {
	if err := os.MkdirAll(f.GetTempDir(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	path := f.TransientAudioPath()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write transient audio: %w", err)
	}
	return path, nil
}

func (f *DefaultFileOps) GetStatsPath() string {
	return filepath.Join(f.configDir, statsFilename)
}

func (f *DefaultFileOps) SaveConfig(filename string, data []byte) error {
	path := filepath.Join(f.configDir, filename)
	// the file may hold API keys
	return os.WriteFile(path, data, 0o600)
}

func (f *DefaultFileOps) LoadConfig(filename string) ([]byte, error) {
	path := filepath.Join(f.configDir, filename)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, ErrConfigNotFound
	}
	return os.ReadFile(path)
}

func (f *DefaultFileOps) EnsureDirectories() error {
	dirs := []string{
		f.configDir,
		f.GetTempDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func (f *DefaultFileOps) getPIDFilePath() string {
	return filepath.Join(f.configDir, pidFilename)
}

func (f *DefaultFileOps) SavePID() error {
	pidFile := f.getPIDFilePath()
	pid := os.Getpid()
	return os.WriteFile(pidFile, []byte(strconv.Itoa(pid)), 0o644)
}

func (f *DefaultFileOps) CheckPID() error {
	pidFile := f.getPIDFilePath()

	data, err := os.ReadFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // PID file doesn't exist, application is not running
		}
		return fmt.Errorf("error reading PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("invalid PID in file: %w", err)
	}

	if pid == os.Getpid() {
		return nil
	}

	// Check if process exists by sending signal 0
	process, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}

	err = process.Signal(syscall.Signal(0))
	if err == nil {
		return ErrProcessAlreadyRunning
	}

	logger.Debug("Found stale PID file, will be overwritten")
	return nil
}

func (f *DefaultFileOps) CleanupPID() error {
	return os.Remove(f.getPIDFilePath())
}

func (f *DefaultFileOps) HandleExit() {
	if err := f.CleanupPID(); err != nil && !os.IsNotExist(err) {
		logger.Error("Failed to cleanup PID file on exit", err)
	}
	// a transient asset left behind by a killed playback is never reused
	if err := os.Remove(f.TransientAudioPath()); err != nil && !os.IsNotExist(err) {
		logger.Error("Failed to remove transient audio on exit", err)
	}
}
