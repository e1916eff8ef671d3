package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dooshek/cablespeak/internal/logger"
)

// VoiceStats holds statistics for a specific voice
type VoiceStats struct {
	SpeechCount int `json:"speech_count"`
	Characters  int `json:"characters"`
}

// Stats holds all usage statistics
type Stats struct {
	Voices     map[string]*VoiceStats `json:"voices"`
	MediaPlays int                    `json:"media_plays"`
	Failures   int                    `json:"failures"`
}

// StatsManager manages usage statistics persistence
type StatsManager struct {
	stats    Stats
	filePath string
	mu       sync.Mutex
}

// NewStatsManager creates a stats manager backed by filePath and loads existing data
func NewStatsManager(filePath string) *StatsManager {
	sm := &StatsManager{
		filePath: filePath,
		stats:    Stats{Voices: make(map[string]*VoiceStats)},
	}

	if err := sm.load(); err != nil {
		logger.Debugf("Could not load stats (will start fresh): %v", err)
	}

	return sm
}

// AddSpeech records one synthesized utterance and persists immediately
func (sm *StatsManager) AddSpeech(voice string, characters int) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	vs, ok := sm.stats.Voices[voice]
	if !ok {
		vs = &VoiceStats{}
		sm.stats.Voices[voice] = vs
	}
	vs.SpeechCount++
	vs.Characters += characters

	if err := sm.save(); err != nil {
		logger.Error("Failed to save stats after speech", err)
	}
}

// AddMediaPlay records one media file playback
func (sm *StatsManager) AddMediaPlay() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stats.MediaPlays++
	if err := sm.save(); err != nil {
		logger.Error("Failed to save stats after media play", err)
	}
}

// AddFailure records a failed operation
func (sm *StatsManager) AddFailure() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stats.Failures++
	if err := sm.save(); err != nil {
		logger.Error("Failed to save stats after failure", err)
	}
}

// GetStats returns a deep copy of current statistics
func (sm *StatsManager) GetStats() Stats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	statsCopy := Stats{
		Voices:     make(map[string]*VoiceStats, len(sm.stats.Voices)),
		MediaPlays: sm.stats.MediaPlays,
		Failures:   sm.stats.Failures,
	}
	for voice, vs := range sm.stats.Voices {
		c := *vs
		statsCopy.Voices[voice] = &c
	}

	return statsCopy
}

// GetStatsJSON returns statistics as a JSON string (for D-Bus)
func (sm *StatsManager) GetStatsJSON() (string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	data, err := json.Marshal(sm.stats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats to JSON: %w", err)
	}

	return string(data), nil
}

// Reset clears all statistics and persists empty state
func (sm *StatsManager) Reset() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stats = Stats{Voices: make(map[string]*VoiceStats)}

	if err := sm.save(); err != nil {
		return fmt.Errorf("failed to save reset stats: %w", err)
	}
	return nil
}

func (sm *StatsManager) load() error {
	data, err := os.ReadFile(sm.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debugf("Stats file not found, starting fresh: %s", sm.filePath)
			return nil
		}
		return fmt.Errorf("failed to read stats file: %w", err)
	}

	if err := json.Unmarshal(data, &sm.stats); err != nil {
		return fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	if sm.stats.Voices == nil {
		sm.stats.Voices = make(map[string]*VoiceStats)
	}

	logger.Debugf("Loaded stats from %s", sm.filePath)
	return nil
}

// save writes atomically via a temp file and rename
func (sm *StatsManager) save() error {
	if err := os.MkdirAll(filepath.Dir(sm.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	data, err := json.MarshalIndent(sm.stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := sm.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp stats file: %w", err)
	}
	if err := os.Rename(tempFile, sm.filePath); err != nil {
		return fmt.Errorf("failed to rename temp stats file: %w", err)
	}

	return nil
}
