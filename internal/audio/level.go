package audio

import "math"

const (
	// Auto-range: recentMax decay per chunk (~43 chunks/s at 44.1kHz)
	// 0.995^43 ≈ 0.81 per second
	levelDecay      = 0.995
	levelNoiseFloor = 0.01 // absolute noise floor (below = silence)
	levelSmoothing  = 0.4  // EMA alpha (higher = more responsive)
)

// LevelMeter computes a normalized level [0,1] per played chunk for
// visualization. Auto-scales by tracking the recent peak maximum.
type LevelMeter struct {
	recentMax float64
	smoothed  float64
}

func NewLevelMeter() *LevelMeter {
	return &LevelMeter{recentMax: levelNoiseFloor}
}

// Process takes interleaved float samples and returns the smoothed level.
func (lm *LevelMeter) Process(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		v := math.Abs(float64(s))
		if v > peak {
			peak = v
		}
	}
	if peak > 1 {
		peak = 1
	}

	if peak > lm.recentMax {
		lm.recentMax = peak // instant attack
	} else {
		lm.recentMax *= levelDecay // slow release
	}
	if lm.recentMax < levelNoiseFloor {
		lm.recentMax = levelNoiseFloor
	}

	level := 0.0
	if peak > levelNoiseFloor {
		level = math.Min(peak/lm.recentMax, 1.0)
	}

	lm.smoothed = levelSmoothing*level + (1-levelSmoothing)*lm.smoothed
	return lm.smoothed
}

// Reset clears the meter state between playbacks
func (lm *LevelMeter) Reset() {
	lm.recentMax = levelNoiseFloor
	lm.smoothed = 0
}
