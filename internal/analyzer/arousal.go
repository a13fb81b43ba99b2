package analyzer

import (
	"math"
	"sync"
)

const (
	// energyDecay is the weight kept by the previous energy on each block
	energyDecay = 0.8
	energyGain  = 0.2
	// arousalGain maps smoothed energy onto the [0,1] arousal scale
	arousalGain = 4
)

// RMS returns the root mean square of unsigned 8-bit time-domain samples,
// centred on 128 and normalised to [-1,1]. Empty input has zero energy.
func RMS(samples []byte) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := (float64(s) - 128) / 128
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// ArousalFromEnergy clamps the scaled energy to [0,1]
func ArousalFromEnergy(energy float64) float64 {
	return math.Min(1, math.Max(0, arousalGain*energy))
}

// ArousalTracker keeps the exponential moving average of vocal energy.
// It belongs to the capture side; the scorers never hold it.
type ArousalTracker struct {
	mu     sync.Mutex
	energy float64
}

// NewArousalTracker starts a tracker from a previously reported energy
func NewArousalTracker(energy float64) *ArousalTracker {
	return &ArousalTracker{energy: energy}
}

// Observe folds one block of samples into the average and returns the
// resulting arousal
func (t *ArousalTracker) Observe(samples []byte) float64 {
	rms := RMS(samples)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.energy = energyDecay*t.energy + energyGain*rms
	return ArousalFromEnergy(t.energy)
}

// Energy returns the current smoothed energy
func (t *ArousalTracker) Energy() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.energy
}

// Arousal returns the current arousal in [0,1]
func (t *ArousalTracker) Arousal() float64 {
	return ArousalFromEnergy(t.Energy())
}

// Reset drops the accumulated energy
func (t *ArousalTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.energy = 0
}
