package analyzer

import "go-emotion-inspector/pkg/models"

const (
	// DefaultHighArousal is the energy above which calm labels turn active
	DefaultHighArousal = 0.6
	// DefaultLowArousal is the energy below which anger reads as sadness
	DefaultLowArousal = 0.2
)

// FusionRule overrides a text label using vocal arousal
type FusionRule struct {
	High float64
	Low  float64
}

// DefaultFusionRule returns the rule with the stock thresholds
func DefaultFusionRule() FusionRule {
	return FusionRule{High: DefaultHighArousal, Low: DefaultLowArousal}
}

// Apply returns the fused label:
//   - sad becomes angry and neutral becomes surprise when arousal > High
//   - angry becomes sad when arousal < Low
//
// Every other combination is returned unchanged.
func (r FusionRule) Apply(label models.Emotion, arousal float64) models.Emotion {
	switch {
	case arousal > r.High && label == models.Sad:
		return models.Angry
	case arousal > r.High && label == models.Neutral:
		return models.Surprise
	case arousal < r.Low && label == models.Angry:
		return models.Sad
	}
	return label
}

// FuseLabel applies the default fusion rule
func FuseLabel(label models.Emotion, arousal float64) models.Emotion {
	return DefaultFusionRule().Apply(label, arousal)
}
