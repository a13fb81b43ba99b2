package analyzer

import (
	"math"

	"go-emotion-inspector/pkg/models"
)

// neutralDamping scales the five heuristic scores before neutral takes the rest
const neutralDamping = 0.8

// pixelScorer implements PixelScorer with colour heuristics
type pixelScorer struct{}

// NewPixelScorer creates a brightness/warmth based pixel scorer
func NewPixelScorer() PixelScorer {
	return pixelScorer{}
}

// ScorePixels implements PixelScorer
func (pixelScorer) ScorePixels(pixels []byte, stride int) (models.PixelAnalysis, error) {
	return ScorePixels(pixels, stride)
}

// ScorePixels maps an RGBA buffer to an emotion distribution. stride is the
// sampling interval in pixels; values <= 0 select DefaultStride.
//
// Bright, warm frames lean happy/surprise, dim cool frames lean sad/fear,
// and warm dim frames with a dominant red channel lean angry.
func ScorePixels(pixels []byte, stride int) (models.PixelAnalysis, error) {
	features, samples, err := CalculatePixelFeatures(pixels, stride)
	if err != nil {
		return models.PixelAnalysis{}, err
	}

	return models.PixelAnalysis{
		AnalysisResult: models.NewAnalysisResult(scoreFeatures(features).Normalized()),
		Features:       features,
		Samples:        samples,
	}, nil
}

// scoreFeatures returns the raw, unnormalised label scores
func scoreFeatures(f models.PixelFeatures) models.Distribution {
	brightness, warmth := f.Brightness, f.Warmth
	dim, cool := 1-brightness, 1-warmth

	var raw models.Distribution
	raw[models.Happy] = math.Max(0, 0.5*brightness+0.5*warmth)
	raw[models.Surprise] = math.Max(0, 0.8*brightness+0.2*math.Abs(warmth-0.5))
	raw[models.Sad] = math.Max(0, 0.7*dim+0.3*cool)
	raw[models.Fear] = math.Max(0, 0.6*dim+0.2*(0.5-math.Abs(0.5-warmth)))
	raw[models.Angry] = math.Max(0, 0.3*dim+0.4*warmth+0.3*math.Min(1, f.RedDominance/2))

	raw[models.Neutral] = math.Max(0, 1-neutralDamping*sumScored(raw))
	return raw
}
