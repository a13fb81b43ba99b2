package analyzer

import (
	"math"
	"regexp"
	"strings"

	"go-emotion-inspector/pkg/models"
)

const (
	sadNegationBoost   = 0.02
	angryNegationBoost = 0.015

	smoothingOffset   = 0.0001
	smoothingExponent = 0.9
)

var (
	nonWordRun = regexp.MustCompile(`\W+`)

	// Contractions such as "can't" span a non-word character, so negations
	// are matched on word boundaries rather than on split tokens.
	negationPattern = regexp.MustCompile(`\b(no|not|never|can't|won't|don't)\b`)
)

// textScorer implements TextScorer with keyword counting
type textScorer struct{}

// NewTextScorer creates a keyword based text scorer
func NewTextScorer() TextScorer {
	return textScorer{}
}

// ScoreText implements TextScorer
func (textScorer) ScoreText(text string) models.AnalysisResult {
	return ScoreText(text)
}

// ScoreText maps free text to an emotion distribution. It never fails:
// empty text scores as neutral.
func ScoreText(text string) models.AnalysisResult {
	lower := strings.ToLower(text)
	tokens := Tokenize(lower)

	var raw models.Distribution
	for _, tok := range tokens {
		if emotion, ok := keywordIndex[tok]; ok {
			raw[emotion]++
		}
	}
	total := float64(max(1, len(tokens)))
	for _, e := range scoredEmotions {
		raw[e] /= total
	}

	negations := float64(len(negationPattern.FindAllStringIndex(lower, -1)))
	raw[models.Sad] += negations * sadNegationBoost
	raw[models.Angry] += negations * angryNegationBoost

	raw[models.Neutral] = math.Max(0, 1-sumScored(raw))

	var smoothed models.Distribution
	for i, x := range raw {
		smoothed[i] = smooth(x)
	}
	return models.NewAnalysisResult(smoothed.Normalized())
}

// Tokenize splits lower-cased text on runs of non-word characters and drops
// empty tokens
func Tokenize(text string) []string {
	parts := nonWordRun.Split(text, -1)
	tokens := parts[:0]
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

func smooth(x float64) float64 {
	return math.Pow(x+smoothingOffset, smoothingExponent)
}

// scoredEmotions are the labels with their own heuristic; neutral is derived
var scoredEmotions = [...]models.Emotion{
	models.Happy, models.Sad, models.Angry, models.Fear, models.Surprise,
}

func sumScored(d models.Distribution) float64 {
	var sum float64
	for _, e := range scoredEmotions {
		sum += d[e]
	}
	return sum
}
