package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

// Emotion is one of the six closed emotion categories.
// The declaration order is also the tie-break order for argmax.
type Emotion int

const (
	Happy Emotion = iota
	Sad
	Angry
	Fear
	Surprise
	Neutral

	// NumEmotions is the size of the closed label set
	NumEmotions = int(Neutral) + 1
)

// Emotions lists every label in enumeration order
var Emotions = [NumEmotions]Emotion{Happy, Sad, Angry, Fear, Surprise, Neutral}

var emotionNames = [NumEmotions]string{"happy", "sad", "angry", "fear", "surprise", "neutral"}

var emotionColors = [NumEmotions]string{
	"#22c55e", // happy
	"#60a5fa", // sad
	"#ef4444", // angry
	"#a78bfa", // fear
	"#f59e0b", // surprise
	"#94a3b8", // neutral
}

// Valid reports whether e belongs to the closed label set
func (e Emotion) Valid() bool {
	return e >= Happy && e <= Neutral
}

func (e Emotion) String() string {
	if !e.Valid() {
		return "Emotion(" + strconv.Itoa(int(e)) + ")"
	}
	return emotionNames[e]
}

// Color returns the display colour for the label. Unknown labels fall back
// to the neutral colour.
func (e Emotion) Color() string {
	if !e.Valid() {
		return emotionColors[Neutral]
	}
	return emotionColors[e]
}

// ParseEmotion resolves a label name, case-insensitively
func ParseEmotion(name string) (Emotion, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, candidate := range emotionNames {
		if candidate == n {
			return Emotion(i), nil
		}
	}
	return Neutral, fmt.Errorf("unknown emotion %q", name)
}

// MarshalText implements encoding.TextMarshaler
func (e Emotion) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("invalid emotion %d", int(e))
	}
	return []byte(emotionNames[e]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (e *Emotion) UnmarshalText(text []byte) error {
	parsed, err := ParseEmotion(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Distribution holds one score per emotion, indexed by Emotion.
// It is a value type: copies never share storage.
type Distribution [NumEmotions]float64

// Get returns the score of a label
func (d Distribution) Get(e Emotion) float64 {
	return d[e]
}

// Sum returns the total mass of the distribution
func (d Distribution) Sum() float64 {
	return floats.Sum(d[:])
}

// Top returns the highest scoring label. floats.MaxIdx returns the first
// index among equal maxima, which gives the enumeration-order tie-break.
func (d Distribution) Top() Emotion {
	return Emotion(floats.MaxIdx(d[:]))
}

// Normalized divides every score by the total. A zero total yields a
// distribution with all mass on neutral.
func (d Distribution) Normalized() Distribution {
	total := d.Sum()
	if total == 0 {
		var out Distribution
		out[Neutral] = 1
		return out
	}
	var out Distribution
	for i, v := range d {
		out[i] = v / total
	}
	return out
}

// MarshalJSON writes the distribution as an object keyed by label name in
// enumeration order
func (d Distribution) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range emotionNames {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(name))
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(d[i], 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object form written by MarshalJSON
func (d *Distribution) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out Distribution
	for name, score := range raw {
		e, err := ParseEmotion(name)
		if err != nil {
			return err
		}
		out[e] = score
	}
	*d = out
	return nil
}

// MarshalYAML writes the distribution as a label → score mapping, keeping
// the declaration order used by MarshalJSON
func (d Distribution) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i, name := range emotionNames {
		var value yaml.Node
		if err := value.Encode(d[i]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&value,
		)
	}
	return node, nil
}

// AnalysisResult is the outcome of one scoring call
type AnalysisResult struct {
	Emotion Emotion      `json:"emotion" yaml:"emotion"`
	Scores  Distribution `json:"scores" yaml:"scores"`
}

// NewAnalysisResult derives the top label from the scores
func NewAnalysisResult(scores Distribution) AnalysisResult {
	return AnalysisResult{Emotion: scores.Top(), Scores: scores}
}

// PixelFeatures are the colour heuristics behind a pixel score
type PixelFeatures struct {
	Brightness   float64 `json:"brightness" yaml:"brightness"`
	Warmth       float64 `json:"warmth" yaml:"warmth"`
	RedDominance float64 `json:"red_dominance" yaml:"red_dominance"`
}

// PixelAnalysis is a pixel score together with its diagnostic features
type PixelAnalysis struct {
	AnalysisResult `yaml:",inline"`
	Features       PixelFeatures `json:"features" yaml:"features"`
	Samples        int           `json:"samples" yaml:"samples"`
}

// EmotionInfo describes a label for legends and clients
type EmotionInfo struct {
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// Legend returns the label → colour table in enumeration order
func Legend() []EmotionInfo {
	out := make([]EmotionInfo, 0, NumEmotions)
	for _, e := range Emotions {
		out = append(out, EmotionInfo{Name: e.String(), Color: e.Color()})
	}
	return out
}
