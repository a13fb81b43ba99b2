package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go-emotion-inspector/pkg/models"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func parseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case formatJSON:
		return formatJSON, nil
	case formatYAML, "yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q (want json or yaml)", name)
}

func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}

type textReport struct {
	Text    string              `json:"text" yaml:"text"`
	Tokens  int                 `json:"tokens" yaml:"tokens"`
	Emotion models.Emotion      `json:"emotion" yaml:"emotion"`
	Color   string              `json:"color" yaml:"color"`
	Scores  models.Distribution `json:"scores" yaml:"scores"`
}

type ocrReport struct {
	Text       string      `json:"text" yaml:"text"`
	Confidence float64     `json:"confidence" yaml:"confidence"`
	WER        *float64    `json:"word_error_rate,omitempty" yaml:"word_error_rate,omitempty"`
	CER        *float64    `json:"character_error_rate,omitempty" yaml:"character_error_rate,omitempty"`
	Error      string      `json:"error,omitempty" yaml:"error,omitempty"`
	Emotion    *textReport `json:"emotion,omitempty" yaml:"emotion,omitempty"`
}

type imageReport struct {
	File     string               `json:"file" yaml:"file"`
	Format   string               `json:"format" yaml:"format"`
	Width    int                  `json:"width" yaml:"width"`
	Height   int                  `json:"height" yaml:"height"`
	Samples  int                  `json:"samples" yaml:"samples"`
	Emotion  models.Emotion       `json:"emotion" yaml:"emotion"`
	Color    string               `json:"color" yaml:"color"`
	Scores   models.Distribution  `json:"scores" yaml:"scores"`
	Features models.PixelFeatures `json:"features" yaml:"features"`
	OCR      *ocrReport           `json:"ocr,omitempty" yaml:"ocr,omitempty"`
}

type speechReport struct {
	Transcript  string         `json:"transcript" yaml:"transcript"`
	Blocks      int            `json:"blocks" yaml:"blocks"`
	TextEmotion models.Emotion `json:"text_emotion" yaml:"text_emotion"`
	Energy      float64        `json:"energy" yaml:"energy"`
	Arousal     float64        `json:"arousal" yaml:"arousal"`
	Emotion     models.Emotion `json:"emotion" yaml:"emotion"`
	Color       string         `json:"color" yaml:"color"`
}

type fuseReport struct {
	Input   models.Emotion `json:"input" yaml:"input"`
	Arousal float64        `json:"arousal" yaml:"arousal"`
	Emotion models.Emotion `json:"emotion" yaml:"emotion"`
	Color   string         `json:"color" yaml:"color"`
}

func newTextReport(text string, tokens int, result models.AnalysisResult) *textReport {
	return &textReport{
		Text:    text,
		Tokens:  tokens,
		Emotion: result.Emotion,
		Color:   result.Emotion.Color(),
		Scores:  result.Scores,
	}
}
