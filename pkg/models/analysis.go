package models

import "time"

// Modality names the input surface an analysis came from
type Modality string

const (
	ModalityText   Modality = "text"
	ModalityImage  Modality = "image"
	ModalityPixels Modality = "pixels"
	ModalityFrames Modality = "frames"
	ModalityAudio  Modality = "audio"
)

// Valid reports whether m is a known modality
func (m Modality) Valid() bool {
	switch m {
	case ModalityText, ModalityImage, ModalityPixels, ModalityFrames, ModalityAudio:
		return true
	}
	return false
}

// OCRResult represents text extracted from an image
type OCRResult struct {
	ExtractedText string  `json:"extracted_text"`
	ExpectedText  string  `json:"expected_text,omitempty"`
	Confidence    float64 `json:"confidence"`

	// Error rates against ExpectedText, only set when it is provided
	WER      float64 `json:"word_error_rate,omitempty"`
	CER      float64 `json:"character_error_rate,omitempty"`
	OCRError string  `json:"ocr_error,omitempty"`

	// Emotion of the extracted text, nil when nothing was read
	TextEmotion *AnalysisResult `json:"text_emotion,omitempty"`
}

// ImageAnalysis is the full result of analysing a decoded image
type ImageAnalysis struct {
	PixelAnalysis
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	OCRResult *OCRResult `json:"ocr_result,omitempty"`
}

// FrameAnalysis is the result for one frame of a batch. Error is set
// instead of the result when the frame could not be scored.
type FrameAnalysis struct {
	Index  int            `json:"index"`
	Result *PixelAnalysis `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// FrameSummary aggregates a batch of frames
type FrameSummary struct {
	Scored         int             `json:"scored"`
	Failed         int             `json:"failed"`
	Dominant       Emotion         `json:"dominant"`
	Histogram      map[Emotion]int `json:"histogram"`
	MeanScores     Distribution    `json:"mean_scores"`
	MeanBrightness float64         `json:"mean_brightness"`
	StdBrightness  float64         `json:"std_brightness"`
}

// AudioAnalysis is the result of fusing a transcript with vocal energy
type AudioAnalysis struct {
	Text    AnalysisResult `json:"text"`
	Energy  float64        `json:"energy"`
	Arousal float64        `json:"arousal"`
	Emotion Emotion        `json:"emotion"`
	Color   string         `json:"color"`
}

// StoredResult is an analysis kept in the result history
type StoredResult struct {
	ID                string       `json:"id"`
	Modality          Modality     `json:"modality"`
	Source            string       `json:"source,omitempty"`
	Emotion           Emotion      `json:"emotion"`
	Scores            Distribution `json:"scores"`
	Timestamp         time.Time    `json:"timestamp"`
	ProcessingTimeSec float64      `json:"processing_time_sec"`
}

// ValidationError represents a structured validation error
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}
