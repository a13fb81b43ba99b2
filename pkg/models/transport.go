package models

// TextAnalysisRequest represents a request to score free text
type TextAnalysisRequest struct {
	Text string `json:"text"`
}

// ImageAnalysisRequest represents a request to score an image by URL
type ImageAnalysisRequest struct {
	URL          string `json:"url" binding:"required,url"`
	Stride       int    `json:"stride,omitempty" binding:"omitempty,min=1"`
	ExtractText  bool   `json:"extract_text,omitempty"`
	ExpectedText string `json:"expected_text,omitempty"`
}

// ImageUploadRequest holds the form fields sent alongside an uploaded image
type ImageUploadRequest struct {
	Stride       int    `form:"stride" binding:"omitempty,min=1"`
	ExtractText  bool   `form:"extract_text"`
	ExpectedText string `form:"expected_text"`
}

// PixelAnalysisRequest carries one raw RGBA frame. Pixels is base64 in JSON.
type PixelAnalysisRequest struct {
	Pixels []byte `json:"pixels"`
	Stride int    `json:"stride,omitempty" binding:"omitempty,min=1"`
}

// FrameBatchRequest carries a sequence of raw RGBA frames, e.g. webcam
// samples taken by a client loop
type FrameBatchRequest struct {
	Frames [][]byte `json:"frames" binding:"required,min=1"`
	Stride int      `json:"stride,omitempty" binding:"omitempty,min=1"`
}

// AudioAnalysisRequest carries a transcript and the microphone blocks
// captured since the previous request. Energy is the smoothed energy the
// caller received last time (zero on the first request).
type AudioAnalysisRequest struct {
	Transcript string   `json:"transcript"`
	Samples    [][]byte `json:"samples,omitempty"`
	Energy     float64  `json:"energy" binding:"min=0,max=1"`
}

// FusionRequest applies the fusion rule to a label and an arousal value
type FusionRequest struct {
	Emotion string  `json:"emotion" binding:"required"`
	Arousal float64 `json:"arousal" binding:"min=0,max=1"`
}

// FusionResponse is the fused label
type FusionResponse struct {
	Input   Emotion `json:"input"`
	Arousal float64 `json:"arousal"`
	Emotion Emotion `json:"emotion"`
	Color   string  `json:"color"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// EmotionAnalysisResponse is the envelope returned for every analysis
type EmotionAnalysisResponse struct {
	ID                string       `json:"id,omitempty"`
	Modality          Modality     `json:"modality"`
	Timestamp         string       `json:"timestamp"`
	ProcessingTimeSec float64      `json:"processing_time_sec"`
	Emotion           Emotion      `json:"emotion"`
	Color             string       `json:"color"`
	Scores            Distribution `json:"scores"`

	Text   *AnalysisResult `json:"text,omitempty"`
	Pixels *PixelAnalysis  `json:"pixels,omitempty"`
	Image  *ImageAnalysis  `json:"image,omitempty"`
	Audio  *AudioAnalysis  `json:"audio,omitempty"`
	Frames *FrameBatch     `json:"frames,omitempty"`
}

// FrameBatch is the per-frame and aggregate output of a frame batch
type FrameBatch struct {
	Results []FrameAnalysis `json:"results"`
	Summary FrameSummary    `json:"summary"`
}

// ResultListResponse lists stored results
type ResultListResponse struct {
	Results []StoredResult `json:"results"`
	Count   int            `json:"count"`
}
