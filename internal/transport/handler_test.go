package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-emotion-inspector/internal/analyzer"
	"go-emotion-inspector/internal/config"
	"go-emotion-inspector/internal/observer"
	"go-emotion-inspector/internal/repository"
	"go-emotion-inspector/internal/service"
	"go-emotion-inspector/internal/storage"
	"go-emotion-inspector/pkg/models"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubFetcher struct {
	img image.Image
	err error
}

func (f *stubFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	return f.img, f.err
}

func solidImage(width, height int, fill color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	return img
}

func testConfig() *config.Config {
	return &config.Config{
		Host:               "localhost",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  time.Second,
		AnalysisTimeout:    time.Second,
		MaxRequestBodySize: 1 << 20,
	}
}

func newTestHandler(t *testing.T, fetcher *stubFetcher) (http.Handler, *observer.EventBus) {
	t.Helper()

	emotionAnalyzer, err := analyzer.NewEmotionAnalyzer(2, nil)
	if err != nil {
		t.Fatalf("Failed to create analyzer: %v", err)
	}
	t.Cleanup(func() { emotionAnalyzer.Close() })

	bus := observer.NewEventBus()
	metrics := observer.NewMetricsObserver()
	bus.Subscribe(metrics)

	svc := service.NewEmotionAnalysisService(
		repository.NewHTTPImageRepository(fetcher, nil),
		repository.NewMemoryResultRepository(100),
		emotionAnalyzer,
		nil,
		bus,
		service.DefaultServiceOptions(),
	)
	return NewHandler(svc, metrics, testConfig()), bus
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{})

	w := doJSON(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["status"] != "available" {
		t.Errorf("Expected status available, got %q", body["status"])
	}
}

func TestAnalyzeTextEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{})

	w := doJSON(t, h, http.MethodPost, "/api/v1/analyze/text", models.TextAnalysisRequest{Text: "wow, shocked"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp models.EmotionAnalysisResponse
	decode(t, w, &resp)
	if resp.Emotion != models.Surprise || resp.Color != models.Surprise.Color() {
		t.Errorf("Expected surprise, got %s (%s)", resp.Emotion, resp.Color)
	}
	if resp.ID == "" {
		t.Fatal("Expected a stored result ID")
	}

	w = doJSON(t, h, http.MethodGet, "/api/v1/results/"+resp.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for stored result, got %d", w.Code)
	}
	var stored models.StoredResult
	decode(t, w, &stored)
	if stored.Emotion != models.Surprise || stored.Modality != models.ModalityText {
		t.Errorf("Unexpected stored result %+v", stored)
	}
}

func TestAnalyzeEndpoints(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{img: solidImage(4, 4, color.RGBA{255, 255, 255, 255})})

	red := bytes.Repeat([]byte{255, 0, 0, 255}, 16)
	black := bytes.Repeat([]byte{0, 0, 0, 255}, 16)

	tests := []struct {
		name string
		path string
		body interface{}
		want models.Emotion
	}{
		{"pixels", "/api/v1/analyze/pixels", models.PixelAnalysisRequest{Pixels: red, Stride: 1}, models.Angry},
		{"frames", "/api/v1/analyze/frames", models.FrameBatchRequest{Frames: [][]byte{black, black}}, models.Sad},
		{"audio", "/api/v1/analyze/audio", models.AudioAnalysisRequest{Transcript: "sad", Energy: 0.5}, models.Angry},
		{"image", "/api/v1/analyze/image", models.ImageAnalysisRequest{URL: "https://example.com/white.png"}, models.Surprise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, tt.path, tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
			}
			var resp models.EmotionAnalysisResponse
			decode(t, w, &resp)
			if resp.Emotion != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, resp.Emotion)
			}
		})
	}
}

func TestAnalyzeEndpoints_Errors(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{err: storage.ErrFetchFailed})

	tests := []struct {
		name       string
		path       string
		body       interface{}
		wantStatus int
	}{
		{"malformed pixels", "/api/v1/analyze/pixels", models.PixelAnalysisRequest{Pixels: []byte{1, 2, 3}}, http.StatusUnprocessableEntity},
		{"empty pixels", "/api/v1/analyze/pixels", models.PixelAnalysisRequest{}, http.StatusBadRequest},
		{"negative stride", "/api/v1/analyze/pixels", map[string]interface{}{"pixels": "AAAA", "stride": -1}, http.StatusBadRequest},
		{"no frames", "/api/v1/analyze/frames", models.FrameBatchRequest{}, http.StatusBadRequest},
		{"energy out of range", "/api/v1/analyze/audio", models.AudioAnalysisRequest{Energy: 2}, http.StatusBadRequest},
		{"missing URL", "/api/v1/analyze/image", map[string]string{}, http.StatusBadRequest},
		{"fetch failure", "/api/v1/analyze/image", models.ImageAnalysisRequest{URL: "https://example.com/a.png"}, http.StatusBadGateway},
		{"unknown label", "/api/v1/fuse", models.FusionRequest{Emotion: "bored", Arousal: 0.5}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, h, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("Expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			var resp models.ErrorResponse
			decode(t, w, &resp)
			if resp.Error != http.StatusText(tt.wantStatus) || resp.Message == "" {
				t.Errorf("Unexpected error body %+v", resp)
			}
		})
	}
}

func TestAnalyzeText_InvalidJSON(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/text", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestRequestSizeLimit(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{})

	w := doJSON(t, h, http.MethodPost, "/api/v1/analyze/text", models.TextAnalysisRequest{Text: strings.Repeat("a", 2<<20)})
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", w.Code)
	}
}

func TestFuseEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{})

	tests := []struct {
		label   string
		arousal float64
		want    models.Emotion
	}{
		{"sad", 0.61, models.Angry},
		{"sad", 0.6, models.Sad},
		{"neutral", 0.9, models.Surprise},
		{"angry", 0.19, models.Sad},
		{"HAPPY", 1, models.Happy},
	}

	for _, tt := range tests {
		w := doJSON(t, h, http.MethodPost, "/api/v1/fuse", models.FusionRequest{Emotion: tt.label, Arousal: tt.arousal})
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp models.FusionResponse
		decode(t, w, &resp)
		if resp.Emotion != tt.want {
			t.Errorf("fuse(%s, %.2f) = %s, want %s", tt.label, tt.arousal, resp.Emotion, tt.want)
		}
	}
}

func TestListEmotions(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{})

	w := doJSON(t, h, http.MethodGet, "/api/v1/emotions", nil)
	var legend []models.EmotionInfo
	decode(t, w, &legend)

	if len(legend) != models.NumEmotions {
		t.Fatalf("Expected %d labels, got %d", models.NumEmotions, len(legend))
	}
	if legend[0].Name != "happy" || legend[0].Color != "#22c55e" {
		t.Errorf("Unexpected first entry %+v", legend[0])
	}
}

func TestUploadEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &stubFetcher{})

	var img bytes.Buffer
	if err := png.Encode(&img, solidImage(4, 4, color.RGBA{255, 0, 0, 255})); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}

	newUpload := func(field string, content []byte) *http.Request {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, _ := mw.CreateFormFile(field, "red.png")
		part.Write(content)
		mw.WriteField("stride", "1")
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/image/upload", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newUpload(uploadField, img.Bytes()))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.EmotionAnalysisResponse
	decode(t, w, &resp)
	if resp.Emotion != models.Angry || resp.Image == nil || resp.Image.Samples != 16 {
		t.Errorf("Expected 16 angry samples, got %+v", resp)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, newUpload("file", img.Bytes()))
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a missing image field, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, newUpload(uploadField, []byte("not an image")))
	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415 for an unknown format, got %d", w.Code)
	}
}

func TestResultsEndpoint(t *testing.T) {
	h, bus := newTestHandler(t, &stubFetcher{})

	for _, text := range []string{"happy", "sad", "scared"} {
		doJSON(t, h, http.MethodPost, "/api/v1/analyze/text", models.TextAnalysisRequest{Text: text})
	}
	doJSON(t, h, http.MethodPost, "/api/v1/analyze/pixels", models.PixelAnalysisRequest{Pixels: make([]byte, 16)})

	w := doJSON(t, h, http.MethodGet, "/api/v1/results?modality=text&limit=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var list models.ResultListResponse
	decode(t, w, &list)
	if list.Count != 2 || list.Results[0].Emotion != models.Fear || list.Results[1].Emotion != models.Sad {
		t.Errorf("Expected the two newest text results, got %+v", list.Results)
	}

	tests := []struct {
		path       string
		wantStatus int
	}{
		{"/api/v1/results?limit=abc", http.StatusBadRequest},
		{"/api/v1/results?limit=-1", http.StatusBadRequest},
		{"/api/v1/results?modality=smell", http.StatusBadRequest},
		{"/api/v1/results/does-not-exist", http.StatusNotFound},
	}
	for _, tt := range tests {
		if w := doJSON(t, h, http.MethodGet, tt.path, nil); w.Code != tt.wantStatus {
			t.Errorf("GET %s: expected %d, got %d", tt.path, tt.wantStatus, w.Code)
		}
	}

	bus.Wait()
	w = doJSON(t, h, http.MethodGet, "/api/v1/metrics", nil)
	var metrics map[string]interface{}
	decode(t, w, &metrics)
	if metrics["successful_analyses"] != float64(4) {
		t.Errorf("Expected 4 successful analyses, got %v", metrics["successful_analyses"])
	}
}

func TestDetermineStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{context.Canceled, http.StatusTooManyRequests},
		{&http.MaxBytesError{Limit: 1}, http.StatusRequestEntityTooLarge},
		{storage.ErrFetchFailed, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := determineStatusCode(tt.err); got != tt.want {
			t.Errorf("determineStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
