package container

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-emotion-inspector/internal/config"

	"github.com/gin-gonic/gin"
)

func testConfig() *config.Config {
	return &config.Config{
		Host:               "localhost",
		Port:               "8080",
		RequestTimeout:     5 * time.Second,
		ImageFetchTimeout:  time.Second,
		AnalysisTimeout:    time.Second,
		MaxRequestBodySize: 1 << 20,
		MaxTextLength:      100,
		DefaultStride:      4,
		WorkerCount:        1,
		ResultStore:        config.ResultStoreMemory,
		HistoryLimit:       10,
		OCRLanguage:        "eng",
		LogLevel:           "error",
	}
}

func TestNewContainer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, err := NewContainer(testConfig())
	if err != nil {
		t.Fatalf("NewContainer failed: %v", err)
	}
	defer c.Close()

	if c.Handler() == nil || c.Service() == nil || c.Config() == nil {
		t.Fatal("Expected all components to be wired")
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze/text", strings.NewReader(`{"text":"so happy"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Text limit comes from the config
	req = httptest.NewRequest(http.MethodPost, "/api/v1/analyze/text",
		strings.NewReader(`{"text":"`+strings.Repeat("a", 101)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for text over the configured limit, got %d", w.Code)
	}

	c.events.Wait()
	if got := c.Metrics()["successful_analyses"]; got != int64(1) {
		t.Errorf("Expected 1 successful analysis, got %v", got)
	}
}

func TestNewContainer_Errors(t *testing.T) {
	if _, err := NewContainer(nil); err == nil {
		t.Error("Expected error for nil config")
	}

	cfg := testConfig()
	cfg.ResultStore = "redis"
	if _, err := NewContainer(cfg); err == nil {
		t.Error("Expected error for an unknown result store")
	}
}

func TestContainer_CloseReleasesResources(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, store := range []string{config.ResultStoreMemory, config.ResultStoreSQLite} {
		t.Run(store, func(t *testing.T) {
			cfg := testConfig()
			cfg.ResultStore = store
			cfg.SQLitePath = filepath.Join(t.TempDir(), "results.db")

			c, err := NewContainer(cfg)
			if err != nil {
				t.Fatalf("NewContainer failed: %v", err)
			}
			if err := c.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			for _, path := range []string{"/api/v1/results", "/api/v1/results/some-id"} {
				req := httptest.NewRequest(http.MethodGet, path, nil)
				w := httptest.NewRecorder()
				c.Handler().ServeHTTP(w, req)
				if w.Code != http.StatusServiceUnavailable {
					t.Errorf("%s: expected 503 after Close, got %d", path, w.Code)
				}
			}
		})
	}
}
