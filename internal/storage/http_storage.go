package storage

import (
	"context"
	"fmt"
	"image"
	"net/http"
	"time"
)

// ImageFetcher retrieves and decodes an image by URL
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)
}

const (
	maxFetchAttempts = 3
	defaultTimeout   = 30 * time.Second
)

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S)
type HTTPImageFetcher struct {
	client   *http.Client
	backoff  time.Duration
	maxBytes int64
}

// NewHTTPImageFetcher creates an HTTP image fetcher. timeout bounds every
// attempt; zero selects 30s.
func NewHTTPImageFetcher(timeout time.Duration, maxBytes int64) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	// Connection pooling tuned for single image downloads
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		backoff:  time.Second,
		maxBytes: maxBytes,
	}
}

// FetchImage downloads and decodes an image. Network errors and 5xx
// responses are retried with linear backoff; 4xx responses are not.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid URL: %v", ErrFetchFailed, err)
	}

	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Emotion-Inspector/1.0")

	var lastErr error
	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		if attempt > 0 {
			if err := h.sleep(ctx, time.Duration(attempt)*h.backoff); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			img, _, err := DecodeImage(resp.Body, h.maxBytes)
			return img, err
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		case resp.StatusCode >= 400:
			// 4xx client errors are non-retryable
			return nil, fmt.Errorf("%w: client error: status code %d", ErrFetchFailed, resp.StatusCode)
		default:
			return nil, fmt.Errorf("%w: unexpected status code %d", ErrFetchFailed, resp.StatusCode)
		}
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrFetchFailed, maxFetchAttempts, lastErr)
}

// sleep waits for d unless ctx ends first
func (h *HTTPImageFetcher) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
