package storage

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/GAL1LAO/A2D-Project/internal/clock"
	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
)

type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)
}

// HTTPImageFetcher downloads images with a bounded retry on transient errors
type HTTPImageFetcher struct {
	client   *http.Client
	sleeper  clock.Sleeper
	attempts int
}

// HTTPOption configures an HTTPImageFetcher
type HTTPOption func(*HTTPImageFetcher)

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPImageFetcher) { h.client = c }
}

// WithSleeper replaces the wall clock used between retries
func WithSleeper(s clock.Sleeper) HTTPOption {
	return func(h *HTTPImageFetcher) { h.sleeper = s }
}

// NewHTTPImageFetcher creates an HTTP image fetcher
func NewHTTPImageFetcher(timeout time.Duration, opts ...HTTPOption) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	h := &HTTPImageFetcher{
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
		sleeper:  clock.Real(),
		attempts: 3,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func isSuccess(code int) bool { return code >= 200 && code < 300 }

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/tiff, image/bmp, */*")
	req.Header.Set("User-Agent", "a2d-pipeline/1.0")

	// Only transient errors are retried: transport failures and 5xx.
	var lastErr error
	for attempt := 0; attempt < h.attempts; attempt++ {
		if attempt > 0 {
			if err := h.sleeper.Sleep(ctx, time.Duration(attempt)*time.Second); err != nil {
				return nil, apperrors.NewTimeoutError("image fetch cancelled", err)
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

		if isSuccess(resp.StatusCode) {
			defer resp.Body.Close()
			return DecodeImage(resp.Body)
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
			continue
		}
		lastErr = fmt.Errorf("client error: status code %d", resp.StatusCode)
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.NewNotFoundError("image not found", lastErr)
		}
		return nil, apperrors.NewNetworkError("failed to fetch image", lastErr)
	}

	return nil, apperrors.NewNetworkError(fmt.Sprintf("failed to fetch image after %d attempts", h.attempts), lastErr)
}
