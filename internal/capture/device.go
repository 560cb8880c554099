// Package capture runs on the camera host: it takes frames on a remotely
// configured schedule and uploads them to the dashboard.
package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/clock"
	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/publish"
)

// Defaults of the capture loop.
const (
	DefaultFallbackInterval = 360 * time.Second
	DefaultPollInterval     = 5 * time.Second
	UploadFileName          = "img_1.jpg"
)

// SettingsClient reads the capture interval from the settings endpoint
type SettingsClient struct {
	url      string
	client   *http.Client
	fallback time.Duration
	log      logrus.FieldLogger
}

// NewSettingsClient creates a settings client. Failed reads return fallback.
func NewSettingsClient(url string, client *http.Client, fallback time.Duration, log logrus.FieldLogger) *SettingsClient {
	if client == nil {
		client = publish.NewHTTPClient(5 * time.Second)
	}
	if fallback <= 0 {
		fallback = DefaultFallbackInterval
	}
	return &SettingsClient{url: url, client: client, fallback: fallback, log: logger.OrDefault(log)}
}

// CaptureInterval returns capture_interval in seconds from the endpoint.
func (s *SettingsClient) CaptureInterval(ctx context.Context) time.Duration {
	d, err := s.fetch(ctx)
	if err != nil {
		s.log.WithError(err).WithField("fallback", s.fallback).Warn("Capture settings unavailable")
		return s.fallback
	}
	return d
}

func (s *SettingsClient) fetch(ctx context.Context) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("settings endpoint returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return 0, err
	}
	var settings struct {
		CaptureInterval *float64 `json:"capture_interval"`
	}
	if err := json.Unmarshal(body, &settings); err != nil {
		return 0, fmt.Errorf("unexpected settings body: %w", err)
	}
	if settings.CaptureInterval == nil {
		return s.fallback, nil
	}
	if *settings.CaptureInterval <= 0 {
		return 0, fmt.Errorf("capture_interval must be positive, got %v", *settings.CaptureInterval)
	}
	return time.Duration(*settings.CaptureInterval * float64(time.Second)), nil
}

// IntervalSource yields the current capture interval
type IntervalSource interface {
	CaptureInterval(ctx context.Context) time.Duration
}

// FrameSource yields upright frames
type FrameSource interface {
	Capture(ctx context.Context) (image.Image, error)
}

// FileUploader sends one file to the dashboard
type FileUploader interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) error
}

// Device is the capture loop
type Device struct {
	settings IntervalSource
	camera   FrameSource
	uploader FileUploader
	clock    clock.Clock
	poll     time.Duration
	quality  int
	log      logrus.FieldLogger
}

// NewDevice creates a capture loop polling settings every poll interval.
func NewDevice(settings IntervalSource, camera FrameSource, uploader FileUploader, clk clock.Clock, poll time.Duration, log logrus.FieldLogger) *Device {
	if clk == nil {
		clk = clock.Real()
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Device{
		settings: settings,
		camera:   camera,
		uploader: uploader,
		clock:    clk,
		poll:     poll,
		quality:  95,
		log:      logger.OrDefault(log),
	}
}

// Run captures a frame whenever the interval has elapsed, and at once when
// the configured interval changes. It returns when ctx is cancelled.
func (d *Device) Run(ctx context.Context) error {
	interval := d.settings.CaptureInterval(ctx)
	next := d.clock.Now()
	d.log.WithField("interval", interval).Info("Capture loop started")

	for {
		if err := d.clock.Sleep(ctx, d.poll); err != nil {
			d.log.Info("Capture loop stopped")
			return err
		}
		if current := d.settings.CaptureInterval(ctx); current != interval {
			d.log.WithFields(logrus.Fields{"old": interval, "new": current}).Info("Capture interval updated")
			interval = current
			next = time.Time{}
		}
		if d.clock.Now().Before(next) {
			continue
		}
		if err := d.CaptureOnce(ctx); err != nil {
			d.log.WithError(err).Error("Capture failed")
		}
		next = d.clock.Now().Add(interval)
	}
}

// CaptureOnce takes one frame and uploads it as img_1.jpg.
func (d *Device) CaptureOnce(ctx context.Context) error {
	frame, err := d.camera.Capture(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: d.quality}); err != nil {
		return apperrors.NewInternalError("encode frame", err)
	}
	if err := d.uploader.Upload(ctx, UploadFileName, publish.ContentTypeJPEG, buf.Bytes()); err != nil {
		return err
	}
	b := frame.Bounds()
	d.log.WithFields(logrus.Fields{
		"width":  b.Dx(),
		"height": b.Dy(),
		"bytes":  buf.Len(),
	}).Info("Frame uploaded")
	return nil
}
