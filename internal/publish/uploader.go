// Package publish talks to the remote dashboard: it uploads workbooks and
// frames and asks whether new input is waiting.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
)

// Content types of uploaded files.
const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeJPEG = "image/jpeg"
)

// maxReplyBytes bounds how much of a reply body is read.
const maxReplyBytes = 1 << 20

// NewHTTPClient returns the client used for dashboard calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
		Timeout: timeout,
	}
}

// Uploader posts a single file as multipart form data. The token travels in
// both the form field and the Authorization header.
type Uploader struct {
	URL    string
	Token  string
	client *http.Client
	log    logrus.FieldLogger
}

// NewUploader creates an uploader. A nil client uses NewHTTPClient defaults.
func NewUploader(url, token string, client *http.Client, log logrus.FieldLogger) *Uploader {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &Uploader{URL: url, Token: token, client: client, log: logger.OrDefault(log)}
}

// Upload sends data as the "file" part. Any non-2xx reply is an error.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, data []byte) error {
	if u.URL == "" {
		return apperrors.NewConfigError("upload URL is not configured", nil)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return apperrors.NewInternalError("create multipart file part", err)
	}
	if _, err := part.Write(data); err != nil {
		return apperrors.NewInternalError("write multipart file part", err)
	}
	if err := mw.WriteField("token", u.Token); err != nil {
		return apperrors.NewInternalError("write token field", err)
	}
	if err := mw.Close(); err != nil {
		return apperrors.NewInternalError("close multipart body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL, &body)
	if err != nil {
		return apperrors.NewValidationError("invalid upload URL", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.Token != "" {
		req.Header.Set("Authorization", "Bearer "+u.Token)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := u.client.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("upload failed", err)
	}
	defer resp.Body.Close()
	reply, _ := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))

	fields := logrus.Fields{
		"req_id":     reqID,
		"file":       filename,
		"bytes":      len(data),
		"status":     resp.StatusCode,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		u.log.WithFields(fields).Warn("Upload rejected")
		return apperrors.NewNetworkError(
			fmt.Sprintf("upload rejected: status code %d", resp.StatusCode),
			fmt.Errorf("%s", bytes.TrimSpace(reply)),
		)
	}
	u.log.WithFields(fields).Info("Upload accepted")
	return nil
}
