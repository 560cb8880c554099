//go:build tesseract

// Package tesseract is an offline Extractor backed by libtesseract. It needs
// cgo and the tesseract headers, so only builds tagged "tesseract" pull it in.
package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/vision"
)

var _ vision.Extractor = (*Client)(nil)

// Client runs OCR on the image. The instruction is ignored; tesseract
// returns what it reads, one panel line per text line.
type Client struct {
	mu       sync.Mutex
	ocr      *gosseract.Client
	language string
	log      logrus.FieldLogger
}

// NewClient creates a client for the given tesseract language codes, e.g. "deu+eng".
func NewClient(language string, log logrus.FieldLogger) (*Client, error) {
	if language == "" {
		language = "deu+eng"
	}
	ocr := gosseract.NewClient()
	if err := ocr.SetLanguage(strings.Split(language, "+")...); err != nil {
		ocr.Close()
		return nil, apperrors.NewConfigError("invalid tesseract language", err)
	}
	if err := ocr.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		ocr.Close()
		return nil, apperrors.NewConfigError("failed to set page segmentation mode", err)
	}
	return &Client{ocr: ocr, language: language, log: logger.OrDefault(log)}, nil
}

func (c *Client) Extract(ctx context.Context, img image.Image, instruction string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", apperrors.NewProcessingError("failed to encode image", err)
	}

	// gosseract clients are not safe for concurrent use.
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ocr.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", apperrors.NewProcessingError("failed to load image into tesseract", err)
	}
	text, err := c.ocr.Text()
	if err != nil {
		return "", apperrors.NewProcessingError("tesseract failed", err)
	}
	c.log.WithFields(logrus.Fields{"language": c.language, "text_len": len(text)}).Debug("OCR completed")
	return text, nil
}

// Close releases the tesseract handle.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ocr.Close()
}
