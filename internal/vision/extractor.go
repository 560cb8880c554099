// Package vision talks to the services that turn a panel image plus an
// instruction into free-form text.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
)

// Extractor returns the raw text answer for one image and instruction.
type Extractor interface {
	Extract(ctx context.Context, img image.Image, instruction string) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, img image.Image, instruction string) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, img image.Image, instruction string) (string, error) {
	return f(ctx, img, instruction)
}

// EncodeJPEGDataURL encodes img as a base64 JPEG data URL.
func EncodeJPEGDataURL(img image.Image, quality int) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
