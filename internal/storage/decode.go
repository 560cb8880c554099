package storage

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
)

// maxImageBytes caps how much of a single image is read into memory.
const maxImageBytes = 64 << 20

// DecodeImage reads one image in any registered format.
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImageBytes+1))
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read image", err)
	}
	if len(data) > maxImageBytes {
		return nil, apperrors.NewValidationError("image exceeds size limit", nil)
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	return img, nil
}
