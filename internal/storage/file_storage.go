package storage

import (
	"context"
	"errors"
	"image"
	"io/fs"
	"os"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
)

// FileImageLoader reads images from the local filesystem
type FileImageLoader struct{}

func NewFileImageLoader() *FileImageLoader {
	return &FileImageLoader{}
}

func (l *FileImageLoader) LoadImage(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("image file not found: "+path, err)
		}
		return nil, apperrors.NewInternalError("failed to open image file", err)
	}
	defer f.Close()
	return DecodeImage(f)
}
