package geometry

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
)

// DebugSink persists intermediate images under a key.
type DebugSink interface {
	Save(ctx context.Context, key string, img image.Image) error
}

// DirSink writes JPEG files into a local directory.
type DirSink struct {
	Dir     string
	Quality int
}

// NewDirSink creates a sink rooted at dir.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir, Quality: 95}
}

// Path returns the file a key is written to.
func (s *DirSink) Path(key string) string {
	return filepath.Join(s.Dir, sanitizeKey(key)+".jpg")
}

func (s *DirSink) Save(ctx context.Context, key string, img image.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create debug dir: %w", err)
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.Quality}); err != nil {
		return fmt.Errorf("encode debug image: %w", err)
	}
	return os.WriteFile(s.Path(key), buf.Bytes(), 0o644)
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, key)
}
