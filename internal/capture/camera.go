package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"strconv"

	"github.com/sirupsen/logrus"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/storage"
)

// Frame size requested from the camera.
const (
	FrameWidth  = 2048
	FrameHeight = 1536
)

// warmupMillis lets exposure settle before the frame is taken.
const warmupMillis = 3000

// Camera takes still frames through an external command that writes a JPEG
// to stdout, libcamera-still style.
type Camera struct {
	runner  Runner
	command string
	width   int
	height  int
	log     logrus.FieldLogger
}

// NewCamera creates a camera. A nil runner uses ExecRunner.
func NewCamera(runner Runner, command string, log logrus.FieldLogger) *Camera {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Camera{
		runner:  runner,
		command: command,
		width:   FrameWidth,
		height:  FrameHeight,
		log:     logger.OrDefault(log),
	}
}

// Args returns the command line arguments of one capture.
func (c *Camera) Args() []string {
	return []string{
		"-n",
		"-t", strconv.Itoa(warmupMillis),
		"--width", strconv.Itoa(c.width),
		"--height", strconv.Itoa(c.height),
		"-e", "jpg",
		"-o", "-",
	}
}

// Capture takes one frame and returns it upright. The camera is mounted
// upside down, so every frame is rotated by 180 degrees.
func (c *Camera) Capture(ctx context.Context) (image.Image, error) {
	if c.command == "" {
		return nil, apperrors.NewConfigError("camera command is not configured", nil)
	}
	stdout, stderr, err := c.runner.Run(ctx, c.command, c.log, c.Args()...)
	if err != nil {
		return nil, apperrors.NewProcessingError(
			"camera command failed",
			fmt.Errorf("%w: %s", err, bytes.TrimSpace(stderr)),
		)
	}
	if len(stdout) == 0 {
		return nil, apperrors.NewProcessingError("camera produced no frame", nil)
	}
	frame, err := storage.DecodeBytes(stdout)
	if err != nil {
		return nil, err
	}
	return Rotate180(frame), nil
}

// Rotate180 returns a copy of img turned upside down.
func Rotate180(img image.Image) *image.RGBA {
	b := img.Bounds()
	src := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srow := src.Pix[y*src.Stride : y*src.Stride+w*4]
		drow := dst.Pix[(h-1-y)*dst.Stride : (h-1-y)*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			copy(drow[(w-1-x)*4:(w-1-x)*4+4], srow[x*4:x*4+4])
		}
	}
	return dst
}
