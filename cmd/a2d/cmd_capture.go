package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/GAL1LAO/A2D-Project/internal/container"
)

var captureFlags struct {
	once bool
}

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Run the camera host loop",
	Long: `Reads capture_interval from CAMERA_SETTINGS_URL every CAPTURE_POLL_INTERVAL,
takes a 2048x1536 frame with CAMERA_COMMAND whenever the interval has passed
(or right away when it changed), turns it upright and uploads it to
CAMERA_CAPTURE_URL as img_1.jpg.`,
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().BoolVar(&captureFlags.once, "once", false, "Capture and upload a single frame, then exit")
}

func runCapture(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	dev, err := container.NewCaptureDevice(cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if captureFlags.once {
		return dev.CaptureOnce(ctx)
	}
	if err := dev.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
