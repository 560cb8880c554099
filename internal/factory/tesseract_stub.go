//go:build !tesseract

package factory

import (
	"github.com/sirupsen/logrus"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/vision"
)

func newTesseract(language string, log logrus.FieldLogger) (vision.Extractor, func() error, error) {
	return nil, nil, apperrors.NewConfigError("binary built without tesseract support, rebuild with -tags tesseract", nil)
}
