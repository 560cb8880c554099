//go:build tesseract

package factory

import (
	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/vision"
	"github.com/GAL1LAO/A2D-Project/internal/vision/tesseract"
)

func newTesseract(language string, log logrus.FieldLogger) (vision.Extractor, func() error, error) {
	client, err := tesseract.NewClient(language, log)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}
