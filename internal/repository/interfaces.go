package repository

import (
	"context"
	"image"

	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// ImageRepository resolves image locators to decoded images
type ImageRepository interface {
	// FetchImage retrieves the image a locator points at
	FetchImage(ctx context.Context, locator string) (image.Image, error)

	// ValidateLocator checks a locator without fetching it
	ValidateLocator(locator string) error
}

// RunRepository keeps finished batch runs and their workbooks
type RunRepository interface {
	SaveRun(ctx context.Context, run *StoredRun) error
	LatestRun(ctx context.Context) (*StoredRun, error)
	GetRun(ctx context.Context, id string) (*StoredRun, error)
}

// StoredRun is a finished batch run with its serialized workbook
type StoredRun struct {
	Artifact  *models.BatchArtifact
	Workbook  []byte
	Published bool
	Archived  bool
}

// ID returns the run identifier
func (r *StoredRun) ID() string {
	return r.Artifact.RunID.String()
}
