package repository

import (
	"context"
	"image"

	"github.com/GAL1LAO/A2D-Project/internal/storage"
	"github.com/GAL1LAO/A2D-Project/pkg/validation"
)

// FileLoader reads local images
type FileLoader interface {
	LoadImage(ctx context.Context, path string) (image.Image, error)
}

// LocatorImageRepository routes each locator to the matching storage backend
type LocatorImageRepository struct {
	validator *validation.LocatorValidator
	files     FileLoader
	fetcher   storage.ImageFetcher
	blobs     storage.BlobStorage
}

// NewLocatorImageRepository creates a repository. A nil backend makes its
// locator kind unavailable.
func NewLocatorImageRepository(validator *validation.LocatorValidator, files FileLoader, fetcher storage.ImageFetcher, blobs storage.BlobStorage) *LocatorImageRepository {
	if validator == nil {
		validator = validation.NewLocatorValidator()
	}
	return &LocatorImageRepository{
		validator: validator,
		files:     files,
		fetcher:   fetcher,
		blobs:     blobs,
	}
}

// FetchImage retrieves the image a locator points at
func (r *LocatorImageRepository) FetchImage(ctx context.Context, locator string) (image.Image, error) {
	kind, err := r.validator.Classify(locator)
	if err != nil {
		return nil, err
	}

	switch kind {
	case validation.LocatorHTTP:
		if r.fetcher == nil {
			return nil, ErrSourceUnavailable
		}
		return r.fetcher.FetchImage(ctx, locator)
	case validation.LocatorBlob:
		if r.blobs == nil {
			return nil, ErrSourceUnavailable
		}
		container, blob, err := storage.ParseBlobLocator(locator)
		if err != nil {
			return nil, err
		}
		return r.blobs.GetImage(ctx, container, blob)
	default:
		if r.files == nil {
			return nil, ErrSourceUnavailable
		}
		return r.files.LoadImage(ctx, validation.FilePath(locator))
	}
}

// ValidateLocator checks a locator without fetching it
func (r *LocatorImageRepository) ValidateLocator(locator string) error {
	return r.validator.Validate(locator)
}
