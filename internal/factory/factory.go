package factory

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/clock"
	"github.com/GAL1LAO/A2D-Project/internal/config"
	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/repository"
	"github.com/GAL1LAO/A2D-Project/internal/storage"
	"github.com/GAL1LAO/A2D-Project/internal/vision"
	"github.com/GAL1LAO/A2D-Project/internal/vision/openai"
	"github.com/GAL1LAO/A2D-Project/pkg/validation"
)

// Separator the parser uses for each backend. Tesseract reads panel lines
// like "Druck: 3.4 bar", the vision model answers in CSV.
const (
	openAISeparator    = ','
	tesseractSeparator = ':'
)

// Backend is a ready extractor plus what the parser needs to read its output
type Backend struct {
	Name      string
	Extractor vision.Extractor
	Separator rune
	close     func() error
}

// Close releases backend resources
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// ExtractorFactory creates extraction backends
type ExtractorFactory interface {
	CreateExtractor(cfg *config.Config) (*Backend, error)
}

// StorageFactory creates image storage backends
type StorageFactory interface {
	CreateFetcher(timeout time.Duration) storage.ImageFetcher
	CreateBlobStorage(cfg *config.Config) (storage.BlobStorage, error)
	CreateImageRepository(cfg *config.Config) (repository.ImageRepository, storage.BlobStorage, error)
}

type extractorFactory struct {
	log logrus.FieldLogger
}

// NewExtractorFactory creates a new extractor factory
func NewExtractorFactory(log logrus.FieldLogger) ExtractorFactory {
	return &extractorFactory{log: logger.OrDefault(log)}
}

// CreateExtractor creates the backend named by cfg.ExtractorBackend
func (f *extractorFactory) CreateExtractor(cfg *config.Config) (*Backend, error) {
	switch cfg.ExtractorBackend {
	case config.BackendOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, apperrors.NewConfigError("OPENAI_API_KEY is required for the openai backend", nil)
		}
		client := openai.NewClient(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
		}, f.log.WithField("backend", config.BackendOpenAI))
		return &Backend{Name: config.BackendOpenAI, Extractor: client, Separator: openAISeparator}, nil
	case config.BackendTesseract:
		ex, closeFn, err := newTesseract(cfg.TesseractLanguage, f.log.WithField("backend", config.BackendTesseract))
		if err != nil {
			return nil, err
		}
		return &Backend{Name: config.BackendTesseract, Extractor: ex, Separator: tesseractSeparator, close: closeFn}, nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported extractor backend: %s", cfg.ExtractorBackend), nil)
	}
}

type storageFactory struct {
	log     logrus.FieldLogger
	sleeper clock.Sleeper
}

// NewStorageFactory creates a new storage factory. A nil sleeper uses the wall clock.
func NewStorageFactory(sleeper clock.Sleeper, log logrus.FieldLogger) StorageFactory {
	if sleeper == nil {
		sleeper = clock.Real()
	}
	return &storageFactory{log: logger.OrDefault(log), sleeper: sleeper}
}

// CreateFetcher creates the HTTP image fetcher
func (f *storageFactory) CreateFetcher(timeout time.Duration) storage.ImageFetcher {
	return storage.NewHTTPImageFetcher(timeout, storage.WithSleeper(f.sleeper))
}

// CreateBlobStorage creates the Azure client, or nil when no account is configured
func (f *storageFactory) CreateBlobStorage(cfg *config.Config) (storage.BlobStorage, error) {
	if !cfg.AzureEnabled() {
		return nil, nil
	}
	return storage.NewAzureStorage(cfg.AzureAccountName, cfg.AzureAccountKey)
}

// CreateImageRepository wires file, HTTP and blob backends behind one repository
func (f *storageFactory) CreateImageRepository(cfg *config.Config) (repository.ImageRepository, storage.BlobStorage, error) {
	blobs, err := f.CreateBlobStorage(cfg)
	if err != nil {
		return nil, nil, err
	}
	if blobs == nil {
		f.log.Debug("Azure storage not configured, azblob locators are unavailable")
	}
	repo := repository.NewLocatorImageRepository(
		validation.NewLocatorValidator(),
		storage.NewFileImageLoader(),
		f.CreateFetcher(cfg.ImageFetchTimeout),
		blobs,
	)
	return repo, blobs, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	ExtractorFactory ExtractorFactory
	StorageFactory   StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(log logrus.FieldLogger) *ComponentFactory {
	return &ComponentFactory{
		ExtractorFactory: NewExtractorFactory(log),
		StorageFactory:   NewStorageFactory(nil, log),
	}
}
