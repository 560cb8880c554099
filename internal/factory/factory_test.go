package factory

import (
	"context"
	"errors"
	"testing"

	"github.com/GAL1LAO/A2D-Project/internal/clock"
	"github.com/GAL1LAO/A2D-Project/internal/config"
	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/repository"
)

func TestCreateExtractor_OpenAI(t *testing.T) {
	f := NewExtractorFactory(logger.Discard())
	b, err := f.CreateExtractor(&config.Config{ExtractorBackend: config.BackendOpenAI, OpenAIAPIKey: "sk-test"})
	if err != nil {
		t.Fatalf("CreateExtractor: %v", err)
	}
	if b.Separator != ',' || b.Name != config.BackendOpenAI {
		t.Errorf("Unexpected backend %+v", b)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestCreateExtractor_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
	}{
		{"openai without key", config.Config{ExtractorBackend: config.BackendOpenAI}},
		{"unknown backend", config.Config{ExtractorBackend: "magic"}},
	}
	f := NewExtractorFactory(logger.Discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.CreateExtractor(&tt.cfg)
			if !apperrors.IsType(err, apperrors.ErrorTypeConfig) {
				t.Errorf("Expected config error, got %v", err)
			}
		})
	}
}

func TestCreateImageRepository_WithoutAzure(t *testing.T) {
	f := NewStorageFactory(clock.NewFake(clock.Real().Now()), logger.Discard())
	repo, blobs, err := f.CreateImageRepository(&config.Config{})
	if err != nil {
		t.Fatalf("CreateImageRepository: %v", err)
	}
	if blobs != nil {
		t.Error("Expected no blob storage without credentials")
	}
	_, err = repo.FetchImage(context.Background(), "azblob://panels/a.jpg")
	if !errors.Is(err, repository.ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
}
