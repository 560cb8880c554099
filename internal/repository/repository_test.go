package repository

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

type recordingBackend struct {
	calls []string
}

func (b *recordingBackend) LoadImage(ctx context.Context, path string) (image.Image, error) {
	b.calls = append(b.calls, "file:"+path)
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (b *recordingBackend) FetchImage(ctx context.Context, url string) (image.Image, error) {
	b.calls = append(b.calls, "http:"+url)
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (b *recordingBackend) GetImage(ctx context.Context, container, blob string) (image.Image, error) {
	b.calls = append(b.calls, "blob:"+container+"/"+blob)
	return image.NewGray(image.Rect(0, 0, 1, 1)), nil
}

func (b *recordingBackend) PutBlob(ctx context.Context, container, blob string, data []byte) error {
	return nil
}

func TestLocatorImageRepository_Routes(t *testing.T) {
	backend := &recordingBackend{}
	repo := NewLocatorImageRepository(nil, backend, backend, backend)

	locators := []string{
		"/data/a.jpg",
		"file:///data/b.jpg",
		"https://example.com/img?id=1",
		"azblob://panels/site/c.jpg",
	}
	for _, l := range locators {
		if _, err := repo.FetchImage(context.Background(), l); err != nil {
			t.Fatalf("FetchImage(%s): %v", l, err)
		}
	}

	want := []string{
		"file:/data/a.jpg",
		"file:/data/b.jpg",
		"http:https://example.com/img?id=1",
		"blob:panels/site/c.jpg",
	}
	if diff := cmp.Diff(want, backend.calls); diff != "" {
		t.Errorf("Routing mismatch (-want +got):\n%s", diff)
	}
}

func TestLocatorImageRepository_Unavailable(t *testing.T) {
	repo := NewLocatorImageRepository(nil, nil, nil, nil)
	_, err := repo.FetchImage(context.Background(), "azblob://panels/c.jpg")
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("Expected ErrSourceUnavailable, got %v", err)
	}
	if err := repo.ValidateLocator(""); err == nil {
		t.Error("Expected empty locator to be invalid")
	}
}

func TestMemoryRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository(2)

	if _, err := repo.LatestRun(ctx); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("Expected ErrRunNotFound, got %v", err)
	}

	runs := make([]*StoredRun, 3)
	for i := range runs {
		runs[i] = &StoredRun{Artifact: models.NewBatchArtifact(), Workbook: []byte{byte(i)}}
		if err := repo.SaveRun(ctx, runs[i]); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := repo.LatestRun(ctx)
	if err != nil || latest != runs[2] {
		t.Errorf("Expected the newest run, got %v (%v)", latest, err)
	}
	if _, err := repo.GetRun(ctx, runs[0].ID()); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected the oldest run to be evicted, got %v", err)
	}
	if got, err := repo.GetRun(ctx, runs[1].ID()); err != nil || got != runs[1] {
		t.Errorf("Expected run 1 to be kept, got %v (%v)", got, err)
	}
}
