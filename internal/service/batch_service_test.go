package service

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GAL1LAO/A2D-Project/internal/clock"
	"github.com/GAL1LAO/A2D-Project/internal/extraction"
	"github.com/GAL1LAO/A2D-Project/internal/geometry"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/observer"
	"github.com/GAL1LAO/A2D-Project/internal/vision"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

const completeAnswer = "Parameter,Wert\nDruck,3.4 bar\nTemp,22 C\n"

type fakeImages map[string]image.Image

func (f fakeImages) FetchImage(ctx context.Context, locator string) (image.Image, error) {
	img, ok := f[locator]
	if !ok {
		return nil, errors.New("no such image")
	}
	return img, nil
}

func (f fakeImages) ValidateLocator(locator string) error { return nil }

type profileMap map[string]models.DisplayProfile

func (p profileMap) Profile(system string) (models.DisplayProfile, bool) {
	prof, ok := p[system]
	return prof, ok
}

var testProfiles = profileMap{
	"1": {MinThresh: 50, MaxThresh: 150, WidthDef: 800, HeightDef: 480, DimTolerance: 0.1},
}

// uniform returns a featureless image whose width identifies it to the extractor.
func uniform(w int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, 16))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return img
}

func newTestService(t *testing.T, ex vision.Extractor, opts ...Option) *BatchService {
	t.Helper()
	fake := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	engine := extraction.NewEngine(ex, fake, extraction.DefaultConfig(), logger.Discard())
	norm := geometry.NewNormalizer(geometry.WithLogger(logger.Discard()))
	images := fakeImages{"a.jpg": uniform(20), "c.jpg": uniform(22)}
	opts = append([]Option{WithLogger(logger.Discard()), WithDefaultSystem("1")}, opts...)
	return NewBatchService(images, testProfiles, norm, engine, opts...)
}

func spec(name, locator string) models.SourceSpec {
	return models.SourceSpec{Name: name, Locator: locator, Instruction: "Lies die Werte ab."}
}

func statuses(a *models.BatchArtifact) map[string]models.SourceStatus {
	out := make(map[string]models.SourceStatus)
	for _, r := range a.Results() {
		out[r.Name] = r.Status
	}
	return out
}

func TestBatchService_FailureIsolation(t *testing.T) {
	answer := vision.ExtractorFunc(func(ctx context.Context, img image.Image, instruction string) (string, error) {
		return completeAnswer, nil
	})

	for _, parallelism := range []int{1, 3} {
		svc := newTestService(t, answer, WithParallelism(parallelism))
		sources := SourcesFromSpecs([]models.SourceSpec{
			spec("A", "a.jpg"),
			spec("B", "missing.jpg"),
			spec("C", "c.jpg"),
		})

		artifact := svc.Run(context.Background(), sources)

		if diff := cmp.Diff([]string{"A", "B", "C"}, artifact.Names()); diff != "" {
			t.Errorf("parallelism %d: order mismatch (-want +got):\n%s", parallelism, diff)
		}
		want := map[string]models.SourceStatus{
			"A": models.SourceAccepted,
			"B": models.SourceFailed,
			"C": models.SourceAccepted,
		}
		if diff := cmp.Diff(want, statuses(artifact)); diff != "" {
			t.Errorf("parallelism %d: status mismatch (-want +got):\n%s", parallelism, diff)
		}
		b, _ := artifact.Get("B")
		if !b.Records.IsEmpty() || b.Error == "" {
			t.Errorf("Expected B to be an empty sentinel with an error, got %+v", b)
		}
		a, _ := artifact.Get("A")
		if diff := cmp.Diff([]string{"Druck", "Temp"}, a.Records.Parameters()); diff != "" {
			t.Errorf("A records mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestBatchService_PanicBecomesSentinel(t *testing.T) {
	ex := vision.ExtractorFunc(func(ctx context.Context, img image.Image, instruction string) (string, error) {
		if img.Bounds().Dx() == 21 {
			panic("decoder exploded")
		}
		return completeAnswer, nil
	})
	svc := newTestService(t, ex)

	sources := []Source{
		{SourceSpec: spec("A", "a.jpg")},
		{SourceSpec: spec("B", ""), Image: uniform(21)},
		{SourceSpec: spec("C", "c.jpg")},
	}
	artifact := svc.Run(context.Background(), sources)

	want := map[string]models.SourceStatus{
		"A": models.SourceAccepted,
		"B": models.SourceFailed,
		"C": models.SourceAccepted,
	}
	if diff := cmp.Diff(want, statuses(artifact)); diff != "" {
		t.Errorf("Status mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchService_ExhaustedAndMissingProfile(t *testing.T) {
	ex := vision.ExtractorFunc(func(ctx context.Context, img image.Image, instruction string) (string, error) {
		return "Ich kann nichts erkennen.", nil
	})
	svc := newTestService(t, ex)

	unknown := spec("D", "a.jpg")
	unknown.System = "7"
	artifact := svc.Run(context.Background(), SourcesFromSpecs([]models.SourceSpec{spec("A", "a.jpg"), unknown}))

	a, _ := artifact.Get("A")
	if a.Status != models.SourceExhausted || a.Attempts != 3 || !a.Records.IsEmpty() {
		t.Errorf("Expected A exhausted after 3 attempts with no rows, got %+v", a)
	}
	d, _ := artifact.Get("D")
	if d.Status != models.SourceFailed {
		t.Errorf("Expected D to fail on a missing profile, got %+v", d)
	}
}

func TestBatchService_GivenImageWins(t *testing.T) {
	var widths []int
	ex := vision.ExtractorFunc(func(ctx context.Context, img image.Image, instruction string) (string, error) {
		widths = append(widths, img.Bounds().Dx())
		return completeAnswer, nil
	})
	svc := newTestService(t, ex)

	src := Source{SourceSpec: spec("A", "a.jpg"), Image: uniform(30)}
	artifact := svc.Run(context.Background(), []Source{src})

	if diff := cmp.Diff([]int{30}, widths); diff != "" {
		t.Errorf("Expected the given image to be used (-want +got):\n%s", diff)
	}
	if r, _ := artifact.Get("A"); r.Status != models.SourceAccepted {
		t.Errorf("Expected accepted, got %s", r.Status)
	}
}

func TestBatchService_Events(t *testing.T) {
	ex := vision.ExtractorFunc(func(ctx context.Context, img image.Image, instruction string) (string, error) {
		return completeAnswer, nil
	})
	metrics := observer.NewMetricsObserver()
	pub := observer.NewEventPublisher(logger.Discard())
	pub.Subscribe(metrics)
	svc := newTestService(t, ex, WithEvents(pub))

	artifact := svc.Run(context.Background(), SourcesFromSpecs([]models.SourceSpec{
		spec("A", "a.jpg"),
		spec("B", "missing.jpg"),
	}))

	got := metrics.GetMetrics()
	if got.Runs != 1 || got.Accepted != 1 || got.Failed != 1 {
		t.Errorf("Unexpected metrics: %+v", got)
	}
	if got.LastRunID != artifact.RunID.String() {
		t.Errorf("Expected run id %s, got %s", artifact.RunID, got.LastRunID)
	}
}

