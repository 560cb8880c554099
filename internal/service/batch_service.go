package service

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/extraction"
	"github.com/GAL1LAO/A2D-Project/internal/geometry"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/observer"
	"github.com/GAL1LAO/A2D-Project/internal/repository"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// Source is one entry of a batch. A non-nil Image is used as is; otherwise
// the locator is resolved through the image repository.
type Source struct {
	models.SourceSpec
	Image image.Image
}

// SourcesFromSpecs wraps configured specs for a batch run.
func SourcesFromSpecs(specs []models.SourceSpec) []Source {
	out := make([]Source, len(specs))
	for i, s := range specs {
		out[i] = Source{SourceSpec: s}
	}
	return out
}

// ProfileLookup resolves a system identity to its display profile
type ProfileLookup interface {
	Profile(system string) (models.DisplayProfile, bool)
}

// BatchRunner runs one batch over a list of sources
type BatchRunner interface {
	Run(ctx context.Context, sources []Source) *models.BatchArtifact
}

// Option configures a BatchService
type Option func(*BatchService)

// WithParallelism bounds how many sources are processed at once
func WithParallelism(n int) Option {
	return func(s *BatchService) {
		if n > 0 {
			s.parallelism = n
		}
	}
}

// WithEvents publishes lifecycle events to subject
func WithEvents(subject observer.Subject) Option {
	return func(s *BatchService) { s.events = subject }
}

// WithDefaultSystem sets the system used by sources that name none
func WithDefaultSystem(system string) Option {
	return func(s *BatchService) { s.defaultSystem = system }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *BatchService) { s.log = logger.OrDefault(l) }
}

// BatchService turns a list of sources into a BatchArtifact
type BatchService struct {
	images        repository.ImageRepository
	profiles      ProfileLookup
	normalizer    *geometry.Normalizer
	engine        *extraction.Engine
	events        observer.Subject
	parallelism   int
	defaultSystem string
	log           logrus.FieldLogger
}

// NewBatchService creates a batch service
func NewBatchService(
	images repository.ImageRepository,
	profiles ProfileLookup,
	normalizer *geometry.Normalizer,
	engine *extraction.Engine,
	opts ...Option,
) *BatchService {
	s := &BatchService{
		images:      images,
		profiles:    profiles,
		normalizer:  normalizer,
		engine:      engine,
		parallelism: 1,
		log:         logger.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = geometry.NewNormalizer(geometry.WithLogger(s.log))
	}
	return s
}

// Run processes every source and returns one result per source in input
// order. A source that fails never affects the others.
func (s *BatchService) Run(ctx context.Context, sources []Source) *models.BatchArtifact {
	artifact := models.NewBatchArtifact()
	runID := artifact.RunID.String()
	log := s.log.WithField("run_id", runID)
	log.WithField("sources", len(sources)).Info("Starting batch run")
	s.notify(ctx, observer.BatchEvent{EventType: observer.BatchStarted, RunID: runID})

	results := make([]models.SourceResult, len(sources))
	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i := range sources {
		i := i
		g.Go(func() error {
			results[i] = s.processSafe(ctx, runID, sources[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		artifact.Set(res)
	}
	artifact.FinishedAt = time.Now().UTC()
	duration := artifact.FinishedAt.Sub(artifact.StartedAt)

	s.notify(ctx, observer.BatchEvent{EventType: observer.BatchCompleted, RunID: runID, Duration: duration})
	log.WithFields(logrus.Fields{
		"accepted": artifact.Summary().Accepted,
		"duration": duration,
	}).Info("Batch run finished")
	return artifact
}

func (s *BatchService) processSafe(ctx context.Context, runID string, src Source) (res models.SourceResult) {
	start := time.Now()
	kind := src.Kind
	if kind == "" {
		kind = models.SourceKindGauge
	}

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewInternalError("source processing panicked", fmt.Errorf("%v", r))
			res = models.SentinelResult(src.Name, kind, models.SourceFailed, err)
		}

		ev := observer.BatchEvent{
			EventType: observer.SourceCompleted,
			RunID:     runID,
			Source:    res.Name,
			Status:    res.Status,
			Rows:      res.Records.Len(),
			Attempts:  res.Attempts,
			Rectified: res.Rectified,
			Duration:  time.Since(start),
			Error:     res.Error,
		}
		if res.Status == models.SourceFailed {
			ev.EventType = observer.SourceFailed
		}
		s.notify(ctx, ev)
	}()

	res, err := s.process(ctx, src, kind)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"run_id": runID,
			"source": src.Name,
		}).Error("Source failed")
		return models.SentinelResult(src.Name, kind, models.SourceFailed, err)
	}
	return res
}

func (s *BatchService) process(ctx context.Context, src Source, kind models.SourceKind) (models.SourceResult, error) {
	img, err := s.resolveImage(ctx, src)
	if err != nil {
		return models.SourceResult{}, err
	}

	system := src.System
	if system == "" {
		system = s.defaultSystem
	}
	if s.profiles == nil {
		return models.SourceResult{}, apperrors.NewConfigError("no display profiles configured", nil)
	}
	profile, ok := s.profiles.Profile(system)
	if !ok {
		return models.SourceResult{}, apperrors.NewConfigError(fmt.Sprintf("no display profile for system %q", system), nil)
	}

	norm := s.normalizer.NormalizeSource(ctx, src.Name, img, profile)
	extracted := s.engine.Extract(ctx, norm.Image, src.Instruction, kind, src.MaxAttempts,
		extraction.WithSource(src.Name),
		extraction.WithExpectedKeys(src.ExpectedKeys),
	)

	res := models.SourceResult{
		Name:      src.Name,
		Kind:      kind,
		Records:   extracted.Records,
		Status:    models.SourceAccepted,
		Attempts:  len(extracted.Attempts),
		Rectified: norm.Rectified,
	}
	if !extracted.Accepted() {
		res.Status = models.SourceExhausted
		res.Records = models.EmptyRecordSet()
	}
	return res, nil
}

func (s *BatchService) resolveImage(ctx context.Context, src Source) (image.Image, error) {
	if src.Image != nil {
		return src.Image, nil
	}
	if s.images == nil {
		return nil, apperrors.NewConfigError("no image repository configured", nil)
	}
	img, err := s.images.FetchImage(ctx, src.Locator)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", src.Locator, err)
	}
	return img, nil
}

func (s *BatchService) notify(ctx context.Context, ev observer.BatchEvent) {
	if s.events != nil {
		s.events.NotifyObservers(ctx, ev)
	}
}
