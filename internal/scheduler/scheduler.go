// Package scheduler polls the dashboard and runs a batch whenever new input
// is reported.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/clock"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/publish"
	"github.com/GAL1LAO/A2D-Project/internal/repository"
	"github.com/GAL1LAO/A2D-Project/internal/service"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// DefaultInterval is the pause between two cycles.
const DefaultInterval = 2 * time.Minute

var (
	// ErrCycleInProgress is returned when a cycle is requested while one runs.
	ErrCycleInProgress = errors.New("a batch cycle is already running")
	// ErrNotConfigured is returned by RunNow when Batch or Renderer is missing.
	ErrNotConfigured = errors.New("scheduler needs a batch runner and a workbook renderer")
)

// WorkbookRenderer turns an artifact into workbook bytes
type WorkbookRenderer interface {
	Bytes(artifact *models.BatchArtifact) ([]byte, error)
}

// Config wires a Scheduler. Batch and Renderer are required. Without Status
// scheduled cycles never run a batch; only RunNow does. Publisher, Archiver
// and Runs are optional.
type Config struct {
	Status    publish.StatusChecker
	Batch     service.BatchRunner
	Sources   []service.Source
	Renderer  WorkbookRenderer
	Runs      repository.RunRepository
	Publisher publish.WorkbookPublisher
	Archiver  publish.WorkbookPublisher
	Sleeper   clock.Sleeper
	Interval  time.Duration
	Logger    logrus.FieldLogger
}

// Scheduler runs the status, batch, export and publish cycle
type Scheduler struct {
	cfg  Config
	log  logrus.FieldLogger
	busy sync.Mutex
}

// New creates a scheduler
func New(cfg Config) *Scheduler {
	if cfg.Sleeper == nil {
		cfg.Sleeper = clock.Real()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Runs == nil {
		cfg.Runs = repository.NewMemoryRunRepository(0)
	}
	return &Scheduler{cfg: cfg, log: logger.OrDefault(cfg.Logger)}
}

// Runs returns the repository finished runs are stored in
func (s *Scheduler) Runs() repository.RunRepository { return s.cfg.Runs }

// Run loops until ctx is cancelled. Cycle errors are logged and never stop
// the loop. The returned error is the context's.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.WithField("interval", s.cfg.Interval).Info("Scheduler started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.RunCycle(ctx); err != nil && !errors.Is(err, ErrCycleInProgress) {
			s.log.WithError(err).Error("Batch cycle failed")
		}
		if err := s.cfg.Sleeper.Sleep(ctx, s.cfg.Interval); err != nil {
			s.log.Info("Scheduler stopped")
			return err
		}
	}
}

// RunCycle performs one cycle. It returns a nil run when the status endpoint
// reports nothing to do or no status checker is configured.
func (s *Scheduler) RunCycle(ctx context.Context) (*repository.StoredRun, error) {
	if s.cfg.Status == nil {
		s.log.Debug("No status checker, skipping cycle")
		return nil, nil
	}
	if !s.cfg.Status.HasUnprocessed(ctx) {
		s.log.Debug("No unprocessed input")
		return nil, nil
	}
	return s.RunNow(ctx)
}

// RunNow runs a batch without asking the status endpoint first.
func (s *Scheduler) RunNow(ctx context.Context) (*repository.StoredRun, error) {
	if s.cfg.Batch == nil || s.cfg.Renderer == nil {
		return nil, ErrNotConfigured
	}
	if !s.busy.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer s.busy.Unlock()

	artifact := s.cfg.Batch.Run(ctx, s.cfg.Sources)
	log := s.log.WithField("run_id", artifact.RunID.String())

	workbook, err := s.cfg.Renderer.Bytes(artifact)
	if err != nil {
		return nil, err
	}
	run := &repository.StoredRun{Artifact: artifact, Workbook: workbook}

	if s.cfg.Publisher != nil {
		if err := s.cfg.Publisher.Publish(ctx, artifact, workbook); err != nil {
			log.WithError(err).Error("Publishing workbook failed")
		} else {
			run.Published = true
		}
	}
	if s.cfg.Archiver != nil {
		if err := s.cfg.Archiver.Publish(ctx, artifact, workbook); err != nil {
			log.WithError(err).Warn("Archiving workbook failed")
		} else {
			run.Archived = true
		}
	}

	if err := s.cfg.Runs.SaveRun(ctx, run); err != nil {
		return run, err
	}
	log.WithFields(logrus.Fields{
		"published": run.Published,
		"archived":  run.Archived,
		"bytes":     len(workbook),
	}).Info("Batch cycle finished")
	return run, nil
}
