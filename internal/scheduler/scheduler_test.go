package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/GAL1LAO/A2D-Project/internal/clock"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/repository"
	"github.com/GAL1LAO/A2D-Project/internal/service"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

type scriptedStatus struct {
	answers []bool
	calls   int
}

func (s *scriptedStatus) HasUnprocessed(ctx context.Context) bool {
	i := s.calls
	s.calls++
	if i >= len(s.answers) {
		return false
	}
	return s.answers[i]
}

type countingBatch struct {
	mu      sync.Mutex
	runs    int
	started chan struct{}
	block   chan struct{}
}

func (b *countingBatch) Run(ctx context.Context, sources []service.Source) *models.BatchArtifact {
	if b.started != nil {
		close(b.started)
	}
	if b.block != nil {
		<-b.block
	}
	b.mu.Lock()
	b.runs++
	b.mu.Unlock()
	a := models.NewBatchArtifact()
	for _, s := range sources {
		a.Set(models.SentinelResult(s.Name, models.SourceKindGauge, models.SourceExhausted, nil))
	}
	return a
}

type stubRenderer struct{ err error }

func (r stubRenderer) Bytes(artifact *models.BatchArtifact) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []byte("wb:" + artifact.RunID.String()), nil
}

type recordingPublisher struct {
	err   error
	calls int
}

func (p *recordingPublisher) Publish(ctx context.Context, artifact *models.BatchArtifact, workbook []byte) error {
	p.calls++
	return p.err
}

func newFake() *clock.Fake {
	return clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestScheduler_RunCountsCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := newFake()
	fake.OnSleep = func(n int) {
		if n == 4 {
			cancel()
		}
	}
	status := &scriptedStatus{answers: []bool{true, false, true, false}}
	batch := &countingBatch{}
	pub := &recordingPublisher{err: errors.New("dashboard down")}

	s := New(Config{
		Status:    status,
		Batch:     batch,
		Sources:   []service.Source{{SourceSpec: models.SourceSpec{Name: "A"}}},
		Renderer:  stubRenderer{},
		Publisher: pub,
		Sleeper:   fake,
		Logger:    logger.Discard(),
	})

	err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if status.calls != 4 {
		t.Errorf("Expected 4 status checks, got %d", status.calls)
	}
	if batch.runs != 2 {
		t.Errorf("Expected 2 batch runs, got %d", batch.runs)
	}
	if pub.calls != 2 {
		t.Errorf("Expected a publish attempt per run, got %d", pub.calls)
	}
	want := []time.Duration{DefaultInterval, DefaultInterval, DefaultInterval, DefaultInterval}
	if diff := cmp.Diff(want, fake.Sleeps()); diff != "" {
		t.Errorf("Sleeps mismatch (-want +got):\n%s", diff)
	}

	latest, err := s.Runs().LatestRun(context.Background())
	if err != nil {
		t.Fatalf("LatestRun: %v", err)
	}
	if latest.Published {
		t.Error("Expected failed publish to leave the run unpublished")
	}
}

func TestScheduler_RunCycle(t *testing.T) {
	ctx := context.Background()
	runs := repository.NewMemoryRunRepository(5)
	pub := &recordingPublisher{}
	arch := &recordingPublisher{err: errors.New("no blob")}

	s := New(Config{
		Status:    &scriptedStatus{answers: []bool{false, true}},
		Batch:     &countingBatch{},
		Renderer:  stubRenderer{},
		Runs:      runs,
		Publisher: pub,
		Archiver:  arch,
		Sleeper:   newFake(),
		Logger:    logger.Discard(),
	})

	run, err := s.RunCycle(ctx)
	if err != nil || run != nil {
		t.Fatalf("Expected an idle cycle, got %v (%v)", run, err)
	}

	run, err = s.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if !run.Published || run.Archived {
		t.Errorf("Expected published and not archived, got %+v", run)
	}
	if string(run.Workbook) != "wb:"+run.ID() {
		t.Errorf("Unexpected workbook %q", run.Workbook)
	}
	stored, err := runs.GetRun(ctx, run.ID())
	if err != nil || stored != run {
		t.Errorf("Expected run to be stored, got %v (%v)", stored, err)
	}
}

func TestScheduler_RenderFailure(t *testing.T) {
	s := New(Config{
		Batch:    &countingBatch{},
		Renderer: stubRenderer{err: errors.New("disk full")},
		Sleeper:  newFake(),
		Logger:   logger.Discard(),
	})
	if _, err := s.RunNow(context.Background()); err == nil {
		t.Error("Expected render failure to surface")
	}
	if _, err := s.Runs().LatestRun(context.Background()); !errors.Is(err, repository.ErrRunNotFound) {
		t.Errorf("Expected nothing stored, got %v", err)
	}
}

func TestScheduler_RejectsOverlappingCycles(t *testing.T) {
	batch := &countingBatch{started: make(chan struct{}), block: make(chan struct{})}
	s := New(Config{
		Batch:    batch,
		Renderer: stubRenderer{},
		Sleeper:  newFake(),
		Logger:   logger.Discard(),
	})

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background())
		done <- err
	}()
	<-batch.started

	_, err := s.RunNow(context.Background())
	close(batch.block)
	if !errors.Is(err, ErrCycleInProgress) {
		t.Errorf("Expected ErrCycleInProgress, got %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("First cycle failed: %v", err)
	}
}

func TestScheduler_NoStatusCheckerNeverRunsBatch(t *testing.T) {
	batch := &countingBatch{}
	fake := newFake()
	s := New(Config{
		Batch:    batch,
		Renderer: stubRenderer{},
		Sleeper:  fake,
		Logger:   logger.Discard(),
	})

	for i := 0; i < 3; i++ {
		run, err := s.RunCycle(context.Background())
		if err != nil || run != nil {
			t.Fatalf("Cycle %d: expected no run, got %v (%v)", i, run, err)
		}
	}
	if batch.runs != 0 {
		t.Errorf("Expected no batch runs without a status checker, got %d", batch.runs)
	}

	if _, err := s.RunNow(context.Background()); err != nil {
		t.Fatalf("RunNow: %v", err)
	}
	if batch.runs != 1 {
		t.Errorf("Expected RunNow to bypass the status check, got %d runs", batch.runs)
	}
}

func TestScheduler_RunNowRequiresBatchAndRenderer(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no batch", Config{Renderer: stubRenderer{}}},
		{"no renderer", Config{Batch: &countingBatch{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Sleeper = newFake()
			tt.cfg.Logger = logger.Discard()
			s := New(tt.cfg)
			if _, err := s.RunNow(context.Background()); !errors.Is(err, ErrNotConfigured) {
				t.Errorf("Expected ErrNotConfigured, got %v", err)
			}
		})
	}
}
