package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// BatchEvent represents a step in a batch run
type BatchEvent struct {
	EventType EventType           `json:"event_type"`
	Timestamp time.Time           `json:"timestamp"`
	RunID     string              `json:"run_id"`
	Source    string              `json:"source,omitempty"`
	Status    models.SourceStatus `json:"status,omitempty"`
	Rows      int                 `json:"rows,omitempty"`
	Attempts  int                 `json:"attempts,omitempty"`
	Rectified bool                `json:"rectified,omitempty"`
	Duration  time.Duration       `json:"duration"`
	Error     string              `json:"error,omitempty"`
}

// EventType represents the type of batch event
type EventType string

const (
	// BatchStarted when a run begins
	BatchStarted EventType = "batch_started"
	// SourceCompleted when a source reaches accepted or exhausted
	SourceCompleted EventType = "source_completed"
	// SourceFailed when a source hits a hard error
	SourceFailed EventType = "source_failed"
	// BatchCompleted when every source has a result
	BatchCompleted EventType = "batch_completed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event BatchEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event BatchEvent)
}

// LoggingObserver logs batch events
type LoggingObserver struct {
	logger logrus.FieldLogger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(log logrus.FieldLogger) Observer {
	return &LoggingObserver{logger: logger.OrDefault(log)}
}

// OnEvent handles batch events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event BatchEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"run_id":     event.RunID,
		"duration":   event.Duration,
	}
	if event.Source != "" {
		fields["source"] = event.Source
		fields["status"] = event.Status
		fields["rows"] = event.Rows
		fields["attempts"] = event.Attempts
		fields["rectified"] = event.Rectified
	}
	if event.Error != "" {
		fields["error"] = event.Error
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case BatchStarted:
		entry.Info("Batch run started")
	case SourceCompleted:
		if event.Status == models.SourceExhausted {
			entry.Warn("Source exhausted its attempts")
			return
		}
		entry.Info("Source completed")
	case SourceFailed:
		entry.Error("Source failed")
	case BatchCompleted:
		entry.Info("Batch run completed")
	default:
		entry.Info("Batch event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// Metrics is a snapshot of MetricsObserver counters
type Metrics struct {
	Runs           int64         `json:"runs"`
	Accepted       int64         `json:"accepted"`
	Exhausted      int64         `json:"exhausted"`
	Failed         int64         `json:"failed"`
	Rectified      int64         `json:"rectified"`
	TotalRunTime   time.Duration `json:"total_run_time"`
	AverageRunTime time.Duration `json:"average_run_time"`
	LastRunID      string        `json:"last_run_id,omitempty"`
}

// MetricsObserver collects counters from batch events
type MetricsObserver struct {
	mu        sync.RWMutex
	runs      int64
	accepted  int64
	exhausted int64
	failed    int64
	rectified int64
	runTime   time.Duration
	lastRunID string
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles batch events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event BatchEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case BatchStarted:
		o.runs++
		o.lastRunID = event.RunID
	case SourceCompleted:
		if event.Status == models.SourceAccepted {
			o.accepted++
		} else {
			o.exhausted++
		}
		if event.Rectified {
			o.rectified++
		}
	case SourceFailed:
		o.failed++
	case BatchCompleted:
		o.runTime += event.Duration
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	m := Metrics{
		Runs:         o.runs,
		Accepted:     o.accepted,
		Exhausted:    o.exhausted,
		Failed:       o.failed,
		Rectified:    o.rectified,
		TotalRunTime: o.runTime,
		LastRunID:    o.lastRunID,
	}
	if o.runs > 0 {
		m.AverageRunTime = o.runTime / time.Duration(o.runs)
	}
	return m
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	log       logrus.FieldLogger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(log logrus.FieldLogger) *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
		log:       logger.OrDefault(log),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers an event to every observer in subscription order.
// A panicking observer is logged and skipped.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event BatchEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		p.notify(ctx, obs, event)
	}
}

func (p *EventPublisher) notify(ctx context.Context, obs Observer, event BatchEvent) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
