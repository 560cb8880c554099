// Package extraction turns an unreliable free-text answer into a validated
// record set, retrying with a stronger instruction when the answer is
// incomplete.
package extraction

import (
	"context"
	"image"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/clock"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/internal/vision"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// State is a step of one extraction call.
type State string

const (
	StateRequesting State = "requesting"
	StateParsing    State = "parsing"
	StateValidating State = "validating"
	StateEscalating State = "escalating"
	StateAccepted   State = "accepted"
	StateExhausted  State = "exhausted"
)

// Config tunes the retry loop.
type Config struct {
	GaugeMaxAttempts    int
	OverviewMaxAttempts int
	// RetryDelay is observed after an incomplete answer, FailureDelay after a
	// failed request.
	RetryDelay     time.Duration
	FailureDelay   time.Duration
	Rules          Rules
	Separator      rune
	EmphasisClause string
}

// DefaultConfig returns the production settings.
func DefaultConfig() Config {
	return Config{
		GaugeMaxAttempts:    3,
		OverviewMaxAttempts: 5,
		RetryDelay:          2 * time.Second,
		FailureDelay:        3 * time.Second,
		Rules:               DefaultRules(),
		Separator:           DefaultSeparator,
		EmphasisClause:      DefaultEmphasisClause,
	}
}

// MaxAttempts returns the attempt bound for kind.
func (c Config) MaxAttempts(kind models.SourceKind) int {
	if kind == models.SourceKindOverview {
		return c.OverviewMaxAttempts
	}
	return c.GaugeMaxAttempts
}

// Result is the terminal outcome of one Extract call.
type Result struct {
	Records  models.RecordSet
	Attempts []models.ExtractionAttempt
	State    State
}

// Accepted reports whether extraction passed validation.
func (r Result) Accepted() bool { return r.State == StateAccepted }

type request struct {
	source       string
	expectedKeys []string
}

// RequestOption adds per-source context to an Extract call.
type RequestOption func(*request)

// WithSource names the source in logs.
func WithSource(name string) RequestOption {
	return func(r *request) { r.source = name }
}

// WithExpectedKeys lists parameters the answer should contain. Keys still
// missing after an incomplete answer are named in the next instruction.
func WithExpectedKeys(keys []string) RequestOption {
	return func(r *request) { r.expectedKeys = keys }
}

// Engine drives the request, parse, validate and escalate loop.
type Engine struct {
	extractor vision.Extractor
	sleeper   clock.Sleeper
	cfg       Config
	log       logrus.FieldLogger
}

// NewEngine creates an engine. A nil sleeper uses the wall clock.
func NewEngine(extractor vision.Extractor, sleeper clock.Sleeper, cfg Config, log logrus.FieldLogger) *Engine {
	if sleeper == nil {
		sleeper = clock.Real()
	}
	def := DefaultConfig()
	if cfg.GaugeMaxAttempts <= 0 {
		cfg.GaugeMaxAttempts = def.GaugeMaxAttempts
	}
	if cfg.OverviewMaxAttempts <= 0 {
		cfg.OverviewMaxAttempts = def.OverviewMaxAttempts
	}
	if cfg.Rules == (Rules{}) {
		cfg.Rules = def.Rules
	}
	if cfg.Separator == 0 {
		cfg.Separator = def.Separator
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.FailureDelay <= 0 {
		cfg.FailureDelay = def.FailureDelay
	}
	if cfg.EmphasisClause == "" {
		cfg.EmphasisClause = def.EmphasisClause
	}
	return &Engine{extractor: extractor, sleeper: sleeper, cfg: cfg, log: logger.OrDefault(log)}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Extract runs the state machine until the answer is accepted or maxAttempts
// is used up. A non-positive maxAttempts selects the kind default. Exhaustion
// returns the empty sentinel record set; Extract never fails.
func (e *Engine) Extract(ctx context.Context, img image.Image, instruction string, kind models.SourceKind, maxAttempts int, opts ...RequestOption) Result {
	var req request
	for _, opt := range opts {
		opt(&req)
	}
	if maxAttempts <= 0 {
		maxAttempts = e.cfg.MaxAttempts(kind)
	}

	log := e.log.WithFields(logrus.Fields{"source": req.source, "kind": kind})
	var (
		state    = StateRequesting
		current  = instruction
		attempts []models.ExtractionAttempt
		response string
		parsed   ParseResult
		delay    time.Duration
		amend    bool
	)

	for {
		switch state {
		case StateRequesting:
			attempt := models.ExtractionAttempt{Number: len(attempts) + 1, Instruction: current}
			text, err := e.extractor.Extract(ctx, img, current)
			if err != nil {
				attempt.Err = err.Error()
				attempts = append(attempts, attempt)
				log.WithError(err).WithField("attempt", attempt.Number).Warn("Extraction request failed")
				if attempt.Number >= maxAttempts || ctx.Err() != nil {
					state = StateExhausted
					continue
				}
				delay, amend = e.cfg.FailureDelay, false
				state = StateEscalating
				continue
			}
			attempt.Response = text
			attempts = append(attempts, attempt)
			response = text
			state = StateParsing

		case StateParsing:
			parsed = Parse(response, e.cfg.Separator)
			last := &attempts[len(attempts)-1]
			last.Records = parsed.Records
			last.Columns = parsed.Columns
			state = StateValidating

		case StateValidating:
			last := &attempts[len(attempts)-1]
			err := e.cfg.Rules.Check(kind, parsed)
			if err == nil {
				state = StateAccepted
				continue
			}
			last.Err = err.Error()
			log.WithFields(logrus.Fields{
				"attempt":    last.Number,
				"records":    parsed.Records.Len(),
				"columns":    parsed.Columns,
				"structured": parsed.Structured,
			}).WithError(err).Info("Extraction incomplete")
			if last.Number >= maxAttempts {
				state = StateExhausted
				continue
			}
			delay, amend = e.cfg.RetryDelay, true
			state = StateEscalating

		case StateEscalating:
			attempts[len(attempts)-1].Outcome = models.OutcomeRetried
			if amend {
				current = escalate(instruction, e.cfg.EmphasisClause, MissingKeys(req.expectedKeys, parsed.Records))
			}
			if err := e.sleeper.Sleep(ctx, delay); err != nil {
				log.WithError(err).Warn("Extraction cancelled while waiting to retry")
				state = StateExhausted
				continue
			}
			state = StateRequesting

		case StateAccepted:
			last := &attempts[len(attempts)-1]
			last.Outcome = models.OutcomeAccepted
			log.WithFields(logrus.Fields{"attempt": last.Number, "records": parsed.Records.Len()}).Info("Extraction accepted")
			return Result{Records: parsed.Records, Attempts: attempts, State: StateAccepted}

		case StateExhausted:
			if len(attempts) > 0 {
				attempts[len(attempts)-1].Outcome = models.OutcomeExhausted
			}
			log.WithField("attempts", len(attempts)).Warn("Extraction exhausted")
			return Result{Records: models.EmptyRecordSet(), Attempts: attempts, State: StateExhausted}
		}
	}
}
