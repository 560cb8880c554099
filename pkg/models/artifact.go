package models

import (
	"time"

	"github.com/google/uuid"
)

// SourceStatus is the terminal state of one source in a batch run.
type SourceStatus string

const (
	// SourceAccepted means extraction passed validation.
	SourceAccepted SourceStatus = "accepted"
	// SourceExhausted means every attempt was used without an acceptable result.
	SourceExhausted SourceStatus = "exhausted"
	// SourceFailed means a hard error happened before extraction could finish.
	SourceFailed SourceStatus = "failed"
)

// SourceResult is the terminal record set of one named source.
type SourceResult struct {
	Name      string       `json:"name"`
	Kind      SourceKind   `json:"kind"`
	Records   RecordSet    `json:"records"`
	Status    SourceStatus `json:"status"`
	Attempts  int          `json:"attempts"`
	Rectified bool         `json:"rectified"`
	Error     string       `json:"error,omitempty"`
}

// SentinelResult builds the empty result recorded for a failed or exhausted source.
func SentinelResult(name string, kind SourceKind, status SourceStatus, err error) SourceResult {
	res := SourceResult{
		Name:    name,
		Kind:    kind,
		Records: EmptyRecordSet(),
		Status:  status,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// BatchArtifact maps source names to results, in the order sources were configured.
type BatchArtifact struct {
	RunID      uuid.UUID `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	order   []string
	results map[string]SourceResult
}

// NewBatchArtifact creates an empty artifact for a fresh run.
func NewBatchArtifact() *BatchArtifact {
	return &BatchArtifact{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
		results:   make(map[string]SourceResult),
	}
}

// Set stores a result. A new name is appended, an existing one keeps its position.
func (a *BatchArtifact) Set(res SourceResult) {
	if a.results == nil {
		a.results = make(map[string]SourceResult)
	}
	if _, ok := a.results[res.Name]; !ok {
		a.order = append(a.order, res.Name)
	}
	a.results[res.Name] = res
}

// Get returns the result for name.
func (a *BatchArtifact) Get(name string) (SourceResult, bool) {
	res, ok := a.results[name]
	return res, ok
}

// Names returns source names in insertion order.
func (a *BatchArtifact) Names() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Results returns all results in insertion order.
func (a *BatchArtifact) Results() []SourceResult {
	out := make([]SourceResult, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, a.results[name])
	}
	return out
}

// Len returns the number of sources in the artifact.
func (a *BatchArtifact) Len() int {
	return len(a.order)
}

// Summary condenses the artifact for the status API.
func (a *BatchArtifact) Summary() RunSummary {
	summary := RunSummary{
		RunID:      a.RunID.String(),
		StartedAt:  a.StartedAt.Format(time.RFC3339),
		FinishedAt: a.FinishedAt.Format(time.RFC3339),
		Sources:    make([]SourceSummary, 0, len(a.order)),
	}
	for _, res := range a.Results() {
		if res.Status == SourceAccepted {
			summary.Accepted++
		}
		summary.Sources = append(summary.Sources, SourceSummary{
			Name:      res.Name,
			Kind:      res.Kind,
			Status:    res.Status,
			Rows:      res.Records.Len(),
			Attempts:  res.Attempts,
			Rectified: res.Rectified,
			Error:     res.Error,
		})
	}
	return summary
}
