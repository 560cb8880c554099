package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RunSummary describes one finished batch run for the status API
type RunSummary struct {
	RunID      string          `json:"run_id"`
	StartedAt  string          `json:"started_at"`
	FinishedAt string          `json:"finished_at"`
	Accepted   int             `json:"accepted"`
	Sources    []SourceSummary `json:"sources"`
}

// SourceSummary is the per-source line of a RunSummary
type SourceSummary struct {
	Name      string       `json:"name"`
	Kind      SourceKind   `json:"kind"`
	Status    SourceStatus `json:"status"`
	Rows      int          `json:"rows"`
	Attempts  int          `json:"attempts"`
	Rectified bool         `json:"rectified"`
	Error     string       `json:"error,omitempty"`
}

// TriggerResponse is returned when a cycle is started by hand
type TriggerResponse struct {
	Ran     bool        `json:"ran"`
	Summary *RunSummary `json:"summary,omitempty"`
	Error   string      `json:"error,omitempty"`
}
