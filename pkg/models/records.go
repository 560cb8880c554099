package models

import "fmt"

// Column names of every record table, in output order.
const (
	ColumnParameter = "Parameter"
	ColumnValue     = "Value"
)

// Record is a single key/value pair read off a panel.
type Record struct {
	Parameter string `json:"parameter"`
	Value     string `json:"value"`
}

// RecordSet is the ordered record table of one source.
// Duplicate parameters are kept as they were extracted.
type RecordSet []Record

// EmptyRecordSet returns the sentinel table used when a source produced nothing.
func EmptyRecordSet() RecordSet {
	return RecordSet{}
}

// Columns returns the fixed two-column schema.
func (rs RecordSet) Columns() []string {
	return []string{ColumnParameter, ColumnValue}
}

// Len returns the number of rows.
func (rs RecordSet) Len() int {
	return len(rs)
}

// IsEmpty reports whether the set has no rows.
func (rs RecordSet) IsEmpty() bool {
	return len(rs) == 0
}

// Parameters returns the parameter column in row order.
func (rs RecordSet) Parameters() []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Parameter
	}
	return out
}

// SourceKind distinguishes the overview panel from ordinary gauge panels.
type SourceKind string

const (
	SourceKindGauge    SourceKind = "gauge"
	SourceKindOverview SourceKind = "overview"
)

// ParseSourceKind maps a config value to a SourceKind. Empty means gauge.
func ParseSourceKind(s string) (SourceKind, error) {
	switch SourceKind(s) {
	case "", SourceKindGauge:
		return SourceKindGauge, nil
	case SourceKindOverview:
		return SourceKindOverview, nil
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}
}

// AttemptOutcome tags a single extraction attempt.
type AttemptOutcome string

const (
	OutcomeAccepted  AttemptOutcome = "accepted"
	OutcomeRetried   AttemptOutcome = "retried"
	OutcomeExhausted AttemptOutcome = "exhausted"
)

// ExtractionAttempt is one request/response cycle against the extraction service.
type ExtractionAttempt struct {
	Number      int            `json:"number"`
	Instruction string         `json:"instruction"`
	Response    string         `json:"response,omitempty"`
	Records     RecordSet      `json:"records,omitempty"`
	Columns     int            `json:"columns"`
	Outcome     AttemptOutcome `json:"outcome"`
	Err         string         `json:"error,omitempty"`
}
