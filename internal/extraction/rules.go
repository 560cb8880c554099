package extraction

import (
	"fmt"

	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// Rules are the completeness thresholds a parsed response must meet.
type Rules struct {
	// MinRecords and MinColumns apply to every source.
	MinRecords int
	MinColumns int
	// OverviewMinRecords applies to the overview source kind on top of the rest.
	OverviewMinRecords int
}

// DefaultRules rejects single-record or single-column tables and overview
// tables with fewer than 15 records.
func DefaultRules() Rules {
	return Rules{MinRecords: 2, MinColumns: 2, OverviewMinRecords: 15}
}

// IncompleteError describes why a parse result was rejected.
type IncompleteError struct {
	Rule    string
	Got     int
	Minimum int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s: got %d, need at least %d", e.Rule, e.Got, e.Minimum)
}

// Check returns nil when res is complete for kind.
func (r Rules) Check(kind models.SourceKind, res ParseResult) error {
	if n := res.Records.Len(); n < r.MinRecords {
		return &IncompleteError{Rule: "too few records", Got: n, Minimum: r.MinRecords}
	}
	if res.Columns < r.MinColumns {
		return &IncompleteError{Rule: "too few columns", Got: res.Columns, Minimum: r.MinColumns}
	}
	if kind == models.SourceKindOverview {
		if n := res.Records.Len(); n < r.OverviewMinRecords {
			return &IncompleteError{Rule: "overview incomplete", Got: n, Minimum: r.OverviewMinRecords}
		}
	}
	return nil
}
