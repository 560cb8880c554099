package extraction

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

func records(n int) models.RecordSet {
	rs := models.RecordSet{}
	for i := 0; i < n; i++ {
		rs = append(rs, models.Record{Parameter: fmt.Sprintf("P%d", i), Value: fmt.Sprint(i)})
	}
	return rs
}

func TestRules_Check(t *testing.T) {
	rules := DefaultRules()
	tests := []struct {
		name    string
		kind    models.SourceKind
		records int
		columns int
		accept  bool
	}{
		{"Single record is rejected", models.SourceKindGauge, 1, 2, false},
		{"Two records on a gauge are accepted", models.SourceKindGauge, 2, 2, true},
		{"Single column is rejected", models.SourceKindGauge, 5, 1, false},
		{"Empty set is rejected", models.SourceKindGauge, 0, 0, false},
		{"Overview with 14 records is rejected", models.SourceKindOverview, 14, 2, false},
		{"Overview with 15 records is accepted", models.SourceKindOverview, 15, 2, true},
		{"Overview with extra records is accepted", models.SourceKindOverview, 40, 2, true},
		{"Overview with 1 record is rejected", models.SourceKindOverview, 1, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rules.Check(tt.kind, ParseResult{Records: records(tt.records), Columns: tt.columns})
			if tt.accept && err != nil {
				t.Errorf("Expected acceptance, got %v", err)
			}
			if !tt.accept && err == nil {
				t.Error("Expected rejection")
			}
		})
	}
}

func TestRules_ConfigurableOverviewThreshold(t *testing.T) {
	rules := Rules{MinRecords: 2, MinColumns: 2, OverviewMinRecords: 20}
	if err := rules.Check(models.SourceKindOverview, ParseResult{Records: records(15), Columns: 2}); err == nil {
		t.Error("Expected 15 records to fail a threshold of 20")
	}
}

func TestMissingKeys(t *testing.T) {
	rs := models.RecordSet{
		{Parameter: "Laufzeit heute", Value: "4 h"},
		{Parameter: "Vorat", Value: "80 %"},
		{Parameter: "Betriebsst. BHKW (h)", Value: "1200"},
	}
	expected := []string{"Laufzeit Heute", "Vorrat", "Betriebsst. BHKW", "Pumpe", "Gesamt Gestern"}

	got := MissingKeys(expected, rs)
	if diff := cmp.Diff([]string{"Pumpe", "Gesamt Gestern"}, got); diff != "" {
		t.Errorf("MissingKeys mismatch (-want +got):\n%s", diff)
	}

	if got := MissingKeys(nil, rs); got != nil {
		t.Errorf("Expected nil for no expected keys, got %v", got)
	}
}

func TestEscalate(t *testing.T) {
	base := "Welche Daten sind in diesem Bild?"
	got := escalate(base, DefaultEmphasisClause, []string{"Pumpe", "LR1"})
	want := base + "\n" + DefaultEmphasisClause + "\n" + "Diese Schlüssel fehlen noch: 'Pumpe', 'LR1'."
	if got != want {
		t.Errorf("escalate() = %q, want %q", got, want)
	}
}
