package export

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

func testArtifact() *models.BatchArtifact {
	a := models.NewBatchArtifact()
	a.Set(models.SourceResult{
		Name:   "First_Photo",
		Kind:   models.SourceKindGauge,
		Status: models.SourceAccepted,
		Records: models.RecordSet{
			{Parameter: "Druck", Value: "3.4 bar"},
			{Parameter: "Temp", Value: "22 C"},
		},
	})
	a.Set(models.SentinelResult("Second_Photo", models.SourceKindGauge, models.SourceFailed, errors.New("fetch failed")))
	a.Set(models.SourceResult{
		Name:    "Overview_Page",
		Kind:    models.SourceKindOverview,
		Status:  models.SourceAccepted,
		Records: models.RecordSet{{Parameter: "Vorrat", Value: "80 %"}},
	})
	return a
}

func TestExporter_Bytes(t *testing.T) {
	data, err := NewExporter(logger.Discard()).Bytes(testArtifact())
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{"First_Photo", "Second_Photo", "Overview_Page"}, f.GetSheetList()); diff != "" {
		t.Errorf("Sheet list mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		sheet string
		want  [][]string
	}{
		{"First_Photo", [][]string{{"Parameter", "Value"}, {"Druck", "3.4 bar"}, {"Temp", "22 C"}}},
		{"Second_Photo", [][]string{{"Parameter", "Value"}}},
		{"Overview_Page", [][]string{{"Parameter", "Value"}, {"Vorrat", "80 %"}}},
	}
	for _, tt := range tests {
		t.Run(tt.sheet, func(t *testing.T) {
			rows, err := f.GetRows(tt.sheet)
			if err != nil {
				t.Fatalf("GetRows: %v", err)
			}
			if diff := cmp.Diff(tt.want, rows); diff != "" {
				t.Errorf("Rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExporter_Save(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", WorkbookFileName)
	if err := NewExporter(logger.Discard()).Save(testArtifact(), path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()
	if got := len(f.GetSheetList()); got != 3 {
		t.Errorf("Expected 3 sheets, got %d", got)
	}
}

func TestSheetNames(t *testing.T) {
	long := strings.Repeat("x", 40)
	got := SheetNames([]string{"a/b", "A_B", "[Druck]?", "", long, long, "'quoted'"})
	want := []string{
		"a_b",
		"A_B (2)",
		"_Druck__",
		"Sheet",
		strings.Repeat("x", 31),
		strings.Repeat("x", 27) + " (2)",
		"quoted",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SheetNames mismatch (-want +got):\n%s", diff)
	}
}
