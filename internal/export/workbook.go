// Package export writes batch artifacts as spreadsheet workbooks.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/GAL1LAO/A2D-Project/internal/errors"
	"github.com/GAL1LAO/A2D-Project/internal/logger"
	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// WorkbookFileName is the attachment name used when a workbook is published.
const WorkbookFileName = "all_extracted_data.xlsx"

const (
	maxSheetName = 31
	defaultSheet = "Sheet1"
)

// Exporter renders artifacts with one sheet per source.
type Exporter struct {
	log logrus.FieldLogger
}

// NewExporter creates an exporter. A nil logger uses the package default.
func NewExporter(log logrus.FieldLogger) *Exporter {
	return &Exporter{log: logger.OrDefault(log)}
}

// Bytes renders the artifact as an xlsx document.
func (e *Exporter) Bytes(artifact *models.BatchArtifact) ([]byte, error) {
	start := time.Now()
	f, err := e.build(artifact)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperrors.NewInternalError("xlsx write", err)
	}
	e.log.WithFields(logrus.Fields{
		"run_id":     artifact.RunID.String(),
		"sheets":     artifact.Len(),
		"bytes":      buf.Len(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("Workbook rendered")
	return buf.Bytes(), nil
}

// Save renders the artifact and writes it to path.
func (e *Exporter) Save(artifact *models.BatchArtifact, path string) error {
	data, err := e.Bytes(artifact)
	if err != nil {
		return err
	}
	return WriteFile(path, data)
}

// WriteFile writes rendered workbook bytes to path, creating its directory.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.NewInternalError("create workbook directory", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("write workbook %s", path), err)
	}
	return nil
}

func (e *Exporter) build(artifact *models.BatchArtifact) (*excelize.File, error) {
	f := excelize.NewFile()
	if artifact == nil || artifact.Len() == 0 {
		return f, nil
	}

	names := SheetNames(artifact.Names())
	for i, res := range artifact.Results() {
		sheet := names[i]
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, sheet); err != nil {
				return nil, apperrors.NewInternalError("rename first sheet", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("create sheet %q", sheet), err)
		}
		if err := writeRecords(f, sheet, res.Records); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeRecords(f *excelize.File, sheet string, rs models.RecordSet) error {
	header := []any{models.ColumnParameter, models.ColumnValue}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return apperrors.NewInternalError("write header", err)
	}
	for i, r := range rs {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{r.Parameter, r.Value}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("write row %d", i+1), err)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 28)
	_ = f.SetColWidth(sheet, "B", "B", 20)
	return nil
}

// SheetNames maps source names to valid, unique sheet names in order.
// Sheet names compare case-insensitively, so "a" and "A" collide.
func SheetNames(sources []string) []string {
	out := make([]string, len(sources))
	used := make(map[string]bool, len(sources))
	for i, name := range sources {
		base := sanitizeSheetName(name)
		candidate := base
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			candidate = truncateRunes(base, maxSheetName-utf8.RuneCountInString(suffix)) + suffix
		}
		used[strings.ToLower(candidate)] = true
		out[i] = candidate
	}
	return out
}

func sanitizeSheetName(name string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.Trim(s, "'")
	s = truncateRunes(s, maxSheetName)
	if s == "" {
		s = "Sheet"
	}
	return s
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
