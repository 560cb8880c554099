package extraction

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// DefaultSeparator splits parameter from value.
const DefaultSeparator = ','

// headerLabels are accepted names for the first column of a header row.
var headerLabels = map[string]bool{
	"parameter":   true,
	"parameters":  true,
	"schlüssel":   true,
	"schluessel":  true,
	"key":         true,
	"name":        true,
	"bezeichnung": true,
}

var (
	errNoHeader  = errors.New("first row is not a header")
	errEmptyText = errors.New("no data")
)

// ParseResult is a parsed response.
type ParseResult struct {
	Records    models.RecordSet
	Columns    int
	Structured bool
}

// StripFences removes markdown code fences. A fenced block anywhere in the
// text wins over the surrounding prose.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "```")
	if start < 0 {
		return text
	}
	body := text[start+3:]
	// Drop the info string (```csv).
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = strings.TrimLeft(body, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")
	}
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// Parse turns a response into records. The structured reader is tried first;
// when the text is not table shaped the line reader takes over.
func Parse(text string, sep rune) ParseResult {
	if sep == 0 {
		sep = DefaultSeparator
	}
	text = StripFences(text)
	if res, err := parseTable(text, sep); err == nil {
		return res
	}
	return parseLines(text, sep)
}

// parseTable reads a CSV table with a header row. Rows shorter than the header
// are padded; a row longer than the header is a structural failure.
func parseTable(text string, sep rune) (ParseResult, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	// Strict quoting: an unterminated quote must fail the table read instead
	// of swallowing the rest of the response into one field.
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return ParseResult{}, errEmptyText
	}
	if err != nil {
		return ParseResult{}, err
	}
	if !isHeader(header) {
		return ParseResult{}, errNoHeader
	}

	res := ParseResult{Records: models.RecordSet{}, Columns: len(header), Structured: true}
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ParseResult{}, err
		}
		if len(row) > len(header) {
			return ParseResult{}, fmt.Errorf("expected %d fields in line %d, saw %d", len(header), line, len(row))
		}
		res.Records = append(res.Records, rowRecord(row))
	}
	return res, nil
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}
	first := strings.ToLower(strings.Trim(strings.TrimSpace(row[0]), `"'`))
	return headerLabels[first]
}

func rowRecord(row []string) models.Record {
	var rec models.Record
	if len(row) > 0 {
		rec.Parameter = strings.TrimSpace(row[0])
	}
	if len(row) > 1 {
		rest := make([]string, 0, len(row)-1)
		for _, v := range row[1:] {
			if v = strings.TrimSpace(v); v != "" {
				rest = append(rest, v)
			}
		}
		rec.Value = strings.Join(rest, ", ")
	}
	return rec
}

// parseLines splits every line on its first separator. Lines without one are
// dropped.
func parseLines(text string, sep rune) ParseResult {
	res := ParseResult{Records: models.RecordSet{}}
	s := string(sep)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		param, value, ok := strings.Cut(line, s)
		if !ok {
			continue
		}
		res.Records = append(res.Records, models.Record{
			Parameter: strings.TrimSpace(param),
			Value:     strings.TrimSpace(value),
		})
	}
	if len(res.Records) > 0 {
		res.Columns = 2
	}
	return res
}
