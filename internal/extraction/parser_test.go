package extraction

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		want       models.RecordSet
		columns    int
		structured bool
	}{
		{
			name:    "Plain lines without header",
			text:    "Druck,3.4 bar\nTemp,22 C",
			want:    models.RecordSet{{Parameter: "Druck", Value: "3.4 bar"}, {Parameter: "Temp", Value: "22 C"}},
			columns: 2,
		},
		{
			name:    "Lines without separator are dropped",
			text:    "Druck,3.4 bar\nmalformed line\n\nTemp , 22 C ",
			want:    models.RecordSet{{Parameter: "Druck", Value: "3.4 bar"}, {Parameter: "Temp", Value: "22 C"}},
			columns: 2,
		},
		{
			name:    "Only the first separator splits",
			text:    "Gas Gesamt BHKW,1,234 m³",
			want:    models.RecordSet{{Parameter: "Gas Gesamt BHKW", Value: "1,234 m³"}},
			columns: 2,
		},
		{
			name:       "Fenced CSV table",
			text:       "```csv\nParameter,Wert\nDruck,3.4 bar\nTemp,22 C\n```",
			want:       models.RecordSet{{Parameter: "Druck", Value: "3.4 bar"}, {Parameter: "Temp", Value: "22 C"}},
			columns:    2,
			structured: true,
		},
		{
			name:       "Fence inside prose",
			text:       "Hier sind die Daten:\n```\nParameter,Wert\nVorrat,80 %\n```\nViel Erfolg!",
			want:       models.RecordSet{{Parameter: "Vorrat", Value: "80 %"}},
			columns:    2,
			structured: true,
		},
		{
			name:       "Quoted values keep commas",
			text:       "Parameter,Wert\n\"Gesamt Heute\",\"1.234,5 m³\"",
			want:       models.RecordSet{{Parameter: "Gesamt Heute", Value: "1.234,5 m³"}},
			columns:    2,
			structured: true,
		},
		{
			name:       "Short rows are padded and extra columns joined",
			text:       "Parameter,Wert,Einheit\nDruck,3.4,bar\nStatus,an",
			want:       models.RecordSet{{Parameter: "Druck", Value: "3.4, bar"}, {Parameter: "Status", Value: "an"}},
			columns:    3,
			structured: true,
		},
		{
			name:    "Row longer than header falls back to lines",
			text:    "Parameter,Wert\nDruck,3,4 bar\nTemp,22",
			want:    models.RecordSet{{Parameter: "Parameter", Value: "Wert"}, {Parameter: "Druck", Value: "3,4 bar"}, {Parameter: "Temp", Value: "22"}},
			columns: 2,
		},
		{
			name: "Unterminated quote falls back to lines",
			text: "Parameter,Wert\nDruck,\"3.4 bar\nTemp,22 C\nPegel,5 m",
			want: models.RecordSet{
				{Parameter: "Parameter", Value: "Wert"},
				{Parameter: "Druck", Value: "\"3.4 bar"},
				{Parameter: "Temp", Value: "22 C"},
				{Parameter: "Pegel", Value: "5 m"},
			},
			columns: 2,
		},
		{
			name:    "Bare quote inside a field falls back to lines",
			text:    "Parameter,Wert\nRohr,2\" DN50",
			want:    models.RecordSet{{Parameter: "Parameter", Value: "Wert"}, {Parameter: "Rohr", Value: "2\" DN50"}},
			columns: 2,
		},
		{
			name:       "Header only",
			text:       "Parameter,Wert",
			want:       models.RecordSet{},
			columns:    2,
			structured: true,
		},
		{
			name: "Empty response",
			text: "   ",
			want: models.RecordSet{},
		},
		{
			name:       "Duplicates are preserved",
			text:       "Parameter,Wert\nPumpe,an\nPumpe,aus",
			want:       models.RecordSet{{Parameter: "Pumpe", Value: "an"}, {Parameter: "Pumpe", Value: "aus"}},
			columns:    2,
			structured: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text, DefaultSeparator)
			if diff := cmp.Diff(tt.want, got.Records); diff != "" {
				t.Errorf("Records mismatch (-want +got):\n%s", diff)
			}
			if got.Columns != tt.columns {
				t.Errorf("Columns = %d, want %d", got.Columns, tt.columns)
			}
			if got.Structured != tt.structured {
				t.Errorf("Structured = %v, want %v", got.Structured, tt.structured)
			}
		})
	}
}

func TestParse_CustomSeparator(t *testing.T) {
	got := Parse("Laufzeit Heute: 4 h\nPumpe: an", ':')
	want := models.RecordSet{{Parameter: "Laufzeit Heute", Value: "4 h"}, {Parameter: "Pumpe", Value: "an"}}
	if diff := cmp.Diff(want, got.Records); diff != "" {
		t.Errorf("Records mismatch (-want +got):\n%s", diff)
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"a,b", "a,b"},
		{"```csv\na,b\n```", "a,b"},
		{"```\na,b\n```", "a,b"},
		{"```csv\na,b", "a,b"},
		{"  ```CSV\na,b\nc,d\n```  ", "a,b\nc,d"},
	}
	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
