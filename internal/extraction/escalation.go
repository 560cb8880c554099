package extraction

import (
	"strings"
	"unicode/utf8"

	"github.com/arbovm/levenshtein"

	"github.com/GAL1LAO/A2D-Project/pkg/models"
)

// DefaultEmphasisClause is appended to the instruction after an incomplete answer.
const DefaultEmphasisClause = "WICHTIG: Extrahiere ALLE Schlüssel-Wert-Paare vollständig. " +
	"Keine Verschachtelung, keine Kaskadierung, keine Einleitung und kein Abschlusstext. " +
	"Antworte nur mit einer flachen CSV-Tabelle mit genau zwei Spalten: Parameter,Wert."

// missingKeysPrefix introduces the list of expected keys not found yet.
const missingKeysPrefix = "Diese Schlüssel fehlen noch: "

// escalate builds the instruction for the next attempt from the original one.
// The clause is added once no matter how many retries happen.
func escalate(base, clause string, missing []string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(base))
	if clause != "" && !strings.Contains(base, clause) {
		b.WriteString("\n")
		b.WriteString(clause)
	}
	if len(missing) > 0 {
		b.WriteString("\n")
		b.WriteString(missingKeysPrefix)
		quoted := make([]string, len(missing))
		for i, k := range missing {
			quoted[i] = "'" + k + "'"
		}
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteString(".")
	}
	return b.String()
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// MissingKeys returns the expected keys no parameter matches. A parameter
// matches when it contains the key or is within a fifth of the key's length
// in edit distance (at least one edit).
func MissingKeys(expected []string, rs models.RecordSet) []string {
	if len(expected) == 0 {
		return nil
	}
	params := make([]string, 0, rs.Len())
	for _, p := range rs.Parameters() {
		params = append(params, normalizeKey(p))
	}

	var missing []string
	for _, key := range expected {
		k := normalizeKey(key)
		if k == "" {
			continue
		}
		limit := max(1, utf8.RuneCountInString(k)/5)
		found := false
		for _, p := range params {
			if strings.Contains(p, k) || levenshtein.Distance(p, k) <= limit {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, key)
		}
	}
	return missing
}
