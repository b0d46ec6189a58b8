package document

import (
	"fmt"
	"regexp"
	"time"
)

// DefaultPrefix is the document number prefix used when none is configured.
const DefaultPrefix = "SPK"

var docNumberPattern = regexp.MustCompile(`^[^\s-]+-\d{4}-\d{3,}$`)

// FormatDocNumber renders PREFIX-YEAR-NNN.
func FormatDocNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, seq)
}

// ValidDocNumber reports whether s has the PREFIX-YEAR-NNN shape.
func ValidDocNumber(s string) bool {
	return docNumberPattern.MatchString(s)
}

// NextDocNumber derives the next number from the documents already stored in
// now's calendar year. The count is not a counter: deleting a document lowers
// it, and two writers that observe the same collection produce the same number.
func NextDocNumber(prefix string, existing []Document, now time.Time) string {
	year := now.Year()
	n := 0
	for i := range existing {
		if !existing[i].SubmissionDate.IsZero() && existing[i].SubmissionDate.Year() == year {
			n++
		}
	}
	return FormatDocNumber(prefix, year, n+1)
}
