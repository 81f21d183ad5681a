// Package namelist resolves the list of names a certificate run renders.
//
// Names come from one of two sources: a free-text field that may contain a
// comma-separated list, or the first column of a CSV file. The resolver
// also decides the export mode: a CSV always forces batch mode, while the
// text field only activates it when splitting yields more than one name.
package namelist

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/mkoeppel/certpress/pkg/errors"
)

// Mode selects between a single shared text overlay and one render per name.
type Mode int

const (
	// ModeSingle renders the literal text once.
	ModeSingle Mode = iota

	// ModeBatch renders one certificate per name and archives them.
	ModeBatch
)

// String returns the mode name for logs.
func (m Mode) String() string {
	if m == ModeBatch {
		return "batch"
	}
	return "single"
}

// List is an ordered sequence of non-empty, trimmed names.
type List []string

// FromText derives a List from the free-text field.
//
// Comma-free input is literal display text, not a one-element batch: the
// returned list is empty and the mode is ModeSingle. Input containing
// commas is split, trimmed, and stripped of empty pieces; batch mode
// activates only when more than one name remains.
func FromText(s string) (List, Mode) {
	if !strings.Contains(s, ",") {
		return nil, ModeSingle
	}

	var names List
	for _, piece := range strings.Split(s, ",") {
		if name := strings.TrimSpace(piece); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > 1 {
		return names, ModeBatch
	}
	return names, ModeSingle
}

// FromCSV derives a List from the first column of a CSV file.
//
// The first row is assumed to be a header and discarded. Blank and
// whitespace-only cells are dropped. Batch mode is forced regardless of
// how many rows remain; a file with no data rows yields an empty list,
// which batch export treats as a zero-iteration loop rather than an error.
func FromCSV(r io.Reader) (List, Mode, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows are fine, only column 0 matters
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, ModeBatch, errors.Wrap(errors.ErrCodeInvalidNameList, err, "parse CSV")
	}
	if len(rows) <= 1 {
		return nil, ModeBatch, nil
	}

	var names List
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		if name := strings.TrimSpace(row[0]); name != "" {
			names = append(names, name)
		}
	}
	return names, ModeBatch, nil
}

// Preview joins the list into the comma-separated form shown in the text
// field after a CSV import.
func (l List) Preview() string {
	return strings.Join(l, ", ")
}
