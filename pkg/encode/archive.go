package encode

import (
	"archive/zip"
	"io"
	"strings"
	"unicode"

	"github.com/klauspost/compress/flate"

	"github.com/mkoeppel/certpress/pkg/errors"
)

// Archive packages batch exports into a single deflate-compressed zip.
// Entries appear in insertion order and names are not deduplicated: two
// identical names collide and the later entry wins on extraction.
type Archive struct {
	zw      *zip.Writer
	entries int
}

// NewArchive creates an archive writing to w. Compression uses the
// klauspost flate implementation instead of the standard library's.
func NewArchive(w io.Writer) *Archive {
	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestSpeed)
	})
	return &Archive{zw: zw}
}

// Add appends one encoded certificate under the given entry name.
func (a *Archive) Add(name string, data []byte) error {
	w, err := a.zw.Create(name)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEncodeFailed, err, "archive entry %s", name)
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.ErrCodeEncodeFailed, err, "write archive entry %s", name)
	}
	a.entries++
	return nil
}

// Entries returns the number of entries added so far.
func (a *Archive) Entries() int { return a.entries }

// Close finalizes the archive. It must be called exactly once, after the
// last entry; the batch loop finalizes once per batch, not per entry.
func (a *Archive) Close() error {
	if err := a.zw.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeEncodeFailed, err, "finalize archive")
	}
	return nil
}

// EntryName builds the deterministic archive entry name for a certificate:
// certificate_<name with whitespace replaced by underscores>.<format>.
// Each whitespace rune maps to its own underscore, so runs are preserved.
func EntryName(name, format string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name)
	return "certificate_" + mapped + "." + format
}
