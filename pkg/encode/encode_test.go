package encode

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/mkoeppel/certpress/pkg/errors"
)

func testRaster(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	return img
}

func TestValidateFormat(t *testing.T) {
	if err := ValidateFormat("png"); err != nil {
		t.Errorf("png should be valid: %v", err)
	}
	if err := ValidateFormat("pdf"); err != nil {
		t.Errorf("pdf should be valid: %v", err)
	}
	if err := ValidateFormat("svg"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}
}

func TestPNGRoundTrip(t *testing.T) {
	data, err := PNG(testRaster(400, 300))
	if err != nil {
		t.Fatalf("PNG error: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 400 || b.Dy() != 300 {
		t.Errorf("decoded = %dx%d, want 400x300", b.Dx(), b.Dy())
	}
}

func TestPageLayout(t *testing.T) {
	tests := []struct {
		w, h   float64
		orient string
		wd, ht float64
	}{
		{800, 600, "L", 600, 800}, // landscape when width > height
		{600, 800, "P", 600, 800},
		{500, 500, "P", 500, 500}, // square stays portrait
	}
	for _, tt := range tests {
		orient, size := pageLayout(tt.w, tt.h)
		if orient != tt.orient {
			t.Errorf("pageLayout(%v, %v) orientation = %s, want %s", tt.w, tt.h, orient, tt.orient)
		}
		if size.Wd != tt.wd || size.Ht != tt.ht {
			t.Errorf("pageLayout(%v, %v) size = %v x %v, want %v x %v",
				tt.w, tt.h, size.Wd, size.Ht, tt.wd, tt.ht)
		}
	}
}

func TestPDF(t *testing.T) {
	data, err := PDF(testRaster(640, 480))
	if err != nil {
		t.Fatalf("PDF error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output should start with a PDF header")
	}
	// Landscape 640x480 page: MediaBox carries the pixel dimensions in points.
	if !bytes.Contains(data, []byte("640.00 480.00")) && !bytes.Contains(data, []byte("640 480")) {
		t.Error("PDF should carry a 640x480pt page")
	}
}

func TestEncodeDispatch(t *testing.T) {
	img := testRaster(10, 10)
	if _, err := Encode(img, FormatPNG); err != nil {
		t.Errorf("Encode png: %v", err)
	}
	if _, err := Encode(img, FormatPDF); err != nil {
		t.Errorf("Encode pdf: %v", err)
	}
	if _, err := Encode(img, "webp"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("expected INVALID_FORMAT, got %v", err)
	}
}

func TestSingleName(t *testing.T) {
	if SingleName(FormatPNG) != "edited-image.png" {
		t.Errorf("SingleName png = %q", SingleName(FormatPNG))
	}
	if SingleName(FormatPDF) != "edited-image.pdf" {
		t.Errorf("SingleName pdf = %q", SingleName(FormatPDF))
	}
}

func TestEntryName(t *testing.T) {
	if got := EntryName("Ali Ben Omar", "png"); got != "certificate_Ali_Ben_Omar.png" {
		t.Errorf("EntryName = %q", got)
	}
	if got := EntryName("Sara", "pdf"); got != "certificate_Sara.pdf" {
		t.Errorf("EntryName = %q", got)
	}
	// Runs of whitespace keep their width, one underscore per rune.
	if got := EntryName("Ali  Ben", "png"); got != "certificate_Ali__Ben.png" {
		t.Errorf("EntryName = %q", got)
	}
	if got := EntryName("Mia\tLou", "png"); got != "certificate_Mia_Lou.png" {
		t.Errorf("EntryName = %q", got)
	}
}

func TestArchiveOrderAndContents(t *testing.T) {
	var buf bytes.Buffer
	a := NewArchive(&buf)

	entries := []string{"certificate_Ali.png", "certificate_Sara.png", "certificate_Omar.png"}
	for i, name := range entries {
		if err := a.Add(name, []byte{byte(i)}); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}
	if a.Entries() != 3 {
		t.Errorf("Entries = %d, want 3", a.Entries())
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read archive: %v", err)
	}
	if len(zr.File) != len(entries) {
		t.Fatalf("archive has %d entries, want %d", len(zr.File), len(entries))
	}
	for i, f := range zr.File {
		if f.Name != entries[i] {
			t.Errorf("entry %d = %s, want %s (input order preserved)", i, f.Name, entries[i])
		}
	}
}

func TestEmptyArchiveIsValid(t *testing.T) {
	var buf bytes.Buffer
	a := NewArchive(&buf)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("empty archive should still be readable: %v", err)
	}
	if len(zr.File) != 0 {
		t.Errorf("entries = %d, want 0", len(zr.File))
	}
}
