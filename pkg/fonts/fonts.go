// Package fonts provides the typefaces used to stamp text onto images.
//
// The default bold face ships embedded in the binary (the Go fonts from
// golang.org/x/image), so rendering works without any system fonts
// installed. Named fonts are resolved from the host's font directories.
package fonts

import (
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/mkoeppel/certpress/pkg/errors"
)

var (
	defaultFont     *truetype.Font
	defaultFontErr  error
	defaultFontOnce sync.Once
)

// Default returns the embedded bold face (Go Bold).
// The font is parsed once on first access and cached.
func Default() (*truetype.Font, error) {
	defaultFontOnce.Do(func() {
		defaultFont, defaultFontErr = truetype.Parse(gobold.TTF)
	})
	return defaultFont, defaultFontErr
}

// Load resolves a font by name from the system font directories.
// An empty name returns the embedded default. The lookup accepts either a
// family name fragment ("DejaVuSans-Bold") or a file name ("arialbd.ttf").
func Load(name string) (*truetype.Font, error) {
	if name == "" {
		return Default()
	}

	path, err := findfont.Find(name)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "font %q not found", name)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "read font %s", path)
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "parse font %s", path)
	}
	return f, nil
}
