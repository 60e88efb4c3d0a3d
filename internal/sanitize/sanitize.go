// Package sanitize is the one place untrusted text is cleaned before it is
// stored or echoed back: profile fields, uploaded file names.
package sanitize

import (
	"html"
	"path"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer turns untrusted input into plain text safe to store and render.
type Sanitizer interface {
	Text(s string) string
}

// Policy strips all markup, control characters and redundant whitespace,
// and caps the result at MaxRunes runes (0 means unlimited).
type Policy struct {
	html     *bluemonday.Policy
	MaxRunes int
}

// New returns a Policy capped at maxRunes.
func New(maxRunes int) *Policy {
	return &Policy{html: bluemonday.StrictPolicy(), MaxRunes: maxRunes}
}

// Text implements Sanitizer.
func (p *Policy) Text(s string) string {
	// StrictPolicy escapes what it keeps; we store plain text.
	s = html.UnescapeString(p.html.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	if p.MaxRunes > 0 {
		if runes := []rune(s); len(runes) > p.MaxRunes {
			s = strings.TrimSpace(string(runes[:p.MaxRunes]))
		}
	}
	return s
}

var fileNames = New(120)

// FileName reduces a client-supplied file name to a display-safe base name.
// It never returns an empty string.
func FileName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = fileNames.Text(path.Base(name))
	if name == "" || name == "." || name == "/" {
		return "photo"
	}
	return name
}

var _ Sanitizer = (*Policy)(nil)
