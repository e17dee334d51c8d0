package subtitle

import (
	"path/filepath"
	"strings"
)

// LineBreak joins the lines of a cue in Event text. It is the ASS hard
// line break directive.
const LineBreak = `\N`

// Event is one subtitle cue as the translator sees it
type Event interface {
	// Text returns the decorated cue text: inline {...} directives kept,
	// lines joined with LineBreak.
	Text() string
	// SetText replaces the cue text.
	SetText(text string)
}

// Format is a subtitle container format
type Format string

const (
	FormatSRT    Format = "srt"
	FormatASS    Format = "ass"
	FormatSSA    Format = "ssa"
	FormatWebVTT Format = "vtt"
	FormatTTML   Format = "ttml"
	FormatSTL    Format = "stl"
)

// FormatFromPath derives the container format from a file extension
func FormatFromPath(path string) Format {
	return Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}

// IsSSA reports whether the format carries ASS/SSA override tags
func (f Format) IsSSA() bool {
	return f == FormatASS || f == FormatSSA
}

// Supported reports whether the format can be read and written
func (f Format) Supported() bool {
	switch f {
	case FormatSRT, FormatASS, FormatSSA, FormatWebVTT, FormatTTML, FormatSTL:
		return true
	}
	return false
}
