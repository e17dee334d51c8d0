package segment

import (
	"strings"
	"unicode"
)

// BreakMarker is the in-text line break carried through the pipeline. It is
// also the ASS line-break directive written into the output cue.
const BreakMarker = `\N`

// RuneRange is an inclusive code point range.
type RuneRange struct {
	Lo, Hi rune
}

func (r RuneRange) contains(c rune) bool {
	return c >= r.Lo && c <= r.Hi
}

// Rules describes which characters count as source script, decoration and
// connectors. The scanners in this package read nothing else.
type Rules struct {
	Ideographs []RuneRange
	Kana       []RuneRange

	Dashes      string // leading dash runs
	OpenParens  string // speaker-name brackets
	CloseParens string
	Connectors  string // trailing continuation glyphs

	TagOpen  rune
	TagClose rune
}

// DefaultRules matches Japanese dialogue in SRT and ASS subtitles.
var DefaultRules = Rules{
	Ideographs:  []RuneRange{{0x4E00, 0x9FA5}},
	Kana:        []RuneRange{{0x3040, 0x30FF}},
	Dashes:      "-－",
	OpenParens:  "(（",
	CloseParens: ")）",
	Connectors:  "➡≫》>",
	TagOpen:     '{',
	TagClose:    '}',
}

func inRanges(ranges []RuneRange, c rune) bool {
	for _, r := range ranges {
		if r.contains(c) {
			return true
		}
	}
	return false
}

func (r Rules) IsIdeograph(c rune) bool { return inRanges(r.Ideographs, c) }

func (r Rules) IsKana(c rune) bool { return inRanges(r.Kana, c) }

func (r Rules) isDash(c rune) bool { return strings.ContainsRune(r.Dashes, c) }

func (r Rules) isOpenParen(c rune) bool { return strings.ContainsRune(r.OpenParens, c) }

func (r Rules) isCloseParen(c rune) bool { return strings.ContainsRune(r.CloseParens, c) }

func (r Rules) isConnector(c rune) bool { return strings.ContainsRune(r.Connectors, c) }

// IsContent reports whether c is a word character, ideograph or kana.
// Everything else is decoration.
func (r Rules) IsContent(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsNumber(c) || c == '_' || r.IsIdeograph(c) || r.IsKana(c)
}

// HasKana reports whether s contains at least one kana character.
func (r Rules) HasKana(s string) bool {
	for _, c := range s {
		if r.IsKana(c) {
			return true
		}
	}
	return false
}

// HasSourceScript reports whether s contains an ideograph or kana. Lines
// without either are symbol-only and are never sent for translation.
func (r Rules) HasSourceScript(s string) bool {
	for _, c := range s {
		if r.IsIdeograph(c) || r.IsKana(c) {
			return true
		}
	}
	return false
}

// HasKana reports whether s contains kana under DefaultRules.
func HasKana(s string) bool { return DefaultRules.HasKana(s) }

// HasSourceScript reports whether s contains an ideograph or kana under DefaultRules.
func HasSourceScript(s string) bool { return DefaultRules.HasSourceScript(s) }
