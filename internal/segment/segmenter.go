package segment

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Segment is one subtitle line split into decoration and translatable body.
// Body has every inline directive replaced by a [Tn] placeholder whose n
// indexes Tags.
type Segment struct {
	Prefix string
	Body   string
	Tags   []string
	Suffix string
}

// Split segments raw under DefaultRules.
func Split(raw string) Segment { return DefaultRules.Split(raw) }

// Split peels the leading decoration, the trailing connector run and the
// inline directives off raw, and strips furigana glosses from what is left.
func (r Rules) Split(raw string) Segment {
	prefix, rest := r.SplitPrefix(raw)
	rest, suffix := r.SplitSuffix(rest)
	body, tags := r.Mask(rest)
	return Segment{
		Prefix: prefix,
		Body:   r.StripFurigana(body),
		Tags:   tags,
		Suffix: suffix,
	}
}

// SplitPrefix returns the leading decoration of text and the trimmed
// remainder. Text without decoration yields an empty prefix.
func (r Rules) SplitPrefix(text string) (string, string) {
	runes := []rune(text)
	pos := 0
	for pos < len(runes) {
		n := r.matchDirective(runes, pos)
		if n == 0 {
			n = r.matchSpeaker(runes, pos)
		}
		if n == 0 {
			n = r.matchDashes(runes, pos)
		}
		if n == 0 {
			n = r.matchDecoration(runes, pos)
		}
		if n == 0 {
			break
		}
		pos += n
	}
	return string(runes[:pos]), strings.TrimSpace(string(runes[pos:]))
}

// matchDirective matches the shortest {...} span starting at pos on one line.
func (r Rules) matchDirective(s []rune, pos int) int {
	if s[pos] != r.TagOpen {
		return 0
	}
	for i := pos + 1; i < len(s); i++ {
		switch s[i] {
		case '\n':
			return 0
		case r.TagClose:
			return i - pos + 1
		}
	}
	return 0
}

// matchSpeaker matches optional dashes/spaces, then a bracketed span closed by
// the first closing bracket, any further closers and trailing spaces.
func (r Rules) matchSpeaker(s []rune, pos int) int {
	i := pos
	for i < len(s) && (r.isDash(s[i]) || unicode.IsSpace(s[i])) {
		i++
	}
	if i >= len(s) || !r.isOpenParen(s[i]) {
		return 0
	}
	i++
	for i < len(s) && !r.isCloseParen(s[i]) {
		if s[i] == '\n' {
			return 0
		}
		i++
	}
	if i >= len(s) {
		return 0
	}
	for i < len(s) && r.isCloseParen(s[i]) {
		i++
	}
	for i < len(s) && unicode.IsSpace(s[i]) {
		i++
	}
	return i - pos
}

func (r Rules) matchDashes(s []rune, pos int) int {
	i := pos
	for i < len(s) && r.isDash(s[i]) {
		i++
	}
	return i - pos
}

func (r Rules) matchDecoration(s []rune, pos int) int {
	i := pos
	for i < len(s) && !r.IsContent(s[i]) {
		i++
	}
	return i - pos
}

// SplitSuffix cuts a trailing run of connector glyphs off text.
func (r Rules) SplitSuffix(text string) (string, string) {
	runes := []rune(text)
	end := len(runes)
	for end > 0 && r.isConnector(runes[end-1]) {
		end--
	}
	return string(runes[:end]), string(runes[end:])
}

// Placeholder returns the token that stands in for Tags[i] inside a body.
func Placeholder(i int) string {
	return fmt.Sprintf("[T%d]", i)
}

// Mask replaces every inline directive of text, left to right, with its
// placeholder. Identical directives get distinct indices.
func (r Rules) Mask(text string) (string, []string) {
	runes := []rune(text)
	var (
		sb   strings.Builder
		tags []string
	)
	for i := 0; i < len(runes); {
		if n := r.matchDirective(runes, i); n > 0 {
			sb.WriteString(Placeholder(len(tags)))
			tags = append(tags, string(runes[i:i+n]))
			i += n
			continue
		}
		sb.WriteRune(runes[i])
		i++
	}
	return sb.String(), tags
}

// Mask masks text under DefaultRules.
func Mask(text string) (string, []string) { return DefaultRules.Mask(text) }

// placeholderRe accepts the bracketed form and the bare form a model may echo.
var placeholderRe = regexp.MustCompile(`\[?T(\d+)\]?`)

// Restore puts tags back in place of their placeholders in one pass, so tag
// text is never rescanned. Placeholders without a matching tag are kept.
func Restore(text string, tags []string) string {
	if len(tags) == 0 {
		return text
	}
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx >= len(tags) {
			return m
		}
		return tags[idx]
	})
}

// StripFurigana collapses ideograph(kana) glosses to the bare ideograph.
func (r Rules) StripFurigana(text string) string {
	runes := []rune(text)
	var sb strings.Builder
	for i := 0; i < len(runes); i++ {
		sb.WriteRune(runes[i])
		if !r.IsIdeograph(runes[i]) {
			continue
		}
		if end := r.matchGloss(runes, i+1); end > 0 {
			i = end - 1
		}
	}
	return sb.String()
}

// matchGloss matches (kana+) at pos and returns the index after the closer.
func (r Rules) matchGloss(s []rune, pos int) int {
	if pos >= len(s) || !r.isOpenParen(s[pos]) {
		return 0
	}
	i := pos + 1
	for i < len(s) && r.IsKana(s[i]) {
		i++
	}
	if i == pos+1 || i >= len(s) || !r.isCloseParen(s[i]) {
		return 0
	}
	return i + 1
}

// StripFurigana strips glosses under DefaultRules.
func StripFurigana(text string) string { return DefaultRules.StripFurigana(text) }
