package sanitize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/MimeLyc/sakura-subtrans/internal/segment"
)

const (
	// Sentinel is the token the prompts tell the model to emit for lines it
	// should not translate. It never survives sanitation.
	Sentinel = "SKIP_LINE"

	// Marker is appended where repeated or runaway output was cut.
	Marker = "..."
)

// Entry describes one line of a batch as it was sent to the model.
type Entry struct {
	Body     string // masked body
	TagCount int    // number of placeholders the body carries

	// Index is the 1-based batch position. Zero means the result was not
	// labelled, as for single-line prompts, and no echoed label is stripped.
	Index int
}

// Sanitizer turns raw model completions into clean translated bodies.
type Sanitizer struct {
	thresholds Thresholds
	rules      segment.Rules

	scaffolding    *strings.Replacer
	trailingDigits *regexp.Regexp
}

var (
	nextIndexRe   = regexp.MustCompile(`\n[ \t]*\d+[:：]`)
	fragmentRe    = regexp.MustCompile(`\[T|T\]`)
	leadingDashRe = regexp.MustCompile(`(^|\\N)[-－\s]+`)
	digitsRe      = regexp.MustCompile(`[0-9０-９]+`)
	placeholderRe = regexp.MustCompile(`\[?T(\d+)\]?`)

	brackets = strings.NewReplacer("[", "", "]", "")
)

// scaffoldingWords are prompt fragments and quoting glyphs the model tends to
// echo back. Longer forms come first.
var scaffoldingWords = []string{
	"翻译结果：", "翻译结果:", "翻译结果",
	"译文：", "译文:", "译文",
	"翻译：", "翻译:",
	"占位符", "原样输出",
	"「", "」",
	Sentinel,
}

// New returns a Sanitizer using DefaultRules. Zero threshold fields take
// their defaults.
func New(t Thresholds) *Sanitizer {
	return NewWithRules(t, segment.DefaultRules)
}

// NewWithRules returns a Sanitizer that judges source script with rules.
func NewWithRules(t Thresholds, rules segment.Rules) *Sanitizer {
	t = t.WithDefaults()

	pairs := make([]string, 0, len(scaffoldingWords)*2)
	for _, w := range scaffoldingWords {
		pairs = append(pairs, w, "")
	}

	return &Sanitizer{
		thresholds:  t,
		rules:       rules,
		scaffolding: strings.NewReplacer(pairs...),
		trailingDigits: regexp.MustCompile(fmt.Sprintf(
			`(^|[^0-9０-９])(?:\s|\\N)*[0-9０-９]{1,%d}$`, t.TrailingDigitsMax)),
	}
}

// Thresholds returns the effective thresholds.
func (s *Sanitizer) Thresholds() Thresholds { return s.thresholds }

// ParseBatch splits a numbered batch completion into per-line results keyed
// by 1-based index. Indices the completion does not contain are absent from
// the map; a missing or malformed line never shifts its neighbours.
func (s *Sanitizer) ParseBatch(raw string, entries []Entry) map[int]string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	results := make(map[int]string, len(entries))
	for i, entry := range entries {
		content, ok := Locate(raw, i+1)
		if !ok {
			continue
		}
		entry.Index = i + 1
		results[i+1] = s.Clean(content, entry)
	}
	return results
}

// Locate returns the text labelled index in a numbered completion. A label at
// the start of a line is preferred over one in the middle of a line. The text
// runs until the next line that starts with a numeric label.
func Locate(raw string, index int) (string, bool) {
	label := strconv.Itoa(index)
	start := findLabel(raw, label, true)
	if start < 0 {
		start = findLabel(raw, label, false)
	}
	if start < 0 {
		return "", false
	}

	rest := raw[start:]
	if loc := nextIndexRe.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}
	return strings.TrimSpace(rest), true
}

// findLabel returns the byte offset just past "<label>:" or "<label>：", or -1.
func findLabel(raw, label string, lineStart bool) int {
	for off := 0; off < len(raw); {
		i := strings.Index(raw[off:], label)
		if i < 0 {
			return -1
		}
		p := off + i
		off = p + 1

		if p > 0 && isASCIIDigit(raw[p-1]) {
			continue
		}
		if lineStart && !atLineStart(raw, p) {
			continue
		}
		after := raw[p+len(label):]
		switch {
		case strings.HasPrefix(after, ":"):
			return p + len(label) + 1
		case strings.HasPrefix(after, "："):
			return p + len(label) + len("：")
		}
	}
	return -1
}

func atLineStart(raw string, p int) bool {
	for p > 0 {
		switch raw[p-1] {
		case ' ', '\t':
			p--
		case '\n':
			return true
		default:
			return false
		}
	}
	return true
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

// Clean applies the fixed cleanup sequence to one located result.
func (s *Sanitizer) Clean(content string, entry Entry) string {
	content = strings.TrimSpace(content)
	content = stripEcho(content, entry.Index)
	content = scrubPlaceholders(content, entry.TagCount)
	content = s.scaffolding.Replace(content)
	content = strings.TrimSpace(content)
	content = s.truncateRunaway(content, entry.Body)

	t := s.thresholds
	content = CollapseRepeats(content, t.PhraseMinLen, t.PhraseMaxLen, t.PhraseMinRepeats, t.PhraseKeep, Marker)
	content = CollapseRepeats(content, 1, 0, t.RunMinRepeats, t.RunKeep, Marker)

	content = s.trailingDigits.ReplaceAllString(content, "${1}")
	content = leadingDashRe.ReplaceAllString(content, "${1}")
	if !s.rules.HasSourceScript(entry.Body) {
		content = digitsRe.ReplaceAllString(content, "")
	}
	return strings.TrimSpace(content)
}

// stripEcho removes one repeated "<index>:" label. Other leading numbers,
// such as a time of day, belong to the translation.
func stripEcho(content string, index int) string {
	if index <= 0 {
		return content
	}
	rest, ok := strings.CutPrefix(content, strconv.Itoa(index))
	if !ok {
		return content
	}
	for _, colon := range []string{":", "："} {
		if after, found := strings.CutPrefix(rest, colon); found {
			return strings.TrimLeft(after, " \t")
		}
	}
	return content
}

// scrubPlaceholders keeps placeholders that index a real tag, in bracketed
// form, and drops everything else that looks like one: out-of-range
// placeholders, half-open fragments and stray brackets.
func scrubPlaceholders(content string, tagCount int) string {
	var sb strings.Builder
	last := 0
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(content, -1) {
		sb.WriteString(stripBrackets(content[last:loc[0]]))
		if idx, err := strconv.Atoi(content[loc[2]:loc[3]]); err == nil && idx < tagCount {
			sb.WriteString(segment.Placeholder(idx))
		}
		last = loc[1]
	}
	sb.WriteString(stripBrackets(content[last:]))
	return sb.String()
}

func stripBrackets(s string) string {
	return brackets.Replace(fragmentRe.ReplaceAllString(s, ""))
}

// truncateRunaway cuts a result that is far longer than its source down to
// its first sentence, bounded so a result without punctuation cannot stay
// long.
func (s *Sanitizer) truncateRunaway(content, body string) string {
	t := s.thresholds
	n := utf8.RuneCountInString(content)
	limit := float64(utf8.RuneCountInString(body)) * t.HallucinationRatio
	if n <= t.HallucinationMinLen || float64(n) <= limit {
		return content
	}

	first := content
	if i := strings.IndexAny(content, "，。！？!?"); i >= 0 {
		first = content[:i]
	}
	bound := max(t.HallucinationMinLen, int(limit))
	if r := []rune(first); len(r) > bound {
		first = string(r[:bound])
	}
	return first + Marker
}
