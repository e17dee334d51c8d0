package segment

import "strings"

var breakNormalizer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	`\N`, "\n",
	`\n`, "\n",
	"[BR]", "\n",
)

// SplitLines normalizes every line-break form to one and splits on it.
func SplitLines(text string) []string {
	return strings.Split(breakNormalizer.Replace(text), "\n")
}

// ExtractSource reduces text to its source-language lines under DefaultRules.
func ExtractSource(text string) string {
	src, _ := DefaultRules.ReduceSource(text)
	return src
}

// ReduceSource keeps the lines of text that still contain kana and joins them
// with BreakMarker, dropping residual translation lines. When no line has kana
// the first non-blank line is returned and the second result is true. The
// result is never empty for non-empty input.
func (r Rules) ReduceSource(text string) (string, bool) {
	lines := SplitLines(text)

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if r.HasKana(line) {
			kept = append(kept, strings.TrimSpace(line))
		}
	}
	if len(kept) > 0 {
		return strings.Join(kept, BreakMarker), false
	}

	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed, true
		}
	}
	return text, true
}
