package sanitize

import "slices"

// CollapseRepeats rewrites every unit of minLen..maxLen runes that occurs
// minRepeats or more times in a row as keep copies followed by marker.
// maxLen <= 0 means no upper bound. At each position the shortest qualifying
// unit wins. Units never span a newline.
func CollapseRepeats(text string, minLen, maxLen, minRepeats, keep int, marker string) string {
	if minLen <= 0 || minRepeats <= 1 {
		return text
	}
	runes := []rune(text)
	out := make([]rune, 0, len(runes))
	markerRunes := []rune(marker)

	for i := 0; i < len(runes); {
		unit, count := repeatAt(runes, i, minLen, maxLen, minRepeats)
		if unit == 0 {
			out = append(out, runes[i])
			i++
			continue
		}
		for range keep {
			out = append(out, runes[i:i+unit]...)
		}
		out = append(out, markerRunes...)
		i += unit * count
	}
	return string(out)
}

// repeatAt returns the unit length and repeat count of the first qualifying
// unit starting at pos, or zeros.
func repeatAt(runes []rune, pos, minLen, maxLen, minRepeats int) (int, int) {
	for l := minLen; maxLen <= 0 || l <= maxLen; l++ {
		if pos+l*minRepeats > len(runes) {
			return 0, 0
		}
		unit := runes[pos : pos+l]
		if slices.Contains(unit, '\n') {
			return 0, 0
		}
		count := 1
		for j := pos + l; j+l <= len(runes) && slices.Equal(unit, runes[j:j+l]); j += l {
			count++
		}
		if count >= minRepeats {
			return l, count
		}
	}
	return 0, 0
}
