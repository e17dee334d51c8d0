package translator

import (
	"strings"

	"github.com/MimeLyc/sakura-subtrans/internal/segment"
)

// breakNormalizer turns every break form a reply may carry into the
// directive written to the cue.
var breakNormalizer = strings.NewReplacer(
	"[BR]", segment.BreakMarker,
	"\r\n", segment.BreakMarker,
	"\n", segment.BreakMarker,
)

const doubledOpeners = "《（("

// Reassembler builds the final bilingual text of a task
type Reassembler struct {
	Mode Mode
}

// Translated returns Source, a break, and the decorated translation
func (r Reassembler) Translated(t *Task, text string) string {
	body := strings.ReplaceAll(text, " ", "")
	body = segment.Restore(body, t.Tags)
	body = collapseDoubled(body, doubledOpeners)
	return r.display(t, t.Prefix+body+t.Suffix)
}

// Fallback returns the text written when the translation was lost or not
// needed. A failed call in line mode keeps the source alone; everything else
// repeats the decorated source as the second line.
func (r Reassembler) Fallback(t *Task, kind Fallback) string {
	if kind == FallbackCallFailed && r.Mode == ModeLine {
		return t.Source
	}
	return r.display(t, t.Prefix+segment.Restore(t.Body, t.Tags)+t.Suffix)
}

func (r Reassembler) display(t *Task, line string) string {
	line = breakNormalizer.Replace(line)
	if strings.TrimSpace(line) == "" {
		return t.Source
	}
	return t.Source + segment.BreakMarker + line
}

// collapseDoubled squeezes runs of the same opener in set to one.
func collapseDoubled(s, set string) string {
	var sb strings.Builder
	var prev rune
	for _, c := range s {
		if c == prev && strings.ContainsRune(set, c) {
			continue
		}
		sb.WriteRune(c)
		prev = c
	}
	return sb.String()
}
