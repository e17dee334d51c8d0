package termmap

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Match filters the term map to only terms that appear in the given texts.
// Uses case-sensitive substring matching (correct for proper nouns).
func Match(tm TermMap, texts []string) MatchResult {
	matched := make(TermMap)

	for source, target := range tm {
		if source == "" {
			continue
		}
		for _, text := range texts {
			if strings.Contains(text, source) {
				matched[source] = target
				break
			}
		}
	}

	return MatchResult{Matched: matched}
}

// Entries returns the terms longest source first, ties in lexical order.
func (tm TermMap) Entries() []Entry {
	entries := make([]Entry, 0, len(tm))
	for source, target := range tm {
		entries = append(entries, Entry{Source: source, Target: target})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].Source, entries[j].Source
		if la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b); la != lb {
			return la > lb
		}
		return a < b
	})
	return entries
}
