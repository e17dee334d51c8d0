package termmap

// TermMap maps source language terms (names, places, jargon) to the
// renderings a translation must use.
type TermMap map[string]string

// MatchResult holds terms that matched against input texts.
type MatchResult struct {
	Matched TermMap
}

// Entry is one source/target pair of a TermMap
type Entry struct {
	Source string
	Target string
}
