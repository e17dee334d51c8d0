package subtitle

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

// DetectLanguage returns the language most events are written in
func DetectLanguage(events []Event) language.Tag {
	if len(events) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, e := range events {
		text := e.Text()
		if text == "" {
			continue
		}
		lang := whatlanggo.DetectLang(text).Iso6391()
		langMap[lang]++
	}

	// Get top language
	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount || (count == topCount && lang < topLang) {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}

	return language.All.Make(topLang)
}
