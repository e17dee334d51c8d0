package termmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/text/language"

	"github.com/MimeLyc/sakura-subtrans/pkg/file"
)

// Filename returns the term map filename for the given source and target languages.
// Uses 2-letter language base codes (e.g., "ja", "zh").
func Filename(sourceLang, targetLang string) string {
	src := normalizeLanguageCode(sourceLang)
	tgt := normalizeLanguageCode(targetLang)
	return "term_map." + src + "-" + tgt + ".json"
}

// FilePath returns the full path to the term map file in the given directory.
func FilePath(dir, sourceLang, targetLang string) string {
	return filepath.Join(dir, Filename(sourceLang, targetLang))
}

// FindInAncestors walks up from startDir looking for a term map file, JSON
// or TOML. Returns the closest path or empty string.
func FindInAncestors(startDir, sourceLang, targetLang string) string {
	jsonName := Filename(sourceLang, targetLang)
	names := []string{jsonName, file.ReplaceExt(jsonName, ".toml")}
	currentDir := startDir

	for {
		for _, name := range names {
			candidate := filepath.Join(currentDir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Load reads a term map from a JSON object or a TOML table of strings,
// chosen by extension.
func Load(path string) (TermMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var tm TermMap
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &tm)
	} else {
		err = json.Unmarshal(data, &tm)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid term map %s: %w", path, err)
	}

	cleaned := make(TermMap, len(tm))
	for source, target := range tm {
		if source = strings.TrimSpace(source); source != "" {
			cleaned[source] = strings.TrimSpace(target)
		}
	}
	return cleaned, nil
}

// normalizeLanguageCode parses a language string and returns its 2-letter base code.
func normalizeLanguageCode(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	base, _ := tag.Base()
	return base.String()
}
