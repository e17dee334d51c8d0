package file

import (
	"path/filepath"
	"strings"
)

// BilingualInfix marks files written by a translation run
const BilingualInfix = ".bilingual"

func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot <= 0 {
		return filepath.Join(dir, filename+ext)
	}

	return filepath.Join(dir, filename[:lastDot]+ext)
}

// BilingualPath returns where the bilingual rendition of path is written:
// "ep01.ass" becomes "ep01.bilingual.ass".
func BilingualPath(path string) string {
	return ReplaceExt(path, BilingualInfix+filepath.Ext(path))
}

// IsBilingual reports whether path looks like the output of a run
func IsBilingual(path string) bool {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.HasSuffix(name, BilingualInfix)
}
