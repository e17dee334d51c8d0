package file

import (
	"os"
	"path/filepath"
	"time"
)

// FindRecentAfter walks dir and returns the regular files modified after
// startTime whose extension passes keep. A nil keep accepts every file.
func FindRecentAfter(dir string, startTime time.Time, keep func(ext string) bool) ([]string, error) {
	var recentFiles []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !info.ModTime().After(startTime) {
			return nil
		}
		if keep != nil && !keep(filepath.Ext(path)) {
			return nil
		}
		recentFiles = append(recentFiles, path)
		return nil
	})

	return recentFiles, err
}
