package file

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		want string
	}{
		{"/subs/ep01.srt", ".ass", "/subs/ep01.ass"},
		{"/subs/ep01.srt", "vtt", "/subs/ep01.vtt"},
		{"/subs/README", ".txt", "/subs/README.txt"},
		{"/subs/.hidden", ".srt", "/subs/.hidden.srt"},
		{"", ".srt", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReplaceExt(tt.path, tt.ext), tt.path)
	}
}

func TestBilingualPath(t *testing.T) {
	assert.Equal(t, "/subs/ep01.bilingual.ass", BilingualPath("/subs/ep01.ass"))
	assert.Equal(t, "show.s01e02.bilingual.srt", BilingualPath("show.s01e02.srt"))

	assert.True(t, IsBilingual(BilingualPath("/subs/ep01.ass")))
	assert.False(t, IsBilingual("/subs/ep01.ass"))
	assert.False(t, IsBilingual("/subs/bilingual.ass"))
}

func TestFindRecentAfter(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.srt")
	fresh := filepath.Join(dir, "nested", "fresh.ass")
	note := filepath.Join(dir, "nested", "notes.txt")

	require.NoError(t, os.MkdirAll(filepath.Dir(fresh), 0o755))
	for _, p := range []string{old, fresh, note} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	cutoff := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, cutoff.Add(-time.Hour), cutoff.Add(-time.Hour)))

	all, err := FindRecentAfter(dir, cutoff, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{fresh, note}, all)

	subs, err := FindRecentAfter(dir, cutoff, func(ext string) bool { return !strings.EqualFold(ext, ".txt") })
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, subs)

	_, err = FindRecentAfter(filepath.Join(dir, "missing"), cutoff, nil)
	assert.Error(t, err)
}
