package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kanaEntry(n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{Body: "こんにちは"}
	}
	return entries
}

func TestParseBatch_MissingIndexDoesNotShift(t *testing.T) {
	t.Parallel()

	s := New(Thresholds{})
	raw := "1: 一个\n2: 两个\n4: 四个\n5: 五个\n6: 六个"

	got := s.ParseBatch(raw, kanaEntry(6))

	require.Len(t, got, 5)
	assert.Equal(t, "一个", got[1])
	assert.Equal(t, "两个", got[2])
	_, ok := got[3]
	assert.False(t, ok)
	assert.Equal(t, "四个", got[4])
	assert.Equal(t, "五个", got[5])
	assert.Equal(t, "六个", got[6])
}

func TestParseBatch_FullWidthColonAndEcho(t *testing.T) {
	t.Parallel()

	s := New(Thresholds{})
	got := s.ParseBatch("1：1: 你好\r\n2：谢谢", kanaEntry(2))

	assert.Equal(t, map[int]string{1: "你好", 2: "谢谢"}, got)
}

func TestParseBatch_OnlyOwnLabelIsEcho(t *testing.T) {
	t.Parallel()

	s := New(Thresholds{})
	got := s.ParseBatch("1: 3:00出发\n2: 2：10点见", kanaEntry(2))

	assert.Equal(t, "3:00出发", got[1])
	assert.Equal(t, "10点见", got[2])
}

func TestParseBatch_LabelInsideNumberIgnored(t *testing.T) {
	t.Parallel()

	s := New(Thresholds{})
	got := s.ParseBatch("1: 第12集\n2: 好", kanaEntry(2))

	assert.Equal(t, "第12集", got[1])
	assert.Equal(t, "好", got[2])
}

func TestLocate(t *testing.T) {
	t.Parallel()

	content, ok := Locate("翻訳します 2：谢谢", 2)
	require.True(t, ok)
	assert.Equal(t, "谢谢", content)

	_, ok = Locate("1: a", 2)
	assert.False(t, ok)

	content, ok = Locate("1: \n2: b", 1)
	require.True(t, ok)
	assert.Empty(t, content)
}

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		entry   Entry
		want    string
	}{
		{
			name:    "plain result untouched",
			content: "好的，没问题。",
			entry:   Entry{Body: "はい"},
			want:    "好的，没问题。",
		},
		{
			name:    "phrase repetition collapsed",
			content: "好痛好痛好痛好痛",
			entry:   Entry{Body: "痛い痛い痛い痛い"},
			want:    "好痛好痛...",
		},
		{
			name:    "trailing orphan digit",
			content: "你好 3",
			entry:   Entry{Body: "こんにちは"},
			want:    "你好",
		},
		{
			name:    "trailing digits after break",
			content: `你好\N12`,
			entry:   Entry{Body: "こんにちは"},
			want:    "你好",
		},
		{
			name:    "full width trailing digits",
			content: "谢谢１２",
			entry:   Entry{Body: "ありがとう"},
			want:    "谢谢",
		},
		{
			name:    "longer number kept",
			content: "第100",
			entry:   Entry{Body: "第百"},
			want:    "第100",
		},
		{
			name:    "leading dashes per line",
			content: `- 你好\N－走吧`,
			entry:   Entry{Body: "こんにちは"},
			want:    `你好\N走吧`,
		},
		{
			name:    "symbol only source drops digits",
			content: "♪3♪",
			entry:   Entry{Body: "♪"},
			want:    "♪♪",
		},
		{
			name:    "valid placeholder kept, out of range dropped",
			content: "[T0]你好[T3]",
			entry:   Entry{Body: "[T0]こんにちは", TagCount: 1},
			want:    "[T0]你好",
		},
		{
			name:    "bare placeholder canonicalized",
			content: "T0你好",
			entry:   Entry{Body: "[T0]こんにちは", TagCount: 1},
			want:    "[T0]你好",
		},
		{
			name:    "placeholder fragments and brackets",
			content: "[T你好T] [好]",
			entry:   Entry{Body: "こんにちは"},
			want:    "你好 好",
		},
		{
			name:    "scaffolding removed",
			content: "译文：「你好」",
			entry:   Entry{Body: "こんにちは"},
			want:    "你好",
		},
		{
			name:    "unlabelled result keeps leading time",
			content: "10：30集合",
			entry:   Entry{Body: "十時半に集合"},
			want:    "10：30集合",
		},
		{
			name:    "own label echo stripped",
			content: "3: 三点出发",
			entry:   Entry{Body: "三時に出発", Index: 3},
			want:    "三点出发",
		},
		{
			name:    "other label kept",
			content: "3:00出发",
			entry:   Entry{Body: "三時に出発", Index: 1},
			want:    "3:00出发",
		},
		{
			name:    "sentinel removed",
			content: "SKIP_LINE",
			entry:   Entry{Body: "こんにちは"},
			want:    "",
		},
	}

	s := New(Thresholds{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Clean(tt.content, tt.entry))
		})
	}
}

func distinctRunes(n int) string {
	var sb strings.Builder
	for i := range n {
		sb.WriteRune(rune(0x4E00 + i))
	}
	return sb.String()
}

func TestClean_RunawayWithoutPunctuationIsBounded(t *testing.T) {
	t.Parallel()

	s := New(Thresholds{})
	long := distinctRunes(120)

	got := s.Clean(long, Entry{Body: "はい"})

	assert.Equal(t, string([]rune(long)[:50])+Marker, got)
	assert.Equal(t, 53, utf8.RuneCountInString(got))
}

func TestClean_RunawayCutAtFirstSentence(t *testing.T) {
	t.Parallel()

	s := New(Thresholds{})
	got := s.Clean("你好。"+distinctRunes(60), Entry{Body: "はい"})

	assert.Equal(t, "你好"+Marker, got)
}

func TestClean_LongResultForLongSourceKept(t *testing.T) {
	t.Parallel()

	s := New(Thresholds{})
	long := distinctRunes(60)

	got := s.Clean(long, Entry{Body: distinctRunes(20)})

	assert.Equal(t, long, got)
}

func TestThresholds_WithDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultThresholds(), Thresholds{}.WithDefaults())

	custom := Thresholds{HallucinationMinLen: 80}.WithDefaults()
	assert.Equal(t, 80, custom.HallucinationMinLen)
	assert.Equal(t, DefaultThresholds().PhraseMaxLen, custom.PhraseMaxLen)
}
