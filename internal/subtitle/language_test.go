package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

type textEvent string

func (e textEvent) Text() string     { return string(e) }
func (e textEvent) SetText(_ string) {}

func TestDetectLanguage(t *testing.T) {
	events := []Event{
		textEvent("Hello, world! How are you doing today?"),
		textEvent("こんにちは、世界！今日はいい天気ですね。"),
		textEvent("ありがとうございます、また明日会いましょう。"),
		textEvent("Привет, мир! Как у тебя дела сегодня?"),
	}
	assert.Equal(t, language.Japanese, DetectLanguage(events))
}

func TestDetectLanguageEmpty(t *testing.T) {
	assert.Equal(t, language.Und, DetectLanguage(nil))
	assert.Equal(t, language.Und, DetectLanguage([]Event{textEvent("")}))
}
