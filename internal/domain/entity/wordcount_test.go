package entity

import "testing"

func TestCountWordsAutoDetect(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"latin whitespace", "the quick brown fox", 4},
		{"cjk runes", "这是一个测试", 6},
		{"mixed", "hello 世界", 3},
		{"empty", "", 0},
		{"extra spaces", "  hi   there  ", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWords(tt.text); got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestCountWordsForLocalePinsStrategy(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		locale string
		want   int
	}{
		{"empty locale auto-detects", "hello world", "", 2},
		{"zh counts every rune", "你好 世界", "zh", 4},
		{"ja counts every rune", "こんにちは", "ja", 5},
		{"ko counts every rune", "안녕하세요", "ko", 5},
		{"other locale splits on whitespace", "hello brave world", "en", 3},
		{"unlisted locale falls through to split", "one two three", "fr", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CountWordsForLocale(tt.text, tt.locale); got != tt.want {
				t.Errorf("CountWordsForLocale(%q, %q) = %d, want %d", tt.text, tt.locale, got, tt.want)
			}
		})
	}
}

func TestCountWordsForLocaleEnglishMatchesAutoDetect(t *testing.T) {
	text := "a long chapter full of   many    spaced words"
	if got, want := CountWordsForLocale(text, "en"), CountWords(text); got != want {
		t.Errorf("locale-pinned English count %d diverged from auto-detect %d", got, want)
	}
}
