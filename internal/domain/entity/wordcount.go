package entity

import "unicode"

// CountWords approximates a chapter's length the way readers expect:
// each CJK rune counts as one word, Latin-script text is split on
// whitespace.
func CountWords(text string) int {
	count := 0
	inWord := false
	for _, r := range text {
		if isCJKRune(r) {
			count++
			inWord = false
			continue
		}
		if unicode.IsSpace(r) {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// CountWordsForLocale is CountWords, except a non-empty locale pins the
// strategy instead of auto-detecting by script: "zh"/"ja"/"ko" count
// every rune, anything else splits on whitespace. An empty locale falls
// back to CountWords' auto-detection.
func CountWordsForLocale(text, locale string) int {
	switch locale {
	case "":
		return CountWords(text)
	case "zh", "ja", "ko":
		count := 0
		for _, r := range text {
			if !unicode.IsSpace(r) {
				count++
			}
		}
		return count
	default:
		return len(wordsplit(text))
	}
}

func wordsplit(text string) []string {
	var out []string
	inWord := false
	start := 0
	runes := []rune(text)
	for i, r := range runes {
		if unicode.IsSpace(r) {
			if inWord {
				out = append(out, string(runes[start:i]))
				inWord = false
			}
			continue
		}
		if !inWord {
			start = i
			inWord = true
		}
	}
	if inWord {
		out = append(out, string(runes[start:]))
	}
	return out
}

func isCJKRune(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}
