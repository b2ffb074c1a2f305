package types

import "unicode"

// Lang is the resolved reply language of a turn
type Lang string

const (
	LangKorean   Lang = "ko"
	LangEnglish  Lang = "en"
	LangJapanese Lang = "ja"
	LangChinese  Lang = "zh"
	LangArabic   Lang = "ar"
	LangHindi    Lang = "hi"
)

// IsValid checks if the language code is one the prompt rules cover
func (l Lang) IsValid() bool {
	switch l {
	case LangKorean, LangEnglish, LangJapanese, LangChinese, LangArabic, LangHindi:
		return true
	default:
		return false
	}
}

// String returns the string representation of the language code
func (l Lang) String() string {
	return string(l)
}

// ParseLang normalizes a locale string ("ko-KR", "en_US", ...) to a Lang.
// Unknown locales resolve to English.
func ParseLang(locale string) Lang {
	if len(locale) >= 2 {
		if l := Lang(locale[:2]); l.IsValid() {
			return l
		}
	}
	return LangEnglish
}

// DetectLang resolves the dominant language of a text by counting script
// membership per rune. Latin text is the fallback.
func DetectLang(text string) Lang {
	counts := map[Lang]int{}
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Hangul, r):
			counts[LangKorean]++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			counts[LangJapanese]++
		case unicode.Is(unicode.Han, r):
			counts[LangChinese]++
		case unicode.Is(unicode.Arabic, r):
			counts[LangArabic]++
		case unicode.Is(unicode.Devanagari, r):
			counts[LangHindi]++
		}
	}

	// Kana presence means Han characters belong to Japanese text
	if counts[LangJapanese] > 0 {
		counts[LangJapanese] += counts[LangChinese]
		delete(counts, LangChinese)
	}

	best := LangEnglish
	bestCount := 0
	for _, l := range []Lang{LangKorean, LangJapanese, LangChinese, LangArabic, LangHindi} {
		if counts[l] > bestCount {
			best = l
			bestCount = counts[l]
		}
	}
	return best
}
