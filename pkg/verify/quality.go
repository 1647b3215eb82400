package verify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/korean"
)

const (
	maxForeignChars = 3
	minKoreanRatio  = 0.25
	minAnswerRunes  = 5
)

// English hotel vocabulary that legitimately appears in Korean answers and
// must not count against the Korean ratio.
var allowedEnglishTerms = []string{
	"check-in", "check-out", "spa", "fitness", "lounge", "buffet", "deli",
	"suite", "twin", "double", "wifi", "bar", "club", "aria", "constans",
	"josun", "westin", "grand", "palace", "hotel",
}

// CheckQuality rejects degenerate model output before any content check
// runs. It returns the failure label, or "" when the answer is acceptable.
func CheckQuality(answer string) string {
	trimmed := strings.TrimSpace(answer)
	if utf8.RuneCountInString(trimmed) < minAnswerRunes {
		return "too-short"
	}

	var chinese, japanese int
	for _, r := range trimmed {
		switch {
		case unicode.Is(unicode.Han, r):
			chinese++
		case r >= 0x3040 && r <= 0x30FF:
			japanese++
		}
	}
	if chinese >= maxForeignChars {
		return "chinese-characters"
	}
	if japanese >= maxForeignChars {
		return "japanese-characters"
	}

	if koreanLetterRatio(trimmed) < minKoreanRatio {
		return "low-korean-ratio"
	}

	for _, p := range config.SuspiciousPatterns {
		if p.Regex.MatchString(trimmed) {
			return p.Label
		}
	}
	if config.HasRepeatedRune(trimmed, 6) {
		return "repeated-char"
	}
	return ""
}

// koreanLetterRatio computes the Hangul share of letters after removing
// digits, punctuation, and whitelisted English hotel vocabulary.
func koreanLetterRatio(s string) float64 {
	lower := strings.ToLower(s)
	for _, term := range allowedEnglishTerms {
		lower = strings.ReplaceAll(lower, term, " ")
	}

	var letters, hangul int
	for _, r := range lower {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if korean.IsHangul(r) {
			hangul++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(hangul) / float64(letters)
}
