// Package korean provides the Hangul-aware text helpers shared by the
// pipeline: language detection, particle stripping, tokenization, and
// keyword matching with explicit single-character boundary rules.
package korean

import (
	"strings"
	"unicode"
)

// Particles that attach to the end of a noun. Ordered longest-first so that
// StripParticles removes the most specific suffix.
var particles = []string{
	"에서는", "에서도", "으로는", "으로도", "까지는", "부터는",
	"에서", "에게", "한테", "으로", "이랑", "이나", "까지", "부터", "처럼", "보다", "마다", "조차", "마저",
	"은", "는", "이", "가", "을", "를", "에", "로", "와", "과", "도", "만", "의", "요",
}

// Stopwords excluded from keyword tokens.
var stopwords = map[string]bool{
	"알려줘": true, "알려주세요": true, "있나요": true, "있어요": true, "있는지": true,
	"어떻게": true, "어디": true, "언제": true, "얼마": true, "무엇": true, "뭐": true,
	"주세요": true, "해주세요": true, "궁금해요": true, "궁금합니다": true,
	"하나요": true, "되나요": true, "인가요": true, "건가요": true, "가요": true,
	"그리고": true, "그래서": true, "하지만": true, "혹시": true, "제가": true,
	"the": true, "a": true, "an": true, "is": true, "are": true, "of": true,
	"in": true, "to": true, "for": true, "and": true, "or": true,
}

// IsHangul reports whether r is a Hangul syllable or jamo.
func IsHangul(r rune) bool {
	return (r >= 0xAC00 && r <= 0xD7A3) || (r >= 0x1100 && r <= 0x11FF) || (r >= 0x3130 && r <= 0x318F)
}

// HangulRatio returns the fraction of non-space runes that are Hangul.
// An empty (or all-space) string has ratio 0.
func HangulRatio(s string) float64 {
	var total, hangul int
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if IsHangul(r) {
			hangul++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hangul) / float64(total)
}

// StripParticles removes one trailing particle from a Hangul token.
// Tokens at or below two runes are returned unchanged: stripping would
// destroy short nouns like "조식" or "스파".
func StripParticles(token string) string {
	runes := []rune(token)
	if len(runes) <= 2 {
		return token
	}
	for _, p := range particles {
		if strings.HasSuffix(token, p) {
			stripped := strings.TrimSuffix(token, p)
			if len([]rune(stripped)) >= 2 {
				return stripped
			}
		}
	}
	return token
}

// Tokens extracts keyword tokens from s: Hangul tokens of at least two runes
// (after particle stripping) plus lowercased ASCII words, with stopwords
// removed. Order follows first appearance; duplicates are dropped.
func Tokens(s string) []string {
	var tokens []string
	seen := make(map[string]bool)

	add := func(tok string) {
		if tok == "" || stopwords[tok] || seen[tok] {
			return
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	for _, field := range splitWords(s) {
		if isASCIIWord(field) {
			w := strings.ToLower(field)
			if len(w) >= 2 {
				add(w)
			}
			continue
		}
		tok := StripParticles(field)
		if len([]rune(tok)) >= 2 {
			add(tok)
		}
	}
	return tokens
}

// splitWords splits on anything that is not a letter or digit.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isASCIIWord(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// ContainsKeyword reports whether text contains kw. A single-rune Hangul
// keyword matches only where neither neighbouring rune is Hangul, so "차"
// does not fire inside "주차장". Longer keywords use plain substring match.
func ContainsKeyword(text, kw string) bool {
	kwRunes := []rune(kw)
	if len(kwRunes) != 1 || !IsHangul(kwRunes[0]) {
		return strings.Contains(text, kw)
	}

	runes := []rune(text)
	for i, r := range runes {
		if r != kwRunes[0] {
			continue
		}
		if i > 0 && IsHangul(runes[i-1]) {
			continue
		}
		if i < len(runes)-1 && IsHangul(runes[i+1]) {
			continue
		}
		return true
	}
	return false
}

// NormalizeSpace collapses runs of whitespace into single spaces and trims.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
