package grounding

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const minClaimRunes = 5

var bulletPrefixes = []string{"- ", "• ", "* ", "· "}

// SplitClaims breaks an answer into sentence-level claims. Answers written
// as lists split on newlines with bullet markers stripped; prose splits on
// sentence boundaries. Fragments shorter than five runes are dropped, and a
// single-sentence answer becomes exactly one claim.
func SplitClaims(answer string) []string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}

	var parts []string
	if strings.Contains(answer, "\n") {
		for _, line := range strings.Split(answer, "\n") {
			line = strings.TrimSpace(line)
			for _, b := range bulletPrefixes {
				line = strings.TrimPrefix(line, b)
			}
			line = strings.TrimSpace(line)
			if line != "" {
				parts = append(parts, line)
			}
		}
	} else {
		parts = SplitSentences(answer)
	}

	claims := parts[:0]
	for _, p := range parts {
		if utf8.RuneCountInString(p) >= minClaimRunes {
			claims = append(claims, p)
		}
	}
	if len(claims) == 0 {
		return []string{answer}
	}
	return claims
}

// SplitSentences splits Korean prose on terminal punctuation. The terminator
// stays attached to its sentence.
func SplitSentences(text string) []string {
	var sentences []string
	var buf strings.Builder

	flush := func() {
		s := strings.TrimSpace(buf.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		buf.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		buf.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// A period is a boundary only before whitespace or end of text;
		// periods inside URLs, decimals, and file names stay attached.
		if r == '.' && i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		flush()
	}
	flush()
	return sentences
}
