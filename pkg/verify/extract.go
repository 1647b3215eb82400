package verify

import (
	"regexp"
	"strings"

	"github.com/seoulstay/concierge/pkg/korean"
)

var (
	answerMarkerRe = regexp.MustCompile(`(?m)^\s*A\s*[:.]\s*`)
	questionLineRe = regexp.MustCompile(`(?m)^\s*Q\s*[:.]`)

	hoursLineRe    = regexp.MustCompile(`(운영\s*시간|영업\s*시간|이용\s*시간).{0,60}\d{1,2}[:시]`)
	locationLineRe = regexp.MustCompile(`(위치|장소)\s*[:：]?\s*\S|\d{1,2}층`)
	inquiryLineRe  = regexp.MustCompile(`(문의|예약)\s*[:：]?\s*0\d{1,2}-\d{3,4}-\d{4}`)
	cuisineLineRe  = regexp.MustCompile(`(뷔페|그릴|씨푸드|한식|중식|일식|양식|베이커리)`)

	navDumpRe = regexp.MustCompile(`(홈|메뉴|로그인|회원가입|사이트맵)\s*[|>›]`)

	cjkRe = regexp.MustCompile(`[\x{4E00}-\x{9FFF}\x{3040}-\x{30FF}]`)
)

// ExtractDirectAnswer builds a deterministic answer from a chunk when the
// LLM is unavailable or produced garbage. It prefers the text after an "A:"
// marker in Q&A chunks; otherwise it assembles hours, location, and inquiry
// lines from structured text. Returns "" when nothing safe can be
// extracted.
func ExtractDirectAnswer(text, hotelName string) string {
	text = strings.TrimSpace(text)
	if text == "" || navDumpRe.MatchString(text) {
		return ""
	}

	if loc := answerMarkerRe.FindStringIndex(text); loc != nil {
		body := text[loc[1]:]
		if q := questionLineRe.FindStringIndex(body); q != nil {
			body = body[:q[0]]
		}
		body = korean.NormalizeSpace(body)
		if body != "" {
			return withAttribution(body, hotelName)
		}
	}

	var parts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case hoursLineRe.MatchString(line),
			locationLineRe.MatchString(line),
			inquiryLineRe.MatchString(line),
			cuisineLineRe.MatchString(line) && shortLine(line):
			parts = append(parts, "- "+line)
		}
		if len(parts) >= 5 {
			break
		}
	}
	if len(parts) < 2 {
		return ""
	}
	return withAttribution(strings.Join(parts, "\n"), hotelName)
}

func shortLine(line string) bool {
	return len([]rune(line)) <= 40
}

func withAttribution(body, hotelName string) string {
	if hotelName == "" {
		return body
	}
	return hotelName + " 기준 안내입니다.\n" + body
}

// ScrubCJK replaces common hanja with Korean readings, then removes any
// remaining Chinese or Japanese characters and tidies the whitespace.
func ScrubCJK(s string) string {
	for hanja, ko := range cjkSubstitutions {
		s = strings.ReplaceAll(s, hanja, ko)
	}
	s = cjkRe.ReplaceAllString(s, "")
	s = repeatedPeriodRe.ReplaceAllString(s, ".")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = korean.NormalizeSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
