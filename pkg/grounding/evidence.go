package grounding

import (
	"regexp"
	"strings"

	"github.com/seoulstay/concierge/pkg/korean"
	"github.com/seoulstay/concierge/pkg/models"
)

var (
	numberRe = regexp.MustCompile(`\d[\d,.:]*\d|\d`)

	priceRe     = regexp.MustCompile(`\d{1,3}(?:,\d{3})+\s*원|\d+\s*만\s*원|\d+\s*원`)
	percentRe   = regexp.MustCompile(`\d+\s*%|\d+\s*퍼센트`)
	ageRe       = regexp.MustCompile(`\d+\s*세|\d+\s*살`)
	headcountRe = regexp.MustCompile(`\d+\s*명|\d+\s*인`)
	timeRe      = regexp.MustCompile(`\d{1,2}:\d{2}|\d{1,2}\s*시`)

	bilingualRe = regexp.MustCompile(`([가-힣][가-힣\s]*[가-힣]|[가-힣])\s*\(\s*([A-Za-z][A-Za-z&'’.\s]*)\s*\)`)
	// Name must be the single token before the facility word, and the
	// facility word must end at a Hangul boundary so 카페 does not fire
	// inside 카페테리아.
	facilityRe = regexp.MustCompile(`([가-힣A-Za-z]+)\s+(레스토랑|카페|라운지|센터|클럽|뷔페)(?:[^가-힣]|$)`)
)

var feeKeywords = []string{"무료", "유료", "할인"}

// numbers extracts the digit sequences of s with thousands separators
// removed, so "90,000원" and "90000" compare equal.
func numbers(s string) []string {
	raw := numberRe.FindAllString(s, -1)
	out := make([]string, 0, len(raw))
	for _, n := range raw {
		out = append(out, strings.ReplaceAll(n, ",", ""))
	}
	return out
}

// numberSet indexes the numbers of s for exact comparison. Substring
// comparison would let 3,000 pass against 30,000.
func numberSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, n := range numbers(s) {
		set[n] = true
	}
	return set
}

// bestEvidence finds the strongest supporting span for claim across the
// chunks. An exact substring match scores 1.0. Otherwise the score combines
// numeric agreement, keyword overlap, and the single best-overlapping context
// sentence, with a bonus when that sentence carries every number the claim
// does.
func bestEvidence(claim string, chunks []models.Chunk) (string, float64) {
	normClaim := korean.NormalizeSpace(claim)
	claimNums := numbers(claim)
	claimToks := korean.Tokens(claim)

	var bestSpan string
	var bestScore float64

	for _, c := range chunks {
		text := korean.NormalizeSpace(c.Text)
		if normClaim != "" && strings.Contains(text, normClaim) {
			return normClaim, 1.0
		}

		span, score := scoreAgainst(text, claimNums, claimToks)
		if score > bestScore {
			bestScore, bestSpan = score, span
		}
	}
	return bestSpan, bestScore
}

func scoreAgainst(text string, claimNums, claimToks []string) (string, float64) {
	var numScore float64
	if len(claimNums) > 0 {
		matched := 0
		ctxNums := numberSet(text)
		for _, n := range claimNums {
			if ctxNums[n] {
				matched++
			}
		}
		numScore = float64(matched) / float64(len(claimNums))
	}

	var wordScore float64
	if len(claimToks) > 0 {
		matched := 0
		for _, tok := range claimToks {
			if strings.Contains(text, tok) {
				matched++
			}
		}
		wordScore = float64(matched) / float64(len(claimToks))
	}

	// Best single sentence, with a bonus when it reproduces every claim
	// number exactly.
	var bestSent string
	var sentScore float64
	for _, sent := range SplitSentences(text) {
		matched := 0
		for _, tok := range claimToks {
			if strings.Contains(sent, tok) {
				matched++
			}
		}
		var s float64
		if len(claimToks) > 0 {
			s = float64(matched) / float64(len(claimToks))
		}
		if len(claimNums) > 0 && containsAllNumbers(sent, claimNums) {
			s += 0.3
		}
		if s > sentScore {
			sentScore, bestSent = s, sent
		}
	}

	var score float64
	if len(claimNums) > 0 {
		score = 0.4*numScore + 0.3*wordScore + 0.3*sentScore
	} else {
		score = 0.6*wordScore + 0.4*sentScore
	}
	if score > 1.0 {
		score = 1.0
	}
	return bestSent, score
}

func containsAllNumbers(s string, nums []string) bool {
	set := numberSet(s)
	for _, n := range nums {
		if !set[n] {
			return false
		}
	}
	return len(nums) > 0
}

// verifySensitive checks the claim's high-risk tokens against context.
// Prices must appear digit for digit; rates, ages, headcounts, and times
// must appear with the same unit; fee keywords must appear somewhere.
func verifySensitive(claim, context string) bool {
	ctxNums := numberSet(context)

	for _, p := range priceRe.FindAllString(claim, -1) {
		for _, n := range numbers(p) {
			if !ctxNums[n] {
				return false
			}
		}
	}

	for _, re := range []*regexp.Regexp{percentRe, ageRe, headcountRe, timeRe} {
		for _, tok := range re.FindAllString(claim, -1) {
			if !strings.Contains(korean.NormalizeSpace(context), korean.NormalizeSpace(tok)) {
				// Unit token not verbatim in context; accept a spacing
				// variant by comparing with spaces removed.
				if !strings.Contains(despace(context), despace(tok)) {
					return false
				}
			}
		}
	}

	for _, kw := range feeKeywords {
		if strings.Contains(claim, kw) && !strings.Contains(context, kw) {
			return false
		}
	}
	return true
}

// verifyProperNouns checks bilingual name pairs and facility-suffixed names.
// For "<Hangul>(<English>)" at least one side must appear in context; for
// "<name> 레스토랑" style mentions the name itself must.
func verifyProperNouns(claim, context string) bool {
	for _, m := range bilingualRe.FindAllStringSubmatch(claim, -1) {
		ko := strings.TrimSpace(m[1])
		en := strings.TrimSpace(m[2])
		if !strings.Contains(context, ko) && !containsFold(context, en) {
			return false
		}
	}

	for _, m := range facilityRe.FindAllStringSubmatch(claim, -1) {
		name := korean.StripParticles(strings.TrimSpace(m[1]))
		if name == "" || genericPrefixes[name] {
			continue
		}
		if !strings.Contains(context, name) && !containsFold(context, name) {
			return false
		}
	}
	return true
}

// Generic leading words are not facility names.
var genericPrefixes = map[string]bool{
	"저희": true, "이": true, "그": true, "해당": true, "호텔": true,
	"조식": true, "뷔페": true, "투숙객": true,
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func despace(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
