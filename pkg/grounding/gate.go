package grounding

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/seoulstay/concierge/pkg/models"
)

const minSurvivingRunes = 10

// Filler sentences carry no factual content and are grounded by definition.
var fillerRes = []*regexp.Regexp{
	regexp.MustCompile(`^(네|안녕하세요|감사합니다)`),
	regexp.MustCompile(`도움이 (되|필요)`),
	regexp.MustCompile(`문의(해| )?(주시|부탁)`),
	regexp.MustCompile(`안내(해 )?드리(겠습니다|도록 하겠습니다)$`),
	regexp.MustCompile(`^말씀하신`),
	regexp.MustCompile(`좋은 하루`),
}

// Gate performs claim-level grounding of an answer against retrieved chunks.
type Gate struct {
	threshold float64
}

// NewGate creates a gate with the claim evidence threshold.
func NewGate(threshold float64) *Gate {
	return &Gate{threshold: threshold}
}

// Check splits answer into claims, verifies each against the chunks, and
// returns the aggregate result plus the surviving answer text.
//
// The surviving text equals the input when confidence is "certain". When
// "uncertain", sentences whose numbers could not be verified are dropped;
// if fewer than ten runes survive, or when confidence is "ungrounded", the
// returned text is empty and the caller must substitute its refusal
// template.
func (g *Gate) Check(answer string, chunks []models.Chunk) (models.GroundingResult, string) {
	claims := SplitClaims(answer)
	if len(claims) == 0 {
		return models.GroundingResult{
			Passed:     false,
			Reason:     "empty answer",
			Confidence: models.ConfidenceUngrounded,
		}, ""
	}

	context := joinContext(chunks)

	var verified, rejected []models.Claim
	for _, text := range claims {
		claim := g.verifyClaim(text, context, chunks)
		if claim.IsGrounded {
			verified = append(verified, claim)
		} else {
			rejected = append(rejected, claim)
		}
	}

	result := models.GroundingResult{
		VerifiedClaims: verified,
		RejectedClaims: rejected,
	}

	switch {
	case len(rejected) == 0:
		result.Passed = true
		result.Confidence = models.ConfidenceCertain
		return result, answer

	case len(verified) == 0:
		result.Confidence = models.ConfidenceUngrounded
		result.Reason = "no claim supported by retrieved context"
		slog.Warn("Grounding rejected entire answer", "claims", len(claims))
		return result, ""

	default:
		result.Confidence = models.ConfidenceUncertain
		result.Reason = "some claims unsupported"
		kept := dropRejected(answer, rejected)
		if utf8.RuneCountInString(strings.TrimSpace(kept)) < minSurvivingRunes {
			slog.Warn("Grounding left too little text", "kept_runes", utf8.RuneCountInString(kept))
			return result, ""
		}
		result.Passed = true
		return result, kept
	}
}

func (g *Gate) verifyClaim(text, context string, chunks []models.Chunk) models.Claim {
	claim := models.Claim{Text: text}

	if isFiller(text) {
		claim.EvidenceScore = 1.0
		claim.IsGrounded = true
		return claim
	}

	span, score := bestEvidence(text, chunks)
	claim.EvidenceSpan = span
	claim.EvidenceScore = score

	nums := numbers(text)
	claim.HasNumeric = len(nums) > 0
	if claim.HasNumeric {
		claim.NumericVerified = containsAllNumbers(context, nums) && verifySensitive(text, context)
	}

	claim.IsGrounded = score >= g.threshold &&
		(!claim.HasNumeric || claim.NumericVerified) &&
		verifyProperNouns(text, context)
	return claim
}

func isFiller(claim string) bool {
	for _, re := range fillerRes {
		if re.MatchString(claim) {
			return true
		}
	}
	return false
}

// dropRejected removes the sentences of rejected claims from the answer,
// matching by claim text.
func dropRejected(answer string, rejected []models.Claim) string {
	lines := strings.Split(answer, "\n")
	var out []string
	for _, line := range lines {
		kept := line
		for _, rc := range rejected {
			if strings.Contains(kept, rc.Text) {
				kept = strings.ReplaceAll(kept, rc.Text, "")
			}
		}
		kept = strings.TrimSpace(kept)
		if kept != "" && !isBareBullet(kept) {
			out = append(out, kept)
		}
	}
	return strings.Join(out, "\n")
}

func isBareBullet(s string) bool {
	switch s {
	case "-", "•", "*", "·":
		return true
	}
	return false
}

func joinContext(chunks []models.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
		b.WriteString("\n")
	}
	return b.String()
}
