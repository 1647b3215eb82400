package pipeline

import (
	"strings"
	"time"

	"github.com/seoulstay/concierge/pkg/config"
)

const sourcesHeading = "참고 정보:"

// policyFilter is the last gate before the user: PII refusal, the
// evidence-miss fallback, and source-URL attribution. Every refusal carries
// a real contact line so the guest always has a next step.
func (p *Pipeline) policyFilter(rec *Record) {
	defer rec.recordTiming("policy", time.Now())

	if config.ContainsForbiddenKeyword(rec.Query) {
		rec.PolicyReason = "pii-topic"
		rec.FinalAnswer = "예약번호, 카드번호 등 개인정보와 관련된 내용은 채팅으로 확인해 드릴 수 없습니다. " +
			p.contactLine(rec.DetectedHotel) + "로 문의 부탁드립니다."
		return
	}

	switch {
	case !rec.EvidencePassed:
		rec.PolicyReason = rec.EvidenceReason
		rec.FinalAnswer = p.refusal(rec)
	case !rec.VerificationPassed:
		rec.PolicyReason = "verification-failed"
		rec.FinalAnswer = p.refusal(rec)
	default:
		rec.FinalAnswer = appendSources(scrubInternalMarkers(rec.VerifiedAnswer), rec.Sources)
	}
	rec.PolicyPassed = true

	// The redirect sentence is deterministic template text; it is prepended
	// after verification so the grounding checks only judge model output.
	if rec.RedirectMessage != "" {
		rec.FinalAnswer = rec.RedirectMessage + "\n" + rec.FinalAnswer
	}
}

// refusal renders the honest "cannot confirm" fallback. Transport queries
// additionally get the hotel's directions page.
func (p *Pipeline) refusal(rec *Record) string {
	answer := config.FallbackCannotConfirm + ". " +
		config.FallbackContactSuffix + " (" + p.contactLine(rec.DetectedHotel) + ")"

	if rec.DetectedCategory == config.CategoryTransport {
		if info, ok := config.Hotels[rec.DetectedHotel]; ok && info.LocationURL != "" {
			answer += "\n오시는 길 안내: " + info.LocationURL
		}
	}
	return answer
}

func (p *Pipeline) contactLine(hotel string) string {
	if info, ok := config.Hotels[hotel]; ok {
		return info.Name + " " + info.Phone
	}
	return config.AllHotelContacts()
}

// scrubInternalMarkers removes anything that looks like an internal error
// string before it can reach the guest.
func scrubInternalMarkers(answer string) string {
	var lines []string
	for _, line := range strings.Split(answer, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") || strings.Contains(lower, "exception") ||
			strings.Contains(lower, "traceback") || strings.Contains(line, "오류가 발생") {
			continue
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// appendSources attaches unique source URLs, merging into an existing
// heading when the answer already carries one.
func appendSources(answer string, sources []string) string {
	if len(sources) == 0 {
		return answer
	}

	seen := make(map[string]bool)
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		seen[strings.TrimSpace(line)] = true
	}

	var fresh []string
	for _, u := range sources {
		if !seen[u] {
			seen[u] = true
			fresh = append(fresh, "- "+u)
		}
	}
	if len(fresh) == 0 {
		return answer
	}

	if strings.Contains(answer, sourcesHeading) {
		return answer + "\n" + strings.Join(fresh, "\n")
	}
	return answer + "\n\n" + sourcesHeading + "\n" + strings.Join(fresh, "\n")
}
