package pipeline

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/korean"
	"github.com/seoulstay/concierge/pkg/models"
)

// Words that survive keyword stripping but never count as a subject.
var genericSubjectWords = map[string]bool{
	"안내": true, "방법": true, "정보": true, "문의": true, "이용": true,
	"오늘": true, "내일": true, "지금": true, "정도": true, "관련": true,
	"호텔": true, "확인": true, "질문": true,
}

// clarificationCheck decides whether to answer or to ask back. Checks run
// in fixed order; the first that fires wins. A fired clarification becomes
// the final answer and the pipeline short-circuits to the audit log.
func (p *Pipeline) clarificationCheck(rec *Record) {
	defer rec.recordTiming("clarify", time.Now())
	if !rec.IsValidQuery {
		return
	}
	// A query asking about reservations or personal data never gets a
	// clarification; the policy filter owns that refusal.
	if config.ContainsForbiddenKeyword(rec.Query) {
		return
	}
	q := rec.NormalizedQuery

	// 1. Entity resolution already prepared the question.
	if rec.RestaurantEntity.Action == models.EntityClarify {
		p.emitClarification(rec, "restaurant-hotel",
			rec.RestaurantEntity.Message, rec.RestaurantEntity.ClarifyOptions)
		return
	}

	clarified := previouslyClarified(rec.History)

	// 2-5. Context clarifications (pet, child).
	for _, cc := range config.ContextClarifications {
		if !containsAny(q, cc.Keywords) {
			continue
		}
		switch {
		case clarified[cc.Context]:
			// Already asked once; re-asking would loop.
		case containsAny(q, config.ConcreteTargetKeywords):
			// "반려견 요금" is specific enough.
		case containsAny(q, cc.DirectTriggers):
			rec.ClarificationType = "direct-" + cc.Context
		default:
			p.emitClarification(rec, "context-"+cc.Context, cc.Question, cc.Options)
			return
		}
		break
	}

	// 6. Specific targets short-circuit, except when the transport pattern
	// fires on the original query: "how do I get there" needs the transport
	// disambiguation even when a facility is named.
	if hasSpecificTarget(q) && len(transportMatches(rec.Query)) == 0 {
		return
	}

	// 7. Ambiguous patterns with subject extraction.
	for _, ap := range config.AmbiguousPatterns {
		matched := ambiguousMatches(ap, q)
		if len(matched) == 0 || clarified[ap.Name] {
			continue
		}
		if subject := extractSubjectEntity(q, matched); subject != "" {
			slog.Debug("Ambiguous pattern resolved by subject", "pattern", ap.Name, "subject", subject)
			continue
		}
		p.emitClarification(rec, ap.Name, ap.Clarification, ap.Options)
		return
	}
}

func (p *Pipeline) emitClarification(rec *Record, kind, question string, options []string) {
	rec.NeedsClarification = true
	rec.ClarificationType = kind
	rec.ClarificationQuestion = question
	rec.ClarificationOptions = options
	// A clarification is a successful outcome, not an evidence miss.
	rec.EvidencePassed = true
	rec.FinalAnswer = question
	slog.Info("Asking clarification", "type", kind)
}

// previouslyClarified collects the clarification kinds the assistant has
// already asked in this conversation.
func previouslyClarified(history []models.Message) map[string]bool {
	out := make(map[string]bool)
	for _, m := range history {
		if m.Role != models.RoleAssistant {
			continue
		}
		for _, cc := range config.ContextClarifications {
			if strings.Contains(m.Content, cc.Question) {
				out[cc.Context] = true
			}
		}
		for _, ap := range config.AmbiguousPatterns {
			if strings.Contains(m.Content, ap.Clarification) {
				out[ap.Name] = true
			}
		}
	}
	return out
}

func transportMatches(q string) []string {
	for _, ap := range config.AmbiguousPatterns {
		if ap.Name == "transport" {
			return ambiguousMatches(ap, q)
		}
	}
	return nil
}

func ambiguousMatches(ap config.AmbiguousPattern, q string) []string {
	for _, ex := range ap.Exclude {
		if strings.Contains(q, ex) {
			return nil
		}
	}
	var matched []string
	for _, kw := range ap.Keywords {
		if strings.Contains(q, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func hasSpecificTarget(q string) bool {
	for _, target := range config.SpecificTargets {
		if strings.Contains(q, target) {
			return true
		}
	}
	return false
}

// extractSubjectEntity strips the pattern's own keywords and grammar from
// the query and returns the longest remaining token of two or more runes.
// A surviving token means the query has a subject and is not ambiguous.
func extractSubjectEntity(q string, matchedKeywords []string) string {
	stripped := q
	for _, kw := range matchedKeywords {
		stripped = strings.ReplaceAll(stripped, kw, " ")
	}

	tokens := korean.Tokens(stripped)
	candidates := tokens[:0]
	for _, tok := range tokens {
		if len([]rune(tok)) >= 2 && !genericSubjectWords[tok] {
			candidates = append(candidates, tok)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len([]rune(candidates[i])) > len([]rune(candidates[j]))
	})
	return candidates[0]
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
