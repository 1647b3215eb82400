package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/korean"
	"github.com/seoulstay/concierge/pkg/llm"
	"github.com/seoulstay/concierge/pkg/models"
)

const (
	rewriteMaxTokens = 60
	rewriteNumCtx    = 1024
	rewriteMaxRunes  = 200
)

// Pronouns and ellipsis markers that point back at earlier turns.
var contextReferenceWords = []string{
	"거기", "그곳", "저기", "그때", "그거", "그건", "이건", "그래서", "그럼", "그러면",
}

// Bare interrogatives and the slot phrase that completes them.
var bareInterrogatives = []struct {
	keyword string
	slot    string
}{
	{"몇시", "운영 시간"},
	{"몇 시", "운영 시간"},
	{"운영 시간", "운영 시간"},
	{"시간", "운영 시간"},
	{"얼마", "가격"},
	{"어디", "위치"},
	{"언제", "운영 시간"},
	{"예약", "예약 방법"},
}

var rewriteSystemPrompt = strings.TrimSpace(`
당신은 호텔 FAQ 검색용 질의 재작성기입니다. 대화 맥락을 반영해 마지막 질문을
독립적으로 이해 가능한 한 문장으로 다시 쓰세요. 새로운 사실을 추가하지 말고,
재작성된 질문만 출력하세요.
`)

// rewrite folds conversation context into the query so retrieval sees a
// self-contained question. Rule-based completion runs first; the LLM is the
// fallback for references the rules cannot resolve.
func (p *Pipeline) rewrite(ctx context.Context, rec *Record) {
	defer rec.recordTiming("rewrite", time.Now())
	rec.RewrittenQuery = rec.Query

	if len(rec.History) == 0 || isSelfComplete(rec.Query) {
		return
	}
	if !hasContextReference(rec.Query) {
		return
	}

	if rewritten, ok := ruleRewrite(rec.Query, rec.History); ok {
		rec.RewrittenQuery = rewritten
		slog.Debug("Rule-based query rewrite", "from", rec.Query, "to", rewritten)
		return
	}

	// Topic-switch guard: a fresh topic means the reference words are not
	// actually referring back, so rewriting would smear the old subject in.
	if topic := config.DetectCategory(rec.Query); topic != "" && !topicInRecentTurns(topic, rec.History) {
		return
	}

	prompt := buildRewritePrompt(rec.Query, rec.History)
	outcome := p.llm.Call(ctx, prompt, rewriteSystemPrompt, llm.Options{
		Temperature: 0,
		MaxTokens:   rewriteMaxTokens,
		NumCtx:      rewriteNumCtx,
	})
	if !outcome.OK() {
		rec.LLMFailed = true
		slog.Warn("Query rewrite LLM unavailable, using original query", "kind", outcome.Kind)
		return
	}

	rewritten := cleanRewrite(outcome.Text)
	if rewritten != "" {
		rec.RewrittenQuery = rewritten
	}
}

// isSelfComplete reports whether the query already names a concrete subject.
func isSelfComplete(query string) bool {
	for _, target := range config.SpecificTargets {
		if strings.Contains(query, target) {
			return true
		}
	}
	return config.DetectHotel(query) != ""
}

func hasContextReference(query string) bool {
	for _, w := range contextReferenceWords {
		if strings.Contains(query, w) {
			return true
		}
	}
	for _, bi := range bareInterrogatives {
		if strings.Contains(query, bi.keyword) {
			return true
		}
	}
	// Very short follow-ups lean on context even without reference words.
	return utf8.RuneCountInString(strings.TrimSpace(query)) <= 6
}

// ruleRewrite completes the query from the most recent subject in history.
func ruleRewrite(query string, history []models.Message) (string, bool) {
	subject := previousSubject(history)
	if subject == "" {
		return "", false
	}

	stripped := query
	for _, w := range contextReferenceWords {
		stripped = strings.ReplaceAll(stripped, w, " ")
	}
	stripped = korean.NormalizeSpace(stripped)

	for _, bi := range bareInterrogatives {
		if strings.Contains(query, bi.keyword) {
			if config.DetectCategory(stripped) != "" && strings.Contains(stripped, bi.keyword) {
				// The query carries its own subject around the
				// interrogative ("조식 몇시"); only prepend.
				return korean.NormalizeSpace(subject + " " + stripped), true
			}
			return korean.NormalizeSpace(subject + " " + bi.slot), true
		}
	}

	if stripped != query && stripped != "" {
		return korean.NormalizeSpace(subject + " " + stripped), true
	}
	return "", false
}

// previousSubject walks history newest-first for a facility, restaurant, or
// hotel mention.
func previousSubject(history []models.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		text := history[i].Content
		for _, target := range config.SpecificTargets {
			if strings.Contains(text, target) {
				return target
			}
		}
		if hotel := config.DetectHotel(text); hotel != "" {
			return config.Hotels[hotel].Name
		}
	}
	return ""
}

func topicInRecentTurns(topic string, history []models.Message) bool {
	start := len(history) - 4
	if start < 0 {
		start = 0
	}
	for _, m := range history[start:] {
		if config.DetectCategory(m.Content) == topic {
			return true
		}
	}
	return false
}

func buildRewritePrompt(query string, history []models.Message) string {
	var b strings.Builder
	start := len(history) - 2
	if start < 0 {
		start = 0
	}
	b.WriteString("대화:\n")
	for _, m := range history[start:] {
		if m.Role == models.RoleAssistant {
			b.WriteString("호텔: ")
		} else {
			b.WriteString("고객: ")
		}
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n마지막 질문: ")
	b.WriteString(query)
	b.WriteString("\n재작성된 질문:")
	return b.String()
}

func cleanRewrite(text string) string {
	text = strings.TrimSpace(text)
	for _, prefix := range []string{"재작성된 질문:", "재작성:", "질문:", "rewritten:", "Rewritten:"} {
		text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
	}
	text = strings.Trim(text, `"'`)
	if runes := []rune(text); len(runes) > rewriteMaxRunes {
		text = string(runes[:rewriteMaxRunes])
	}
	return korean.NormalizeSpace(text)
}
