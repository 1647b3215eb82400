package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/korean"
	"github.com/seoulstay/concierge/pkg/llm"
	"github.com/seoulstay/concierge/pkg/models"
	"github.com/seoulstay/concierge/pkg/verify"
)

const (
	composeMaxTokens   = 500
	composeTemperature = 0.2
	directAnswerChunks = 3
)

var (
	refMarkerRe = regexp.MustCompile(`\[REF:\s*([\d,\s]+)\]`)
	qaMarkerRe  = regexp.MustCompile(`(?m)^\s*[QA]\s*[:.]`)

	timeInfoRe  = regexp.MustCompile(`\d{1,2}:\d{2}|\d{1,2}시`)
	priceInfoRe = regexp.MustCompile(`\d{1,3}(?:,\d{3})+원|\d+원`)
	listInfoRe  = regexp.MustCompile(`(?m)^\s*[-•·*]`)

	// "what/which X" question forms that demand concrete facts.
	whatFormRe = regexp.MustCompile(`(무슨|어떤|어느)\s*(레스토랑|식당|메뉴|시설|종류)`)

	llmErrorPhraseRe = regexp.MustCompile(`일시적(인)?\s*(오류|에러)|temporary error`)
)

var composeSystemPrompt = strings.TrimSpace(`
당신은 조선호텔 FAQ 안내 챗봇입니다. 규칙:
1. 반드시 제공된 참고 자료의 내용만 사용하세요. 자료에 없는 내용은 답하지 마세요.
2. 시설명, 전화번호, 교통편, 가격을 지어내지 마세요.
3. 존댓말을 사용한 완성된 한국어 문장으로 답하세요.
4. 답변 마지막 줄에 사용한 자료 번호를 [REF:1,2] 형식으로 표기하세요.
`)

// compose turns the evidence set into a natural-language answer. Every
// sentence must trace back to a retrieved chunk; when the LLM cannot be
// trusted to do that (failure, overload, garbage) the node falls back to
// deterministic extraction.
func (p *Pipeline) compose(ctx context.Context, rec *Record) {
	defer rec.recordTiming("compose", time.Now())

	merged := mergeChunksByURL(rec.RetrievedChunks)
	if len(merged) == 0 {
		return
	}

	// "Which restaurant" style questions with no concrete facts in context
	// cannot be answered honestly; skip the LLM and say so.
	if whatFormRe.MatchString(rec.NormalizedQuery) && !hasConcreteFacts(merged) {
		rec.Answer = p.cannotConfirm(rec.DetectedHotel)
		rec.Sources = nil
		return
	}

	var answer string
	if rec.LLMFailed {
		answer = directAnswer(merged)
	} else {
		answer = p.generateAnswer(ctx, rec, merged)
	}
	if answer == "" {
		answer = p.cannotConfirm(rec.DetectedHotel)
	}

	answer, refs := parseRefs(answer, merged)
	rec.Sources = refs
	if len(rec.Sources) == 0 && merged[0].URL != "" {
		rec.Sources = []string{merged[0].URL}
	}

	rec.Answer = verify.ScrubCJK(answer)
}

func (p *Pipeline) generateAnswer(ctx context.Context, rec *Record, merged []models.Chunk) string {
	prompt := buildComposePrompt(rec.NormalizedQuery, merged)
	outcome := p.llm.Call(ctx, prompt, composeSystemPrompt, llm.Options{
		Temperature: composeTemperature,
		MaxTokens:   composeMaxTokens,
		NumCtx:      p.cfg.LLM.NumCtx,
	})
	if !outcome.OK() {
		rec.LLMFailed = true
		slog.Warn("Compose LLM unavailable, extracting directly", "kind", outcome.Kind)
		return directAnswer(merged)
	}
	if llmErrorPhraseRe.MatchString(outcome.Text) {
		slog.Warn("Compose LLM returned an error phrase, extracting directly")
		return directAnswer(merged)
	}
	return strings.TrimSpace(outcome.Text)
}

func (p *Pipeline) cannotConfirm(hotel string) string {
	contact := config.AllHotelContacts()
	if info, ok := config.Hotels[hotel]; ok {
		contact = info.Name + " " + info.Phone
	}
	return config.FallbackCannotConfirm + ". " + config.FallbackContactSuffix + " (" + contact + ")"
}

// directAnswer extracts a deterministic answer from the top chunks.
func directAnswer(merged []models.Chunk) string {
	for i, c := range merged {
		if i >= directAnswerChunks {
			break
		}
		if ans := verify.ExtractDirectAnswer(c.Text, c.HotelName); ans != "" {
			return ans
		}
	}
	return ""
}

// mergeChunksByURL groups chunks sharing a URL, deduplicates their
// sentences, and keeps the best score's metadata per group.
func mergeChunksByURL(chunks []models.Chunk) []models.Chunk {
	groups := make(map[string]*models.Chunk)
	var order []string

	for _, c := range chunks {
		key := c.URL
		if key == "" {
			key = c.ChunkID
		}
		g, ok := groups[key]
		if !ok {
			copied := c
			groups[key] = &copied
			order = append(order, key)
			continue
		}
		g.Text = g.Text + "\n" + c.Text
		if c.Score > g.Score {
			g.Score = c.Score
			g.ChunkID = c.ChunkID
			g.PageType = c.PageType
		}
	}

	out := make([]models.Chunk, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.Text = dedupeSentences(g.Text)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > retrieveTopK {
		out = out[:retrieveTopK]
	}
	return out
}

// dedupeSentences removes repeated sentences line by line, leaving Q/A
// marker lines untouched so extraction still works.
func dedupeSentences(text string) string {
	seen := make(map[string]bool)
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		if qaMarkerRe.MatchString(line) {
			lines = append(lines, line)
			continue
		}
		norm := korean.NormalizeSpace(line)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func hasConcreteFacts(chunks []models.Chunk) bool {
	for _, c := range chunks {
		if timeInfoRe.MatchString(c.Text) || priceInfoRe.MatchString(c.Text) ||
			qaMarkerRe.MatchString(c.Text) {
			return true
		}
	}
	return false
}

// buildComposePrompt renders the numbered reference list with per-chunk
// source labels and an integration hint.
func buildComposePrompt(query string, merged []models.Chunk) string {
	var b strings.Builder
	b.WriteString("참고 자료:\n")
	for i, c := range merged {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, chunkLabel(c), c.Text)
		if hint := infoTypesOf(c); hint != "" {
			fmt.Fprintf(&b, "    포함 정보: %s\n", hint)
		}
	}
	b.WriteString("\n여러 자료에 정보가 나뉘어 있으면 종합해서 답하세요.\n")
	b.WriteString("질문: ")
	b.WriteString(query)
	return b.String()
}

// chunkLabel names the page a chunk came from for attribution.
func chunkLabel(c models.Chunk) string {
	label := c.PageType
	if label == "" {
		switch {
		case strings.Contains(c.URL, "dining"):
			label = "다이닝 페이지"
		case strings.Contains(c.URL, "package"):
			label = "패키지 페이지"
		case strings.Contains(c.URL, "location"):
			label = "오시는 길 페이지"
		default:
			label = "안내 페이지"
		}
	}
	if c.HotelName != "" {
		return c.HotelName + " " + label
	}
	return label
}

func infoTypesOf(c models.Chunk) string {
	var types []string
	if timeInfoRe.MatchString(c.Text) {
		types = append(types, "시간")
	}
	if priceInfoRe.MatchString(c.Text) {
		types = append(types, "가격")
	}
	if listInfoRe.MatchString(c.Text) {
		types = append(types, "목록")
	}
	if strings.Contains(c.Text, "위치") || strings.Contains(c.Text, "층") {
		types = append(types, "위치")
	}
	if strings.Contains(c.Text, "규정") || strings.Contains(c.Text, "정책") {
		types = append(types, "정책")
	}
	if qaMarkerRe.MatchString(c.Text) {
		types = append(types, "FAQ")
	}
	return strings.Join(types, ", ")
}

// parseRefs extracts the [REF:n,m] marker, maps indices to chunk URLs, and
// strips the marker from the answer.
func parseRefs(answer string, merged []models.Chunk) (string, []string) {
	m := refMarkerRe.FindStringSubmatch(answer)
	if m == nil {
		return answer, nil
	}

	var urls []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(m[1], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 || n > len(merged) {
			continue
		}
		u := merged[n-1].URL
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	answer = strings.TrimSpace(refMarkerRe.ReplaceAllString(answer, ""))
	return answer, urls
}
