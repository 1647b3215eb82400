package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoulstay/concierge/pkg/chatlog"
	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/grounding"
	"github.com/seoulstay/concierge/pkg/llm"
	"github.com/seoulstay/concierge/pkg/models"
	"github.com/seoulstay/concierge/pkg/rerank"
	"github.com/seoulstay/concierge/pkg/session"
	"github.com/seoulstay/concierge/pkg/vector"
	"github.com/seoulstay/concierge/pkg/verify"
)

type fakeLLM struct {
	respond func(prompt, system string) llm.Outcome
}

func (f *fakeLLM) Call(_ context.Context, prompt, system string, _ llm.Options) llm.Outcome {
	if f.respond == nil {
		return llm.Outcome{Kind: llm.OutcomeFailure, Err: errors.New("no backend")}
	}
	return f.respond(prompt, system)
}

type fakeIndex struct {
	chunks []models.Chunk
	calls  int
}

func (f *fakeIndex) Search(_ context.Context, q vector.Query) ([]models.Chunk, error) {
	f.calls++
	if q.Hotel == "" {
		return nil, nil
	}
	var out []models.Chunk
	for _, c := range f.chunks {
		if c.Hotel != q.Hotel {
			continue
		}
		if q.Category != "" && c.Category != q.Category {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeIndex) Close() error { return nil }

type constScorer struct{}

func (constScorer) ScorePairs(_ context.Context, pairs [][2]string) ([]float64, error) {
	out := make([]float64, len(pairs))
	for i := range out {
		out[i] = 2.0
	}
	return out, nil
}

func newTestPipeline(t *testing.T, idx vector.Index, respond func(prompt, system string) llm.Outcome) *Pipeline {
	t.Helper()
	cfg := config.Defaults()

	known, err := config.LoadKnownNames(t.TempDir())
	require.NoError(t, err)
	forbidden, err := config.LoadForbiddenPatterns(t.TempDir())
	require.NoError(t, err)

	verifier := verify.New(known, forbidden, grounding.NewGate(cfg.GroundingThreshold))
	reranker := rerank.New(constScorer{}, cfg.Rerank)
	sessions := session.NewStore(cfg.Session)
	logger, err := chatlog.New(t.TempDir())
	require.NoError(t, err)

	return New(cfg, &fakeLLM{respond: respond}, idx, reranker, verifier, sessions, logger)
}

func answerWith(text string) func(prompt, system string) llm.Outcome {
	return func(_, _ string) llm.Outcome {
		return llm.Outcome{Kind: llm.OutcomeOK, Text: text}
	}
}

func TestPhoneQueryWithEvidence(t *testing.T) {
	idx := &fakeIndex{chunks: []models.Chunk{{
		ChunkID: "c1", Hotel: config.HotelJosunPalace, HotelName: "조선 팰리스 서울 강남",
		Category: config.CategoryContact, URL: "https://jpg.josunhotel.com/about/contact.do",
		Text: "조선 팰리스 서울 강남 대표 전화번호는 02-727-7200입니다.", Score: 0.82,
	}}}
	p := newTestPipeline(t, idx,
		answerWith("조선 팰리스 서울 강남 대표 전화번호는 02-727-7200입니다. [REF:1]"))

	rec := p.Run(context.Background(), Request{
		Query: "조선 팰리스 대표 전화번호 알려줘",
		Hotel: config.HotelJosunPalace,
	})

	assert.True(t, rec.EvidencePassed)
	assert.True(t, rec.VerificationPassed)
	assert.Contains(t, rec.FinalAnswer, "02-727-7200")
	assert.Contains(t, rec.Sources, "https://jpg.josunhotel.com/about/contact.do")
}

func TestBreakfastQueryWithoutHotelFallsBack(t *testing.T) {
	p := newTestPipeline(t, &fakeIndex{}, nil)

	rec := p.Run(context.Background(), Request{Query: "조식 시간 알려줘"})

	assert.True(t, rec.IsValidQuery)
	assert.False(t, rec.NeedsClarification)
	assert.False(t, rec.EvidencePassed)
	assert.Contains(t, rec.FinalAnswer, "문의")
	assert.Contains(t, rec.FinalAnswer, "02-727-7200", "refusal carries real contact info")
}

func TestAnaphoricFollowUp(t *testing.T) {
	idx := &fakeIndex{chunks: []models.Chunk{{
		ChunkID: "c1", Hotel: config.HotelGrandJosunBusan, HotelName: "그랜드 조선 부산",
		Category: config.CategoryDining, URL: "https://gjb.josunhotel.com/dining/aria.do",
		Text: "아리아(ARIA)는 그랜드 조선 부산 2층에 위치한 뷔페 레스토랑입니다. 운영 시간: 06:30~22:00", Score: 0.8,
	}}}
	p := newTestPipeline(t, idx,
		answerWith("아리아(ARIA)의 운영 시간은 06:30~22:00입니다. [REF:1]"))

	rec := p.Run(context.Background(), Request{
		Query: "운영 시간이 어떻게돼?",
		Hotel: config.HotelGrandJosunBusan,
		History: []models.Message{
			{Role: models.RoleUser, Content: "아리아 위치 알려줘"},
			{Role: models.RoleAssistant, Content: "아리아는 그랜드 조선 부산 2층에 있습니다."},
		},
	})

	assert.Contains(t, rec.RewrittenQuery, "아리아")
	assert.Contains(t, rec.FinalAnswer, "06:30")
	assert.NotContains(t, rec.FinalAnswer, "수영장")
	assert.NotContains(t, rec.FinalAnswer, "피트니스")
}

func TestCrossHotelRestaurantClarifies(t *testing.T) {
	p := newTestPipeline(t, &fakeIndex{}, nil)

	rec := p.Run(context.Background(), Request{
		Query: "아리아 메뉴 알려줘",
		Hotel: config.HotelJosunPalace,
	})

	require.True(t, rec.NeedsClarification)
	assert.Equal(t, "restaurant-hotel", rec.ClarificationType)
	assert.Contains(t, rec.FinalAnswer, "웨스틴 조선 서울")
	assert.Contains(t, rec.FinalAnswer, "그랜드 조선 부산")
	assert.True(t, rec.EvidencePassed, "clarification is not an evidence miss")
}

func TestSingleHotelRestaurantRedirects(t *testing.T) {
	idx := &fakeIndex{chunks: []models.Chunk{{
		ChunkID: "c1", Hotel: config.HotelJosunPalace, HotelName: "조선 팰리스 서울 강남",
		Category: config.CategoryReservation, URL: "https://jpg.josunhotel.com/dining/constans.do",
		Text: "콘스탄스 예약은 전화로 가능합니다. 문의 02-727-7200", Score: 0.78,
	}}}
	p := newTestPipeline(t, idx,
		answerWith("콘스탄스 예약은 전화로 가능합니다. [REF:1]"))

	rec := p.Run(context.Background(), Request{
		Query: "콘스탄스 예약 되나요?",
		Hotel: config.HotelWestinBusan,
	})

	assert.Equal(t, config.HotelJosunPalace, rec.DetectedHotel)
	assert.True(t, strings.HasPrefix(rec.FinalAnswer, "문의하신 콘스탄스"),
		"redirect sentence leads the answer: %q", rec.FinalAnswer)
	assert.Contains(t, rec.FinalAnswer, "조선 팰리스")
}

func TestHallucinatedSubwayLineIsDeleted(t *testing.T) {
	idx := &fakeIndex{chunks: []models.Chunk{{
		ChunkID: "c1", Hotel: config.HotelJosunPalace, HotelName: "조선 팰리스 서울 강남",
		Category: config.CategoryTransport, URL: "https://jpg.josunhotel.com/about/location.do",
		Text: "공항 셔틀은 운행하지 않습니다. 택시 이용을 권장합니다.", Score: 0.8,
	}}}
	p := newTestPipeline(t, idx,
		answerWith("지하철 2호선을 타시면 됩니다. 셔틀은 운행하지 않습니다. [REF:1]"))

	rec := p.Run(context.Background(), Request{
		Query: "공항에서 호텔까지 셔틀 운행하나요?",
		Hotel: config.HotelJosunPalace,
	})

	assert.NotContains(t, rec.FinalAnswer, "2호선")
	assert.Contains(t, rec.FinalAnswer, "셔틀")
}

func TestPriceFabricationIsRefused(t *testing.T) {
	idx := &fakeIndex{chunks: []models.Chunk{{
		ChunkID: "c1", Hotel: config.HotelJosunPalace, HotelName: "조선 팰리스 서울 강남",
		Category: config.CategoryDining, URL: "https://jpg.josunhotel.com/dining/buffet.do",
		Text: "성인 조식 뷔페 요금은 50,000원입니다.", Score: 0.8,
	}}}
	p := newTestPipeline(t, idx,
		answerWith("조식 뷔페 요금은 500,000원입니다. [REF:1]"))

	rec := p.Run(context.Background(), Request{
		Query: "조식 얼마예요?",
		Hotel: config.HotelJosunPalace,
	})

	assert.False(t, rec.VerificationPassed)
	assert.NotContains(t, rec.FinalAnswer, "500,000")
	assert.Contains(t, rec.FinalAnswer, config.FallbackCannotConfirm)
	assert.Contains(t, rec.FinalAnswer, "02-727-7200")
}

func TestPetClarificationAndLoopPrevention(t *testing.T) {
	p := newTestPipeline(t, &fakeIndex{}, nil)

	first := p.Run(context.Background(), Request{
		Query: "강아지 관련해서 물어볼게 있어요",
		Hotel: config.HotelGrandJosunJeju,
	})
	require.True(t, first.NeedsClarification)
	assert.Equal(t, "context-pet", first.ClarificationType)

	second := p.Run(context.Background(), Request{
		Query: "추가 요금이 궁금해요",
		Hotel: config.HotelGrandJosunJeju,
		History: []models.Message{
			{Role: models.RoleUser, Content: "강아지 관련해서 물어볼게 있어요"},
			{Role: models.RoleAssistant, Content: first.FinalAnswer},
		},
	})
	assert.False(t, second.NeedsClarification, "a clarified context is not re-clarified")
}

func TestPIIQueryIsRefused(t *testing.T) {
	p := newTestPipeline(t, &fakeIndex{}, nil)

	rec := p.Run(context.Background(), Request{
		Query: "제 예약번호 좀 확인해 주세요",
		Hotel: config.HotelWestinSeoul,
	})

	assert.False(t, rec.NeedsClarification)
	assert.Contains(t, rec.FinalAnswer, "개인정보")
	assert.Contains(t, rec.FinalAnswer, "02-771-0500")
}

func TestPIIQueryWithPetContextIsRefused(t *testing.T) {
	p := newTestPipeline(t, &fakeIndex{}, nil)

	// Mentions a pet, which would normally trigger a context clarification,
	// but also asks about a reservation number. The refusal wins.
	rec := p.Run(context.Background(), Request{
		Query: "강아지 관련해서 예약번호 좀 봐주세요",
		Hotel: config.HotelWestinSeoul,
	})

	assert.False(t, rec.NeedsClarification)
	assert.Contains(t, rec.FinalAnswer, "개인정보")
	assert.Contains(t, rec.FinalAnswer, "02-771-0500")
}

func TestInvalidQueryGetsRefusal(t *testing.T) {
	p := newTestPipeline(t, &fakeIndex{}, nil)

	rec := p.Run(context.Background(), Request{Query: "오늘 날씨 어때?"})

	assert.False(t, rec.IsValidQuery)
	assert.False(t, rec.EvidencePassed)
	assert.Equal(t, "invalid-domain", rec.EvidenceReason)
	assert.Contains(t, rec.FinalAnswer, "문의")
}

func TestLLMFailureFallsBackToExtraction(t *testing.T) {
	idx := &fakeIndex{chunks: []models.Chunk{{
		ChunkID: "c1", Hotel: config.HotelWestinSeoul, HotelName: "웨스틴 조선 서울",
		Category: config.CategoryDining, URL: "https://twcs.josunhotel.com/dining/faq.do",
		Text: "Q: 조식 운영 시간이 궁금합니다.\nA: 조식은 06:30부터 10:00까지 운영됩니다.", Score: 0.8,
	}}}
	p := newTestPipeline(t, idx, nil) // every LLM call fails

	rec := p.Run(context.Background(), Request{
		Query: "조식 시간 알려줘",
		Hotel: config.HotelWestinSeoul,
	})

	assert.True(t, rec.EvidencePassed)
	assert.Contains(t, rec.FinalAnswer, "06:30")
}

func TestSessionTopicReinforcement(t *testing.T) {
	idx := &fakeIndex{chunks: []models.Chunk{{
		ChunkID: "c1", Hotel: config.HotelWestinBusan, HotelName: "웨스틴 조선 부산",
		Category: config.CategoryFacilities, URL: "https://twcb.josunhotel.com/facility/pool.do",
		Text: "수영장 운영 시간: 06:00~22:00, 투숙객 무료", Score: 0.85,
	}}}
	p := newTestPipeline(t, idx,
		answerWith("수영장 운영 시간은 06:00~22:00이며 투숙객은 무료입니다. [REF:1]"))

	first := p.Run(context.Background(), Request{
		Query: "수영장 몇시까지 해요?",
		Hotel: config.HotelWestinBusan,
	})
	require.True(t, first.EvidencePassed)

	snap := first.Session.Snapshot()
	assert.Equal(t, config.TopicPool, snap.CurrentTopic)
	assert.NotEmpty(t, snap.LastChunks, "evidence-backed chunks are cached for follow-ups")
}
