package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/grounding"
	"github.com/seoulstay/concierge/pkg/models"
)

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	known, err := config.LoadKnownNames(t.TempDir())
	require.NoError(t, err)
	forbidden, err := config.LoadForbiddenPatterns(t.TempDir())
	require.NoError(t, err)
	return New(known, forbidden, grounding.NewGate(0.45))
}

func ctxChunks(texts ...string) []models.Chunk {
	chunks := make([]models.Chunk, len(texts))
	for i, txt := range texts {
		chunks[i] = models.Chunk{ChunkID: string(rune('a' + i)), Text: txt, Score: 0.8}
	}
	return chunks
}

func TestCheckQuality(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   string
	}{
		{"normal answer passes", "조식은 오전 6시 30분부터 운영됩니다.", ""},
		{"too short", "네.", "too-short"},
		{"chinese characters", "朝食은 無料입니다. 時間은 아래와 같습니다.", "chinese-characters"},
		{"english dominant", "Breakfast opens at six thirty in the morning daily.", "low-korean-ratio"},
		{"navigation dump", "홈 | 메뉴 | 로그인 | 회원가입", "navigation-dump"},
		{"repeated character run", "조식은 정말 좋아요오오오오오오 추천합니다.", "repeated-char"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CheckQuality(tc.answer))
		})
	}
}

func TestNumericIssues(t *testing.T) {
	context := "성인 조식 요금은 45,000원이며 06:30부터 운영됩니다."

	assert.Empty(t, numericIssues("조식은 45,000원입니다.", context))
	assert.Empty(t, numericIssues("조식은 06:30부터입니다.", context))

	issues := numericIssues("조식은 99,000원입니다.", context)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "99,000")
}

func TestScrubProperNouns(t *testing.T) {
	known, err := config.LoadKnownNames(t.TempDir())
	require.NoError(t, err)

	t.Run("unknown bilingual name drops its sentence", func(t *testing.T) {
		out, issues := scrubProperNouns(
			"오로라(AURORA) 레스토랑에서 디너를 운영합니다. 자세한 내용은 문의 바랍니다.",
			"디너 코스를 운영합니다.", known)
		assert.NotContains(t, out, "오로라")
		assert.Contains(t, out, "문의 바랍니다")
		assert.NotEmpty(t, issues)
	})

	t.Run("whitelisted restaurant survives", func(t *testing.T) {
		out, issues := scrubProperNouns(
			"아리아(ARIA) 뷔페를 이용하실 수 있습니다.",
			"뷔페를 이용하실 수 있습니다.", known)
		assert.Contains(t, out, "아리아")
		assert.Empty(t, issues)
	})
}

func TestScrubTransport(t *testing.T) {
	t.Run("fabricated route is deleted", func(t *testing.T) {
		out, issues := scrubTransport(
			"호텔 가는 방법 알려주세요",
			"지하철 2호선을 타고 오시면 됩니다. 정문에서 안내를 받으세요.",
			"셔틀버스를 운영합니다.")
		assert.NotContains(t, out, "2호선")
		assert.Contains(t, out, "정문")
		assert.NotEmpty(t, issues)
	})

	t.Run("context-backed route survives", func(t *testing.T) {
		out, _ := scrubTransport(
			"호텔 가는 방법 알려주세요",
			"지하철 2호선을 이용하시면 됩니다.",
			"지하철 2호선 을지로입구역에서 도보 5분입니다.")
		assert.Contains(t, out, "2호선")
	})

	t.Run("transport drift on a non-transport query is stripped", func(t *testing.T) {
		out, issues := scrubTransport(
			"조식 시간 알려주세요",
			"조식은 7시부터입니다. 호텔까지 리무진 이용이 편리합니다.",
			"조식은 7시부터입니다. 리무진 서비스를 운영합니다.")
		assert.Contains(t, out, "조식")
		assert.NotContains(t, out, "리무진")
		assert.Contains(t, issues, "off-topic-transport")
	})
}

func TestScrubCategoryContamination(t *testing.T) {
	out, issues := scrubCategoryContamination(
		"조식은 뷔페로 운영됩니다. 수영장은 오전 6시에 엽니다.",
		"조식 안내해주세요", config.CategoryDining)

	assert.Contains(t, out, "조식")
	assert.NotContains(t, out, "수영장")
	require.Len(t, issues, 1)
}

func TestScrubHotelContamination(t *testing.T) {
	out, issues := scrubHotelContamination(
		"조식은 1층에서 운영됩니다. 자세한 사항은 웨스틴 조선 서울로 문의하세요.",
		"조식은 1층에서 운영됩니다.", config.HotelJosunPalace)

	assert.NotContains(t, out, "웨스틴")
	assert.Contains(t, out, "1층")
	assert.NotEmpty(t, issues)
}

func TestScrubPhonesAndURLs(t *testing.T) {
	t.Run("registered hotel phone is allowed", func(t *testing.T) {
		out, issues := scrubPhones("문의는 02-727-7200으로 부탁드립니다.", "")
		assert.Contains(t, out, "02-727-7200")
		assert.Empty(t, issues)
	})

	t.Run("unknown phone drops its sentence", func(t *testing.T) {
		out, issues := scrubPhones("예약 문의는 02-999-9999로 부탁드립니다.", "")
		assert.Empty(t, out)
		assert.NotEmpty(t, issues)
	})

	t.Run("hotel domain url is allowed", func(t *testing.T) {
		out, issues := scrubURLs("오시는 길: https://jpg.josunhotel.com/about/location.do 를 참고하세요.", "")
		assert.Contains(t, out, "josunhotel.com")
		assert.Empty(t, issues)
	})

	t.Run("foreign url drops its sentence", func(t *testing.T) {
		out, issues := scrubURLs("자세한 내용은 https://evil.example.com/page 를 참고하세요.", "")
		assert.Empty(t, out)
		assert.NotEmpty(t, issues)
	})
}

func TestPriceManipulation(t *testing.T) {
	context := "성인 조식 요금은 45,000원입니다."

	assert.Empty(t, priceManipulationIssue("조식은 45,000원입니다.", context))
	assert.Contains(t, priceManipulationIssue("조식은 450,000원입니다.", context), "450000")
	assert.Contains(t, priceManipulationIssue("조식은 4,500원입니다.", context), "4500")
}

func TestVerify(t *testing.T) {
	v := newTestVerifier(t)

	t.Run("supported answer passes unchanged", func(t *testing.T) {
		chunks := ctxChunks("조식은 오전 6시 30분부터 오전 10시까지 1층에서 운영됩니다.")
		res := v.Verify(Input{
			Query:    "조식 몇시부터예요?",
			Answer:   "조식은 오전 6시 30분부터 오전 10시까지 1층에서 운영됩니다.",
			Chunks:   chunks,
			Category: config.CategoryDining,
			Hotel:    config.HotelJosunPalace,
		})

		assert.True(t, res.Passed)
		assert.Equal(t, models.ConfidenceCertain, res.Grounding.Confidence)
		assert.Contains(t, res.Answer, "6시 30분")
		assert.Contains(t, res.Intents, grounding.IntentHours)
	})

	t.Run("fabricated numbers fail grounding", func(t *testing.T) {
		chunks := ctxChunks("수영장은 투숙객 전용입니다.")
		res := v.Verify(Input{
			Query:  "수영장 입장료 얼마예요?",
			Answer: "수영장 입장료는 50,000원입니다.",
			Chunks: chunks,
		})

		assert.False(t, res.Passed)
		assert.Empty(t, res.Answer)
		assert.NotEmpty(t, res.Issues)
	})

	t.Run("person question without context evidence fails", func(t *testing.T) {
		chunks := ctxChunks("레스토랑은 디너 코스를 운영합니다. 셰프 추천 메뉴가 준비되어 있습니다.")
		res := v.Verify(Input{
			Query:  "김민준 셰프가 누구예요?",
			Answer: "레스토랑은 디너 코스를 운영합니다. 셰프 추천 메뉴가 준비되어 있습니다.",
			Chunks: chunks,
		})

		assert.False(t, res.Passed)
		assert.Contains(t, res.Issues, "person-not-in-context: 김민준")
	})
}
