package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDirectAnswer(t *testing.T) {
	t.Run("prefers the A: block of a Q&A chunk", func(t *testing.T) {
		text := "Q: 조식 시간은 어떻게 되나요?\nA: 조식은 06:30부터 10:00까지 운영됩니다.\nQ: 위치는 어디인가요?"
		got := ExtractDirectAnswer(text, "조선 팰리스 서울 강남")

		require.NotEmpty(t, got)
		assert.Contains(t, got, "06:30부터 10:00까지")
		assert.Contains(t, got, "조선 팰리스 서울 강남 기준")
		assert.NotContains(t, got, "위치는 어디인가요")
	})

	t.Run("assembles structured lines into a list", func(t *testing.T) {
		text := "아리아 뷔페 레스토랑\n운영 시간: 06:30~22:00\n위치: 2층\n문의: 02-771-0500"
		got := ExtractDirectAnswer(text, "웨스틴 조선 서울")

		require.NotEmpty(t, got)
		assert.Contains(t, got, "- 운영 시간: 06:30~22:00")
		assert.Contains(t, got, "- 위치: 2층")
	})

	t.Run("rejects navigation dumps", func(t *testing.T) {
		assert.Empty(t, ExtractDirectAnswer("홈 | 메뉴 | 로그인 | 사이트맵 | 객실 안내", "호텔"))
	})

	t.Run("returns empty when fewer than two parts assemble", func(t *testing.T) {
		assert.Empty(t, ExtractDirectAnswer("그냥 일반적인 설명 텍스트입니다.", "호텔"))
	})
}

func TestScrubCJK(t *testing.T) {
	assert.Equal(t, "조식 안내: 무료입니다", ScrubCJK("朝食 안내: 無料입니다"))
	assert.Equal(t, "안내", ScrubCJK("こんにちは 안내"))
	assert.Equal(t, "네. 알겠습니다.", ScrubCJK("네.... 알겠습니다."))
}
