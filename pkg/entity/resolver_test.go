package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/models"
)

func TestResolve(t *testing.T) {
	r := NewResolver()

	t.Run("no restaurant mentioned proceeds", func(t *testing.T) {
		got := r.Resolve("조식 시간 알려주세요", config.HotelJosunPalace)
		assert.Equal(t, models.EntityProceed, got.Action)
		assert.Empty(t, got.MatchedAlias)
	})

	t.Run("restaurant at current hotel proceeds", func(t *testing.T) {
		got := r.Resolve("아리아 런치 가격", config.HotelWestinSeoul)
		assert.Equal(t, models.EntityProceed, got.Action)
		assert.Equal(t, "아리아", got.MatchedAlias)
	})

	t.Run("restaurant at one other hotel redirects", func(t *testing.T) {
		got := r.Resolve("콘스탄스 예약 돼요?", config.HotelWestinBusan)
		require.Equal(t, models.EntityRedirect, got.Action)
		assert.Equal(t, config.HotelJosunPalace, got.RedirectHotel)
		assert.Contains(t, got.Message, "조선 팰리스")
	})

	t.Run("restaurant at several hotels clarifies", func(t *testing.T) {
		got := r.Resolve("아리아 뷔페 몇시까지 해요?", config.HotelGrandJosunJeju)
		require.Equal(t, models.EntityClarify, got.Action)
		assert.Len(t, got.ClarifyOptions, 2)
		assert.Len(t, got.Matches, 2)
	})

	t.Run("no session hotel with multi-property alias clarifies", func(t *testing.T) {
		got := r.Resolve("아리아 가격", "")
		assert.Equal(t, models.EntityClarify, got.Action)
	})

	t.Run("longest alias wins", func(t *testing.T) {
		got := r.Resolve("이타닉 가든 디너 코스", "")
		require.Equal(t, models.EntityRedirect, got.Action)
		assert.Equal(t, "이타닉 가든", got.MatchedAlias)
	})

	t.Run("ascii alias matches case-insensitively", func(t *testing.T) {
		got := r.Resolve("ARIA dinner course", config.HotelGrandJosunBusan)
		assert.Equal(t, models.EntityProceed, got.Action)
	})
}
