package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults when file missing", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 0.65, cfg.EvidenceThreshold)
		assert.Equal(t, 1, cfg.MinChunksRequired)
		assert.Equal(t, 1000, cfg.Session.MaxSessions)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "concierge.yaml")
		require.NoError(t, os.WriteFile(path, []byte("evidence_threshold: 0.5\nhttp_port: \"9090\"\n"), 0o644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 0.5, cfg.EvidenceThreshold)
		assert.Equal(t, "9090", cfg.HTTPPort)
	})

	t.Run("env overrides file", func(t *testing.T) {
		t.Setenv("EVIDENCE_THRESHOLD", "0.45")
		t.Setenv("OLLAMA_MODEL", "test-model")
		t.Setenv("LLM_TIMEOUT", "15")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 0.45, cfg.EvidenceThreshold)
		assert.Equal(t, "test-model", cfg.LLM.OllamaModel)
		assert.Equal(t, float64(15), cfg.LLM.Timeout.Seconds())
	})

	t.Run("groq requires key", func(t *testing.T) {
		t.Setenv("USE_GROQ", "true")
		_, err := Load("")
		require.Error(t, err)
	})
}

func TestDetectHotel(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"조선 팰리스 조식 시간", HotelJosunPalace},
		{"그랜드 조선 부산 수영장", HotelGrandJosunBusan},
		{"웨스틴 조선 서울 주차", HotelWestinSeoul},
		{"Josun Palace breakfast", HotelJosunPalace},
		{"수영장 몇시까지 해요", ""},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectHotel(tt.query))
		})
	}
}

func TestStripHotelAliases(t *testing.T) {
	got := StripHotelAliases("조선 팰리스 조식 시간 알려줘")
	assert.NotContains(t, got, "팰리스")
	assert.Contains(t, got, "조식")
}

func TestDetectCategory(t *testing.T) {
	assert.Equal(t, CategoryDining, DetectCategory("조식 가격 알려줘"))
	assert.Equal(t, CategoryParking, DetectCategory("발렛 되나요"))
	assert.Equal(t, CategoryPricing, DetectCategory("얼마예요"))
	assert.Equal(t, "", DetectCategory("아무말"))
}

func TestDetectTopic(t *testing.T) {
	// breakfast outranks dining and pricing
	assert.Equal(t, TopicBreakfast, DetectTopic("조식 가격이 얼마인가요"))
	assert.Equal(t, TopicPool, DetectTopic("수영장 운영"))
	assert.Equal(t, "", DetectTopic("아무말"))
}

func TestValidQueryGate(t *testing.T) {
	assert.True(t, HasValidQueryKeyword("조식 시간"))
	assert.True(t, HasValidQueryKeyword("방 있나요"))       // single-char keyword, standalone
	assert.False(t, HasValidQueryKeyword("정말 좋은 하루"))
	assert.True(t, IsInvalidQuery("ㅋㅋㅋㅋ"))
	assert.True(t, IsInvalidQuery("오늘 날씨 어때"))
	assert.True(t, IsInvalidQuery("aaaaaaaa")) // keyboard mash
	assert.False(t, IsInvalidQuery("조식 시간 알려줘"))
}

func TestHasRepeatedRune(t *testing.T) {
	assert.True(t, HasRepeatedRune("ㅎㅎㅎㅎㅎㅎㅎ", 7))
	assert.True(t, HasRepeatedRune("조식 aaaaaaaa 시간", 7))
	assert.False(t, HasRepeatedRune("조식 시간 알려줘", 7))
	assert.False(t, HasRepeatedRune("", 7))
}

func TestKnownNames(t *testing.T) {
	t.Run("loads file", func(t *testing.T) {
		dir := t.TempDir()
		body := `{"brands":["Josun"],"restaurants":{"josun_palace":["콘스탄스"]},"facilities":["인피니티풀"],"room_types":["디럭스"]}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "known_names.json"), []byte(body), 0o644))

		kn, err := LoadKnownNames(dir)
		require.NoError(t, err)
		assert.True(t, kn.Contains("콘스탄스"))
		assert.True(t, kn.Contains("인피니티풀"))
		assert.True(t, kn.Contains("josun"))
		assert.False(t, kn.Contains("없는이름"))
	})

	t.Run("missing file still whitelists hotels", func(t *testing.T) {
		kn, err := LoadKnownNames(t.TempDir())
		require.NoError(t, err)
		assert.True(t, kn.Contains("조선 팰리스 서울 강남"))
	})
}

func TestLoadForbiddenPatterns(t *testing.T) {
	dir := t.TempDir()
	body := `{"patterns":["테스트\\s*금지"]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "forbidden_patterns.json"), []byte(body), 0o644))

	res, err := LoadForbiddenPatterns(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(res), len(defaultForbiddenPhrases)+1)

	var matched bool
	for _, re := range res {
		if re.MatchString("테스트 금지") {
			matched = true
		}
	}
	assert.True(t, matched)
}
