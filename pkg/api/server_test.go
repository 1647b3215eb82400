package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoulstay/concierge/pkg/config"
)

func TestHealthHandler(t *testing.T) {
	t.Run("no checks registered", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeRunner{})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		// Clients match on the literal, so pin the wire value here.
		assert.Equal(t, "ok", resp.Status)
		assert.NotEmpty(t, resp.Version)
	})

	t.Run("failing dependency reports degraded", func(t *testing.T) {
		s, _ := newTestServer(t, &fakeRunner{})
		s.AddHealthCheck("llm", func(ctx context.Context) error { return nil })
		s.AddHealthCheck("vector_index", func(ctx context.Context) error {
			return errors.New("connection refused")
		})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		// Degraded is still 200: the service answers with fallbacks.
		require.Equal(t, http.StatusOK, rec.Code)
		var resp HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, healthStatusDegraded, resp.Status)
		assert.Equal(t, healthStatusOK, resp.Checks["llm"].Status)
		assert.Equal(t, healthStatusDegraded, resp.Checks["vector_index"].Status)
		assert.Contains(t, resp.Checks["vector_index"].Message, "connection refused")
	})
}

func TestListHotelsHandler(t *testing.T) {
	s, _ := newTestServer(t, &fakeRunner{})

	req := httptest.NewRequest(http.MethodGet, "/hotels", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var items []HotelItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, len(config.Hotels))

	assert.Equal(t, config.HotelGrandJosunBusan, items[0].Key)
	for _, item := range items {
		info := config.Hotels[item.Key]
		assert.Equal(t, info.Name, item.Name)
		assert.Equal(t, info.Phone, item.Phone)
		assert.Equal(t, info.LocationURL, item.LocationURL)
	}
}

func TestGetSessionHandler(t *testing.T) {
	s, sessions := newTestServer(t, &fakeRunner{})

	t.Run("live session", func(t *testing.T) {
		sess := sessions.GetOrCreate("")
		sess.UpdateTopic("breakfast", config.HotelWestinSeoul)

		req := httptest.NewRequest(http.MethodGet, "/sessions/"+sess.ID(), nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp SessionResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, sess.ID(), resp.SessionID)
		assert.Equal(t, "breakfast", resp.CurrentTopic)
		assert.Equal(t, config.HotelWestinSeoul, resp.CurrentHotel)
		assert.Equal(t, 1, resp.TopicTurnCount)
	})

	t.Run("unknown session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sessions/nope", nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
