package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v5"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/llm"
	"github.com/seoulstay/concierge/pkg/models"
	"github.com/seoulstay/concierge/pkg/pipeline"
)

// maxQueryBytes bounds the request body's query field. Guest questions are
// short; anything larger is a paste accident or abuse.
const maxQueryBytes = 2000

// chatHandler handles POST /chat. With "stream": true the response is SSE:
// token events while the answer is generated, then a final answer event
// carrying the same JSON a blocking call would return.
func (s *Server) chatHandler(c *echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if strings.TrimSpace(req.Query) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if len(req.Query) > maxQueryBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("query exceeds maximum size of %d bytes", maxQueryBytes))
	}
	if req.Hotel != "" {
		if _, ok := config.Hotels[req.Hotel]; !ok {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("unknown hotel %q", req.Hotel))
		}
	}

	input := pipeline.Request{
		Query:     req.Query,
		Hotel:     req.Hotel,
		SessionID: req.SessionID,
		History:   historyFrom(req.History),
	}

	if req.Stream {
		return s.streamChat(c, input)
	}

	rec := s.chat.Run(c.Request().Context(), input)
	return c.JSON(http.StatusOK, chatResponseFrom(rec))
}

// streamChat runs the pipeline with a request-scoped token sink and relays
// tokens as SSE events. The sink runs on the request goroutine, so writes to
// the response need no locking.
func (s *Server) streamChat(c *echo.Context, input pipeline.Request) error {
	w := c.Response()
	flusher, ok := w.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := llm.WithTokenSink(c.Request().Context(), func(token string) {
		sendEvent(w, flusher, "token", map[string]string{"content": token})
	})

	rec := s.chat.Run(ctx, input)

	sendEvent(w, flusher, "answer", chatResponseFrom(rec))
	sendEvent(w, flusher, "done", struct{}{})
	return nil
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}

func chatResponseFrom(rec *pipeline.Record) *ChatResponse {
	resp := &ChatResponse{
		Answer:             rec.FinalAnswer,
		Hotel:              rec.DetectedHotel,
		Category:           rec.DetectedCategory,
		EvidencePassed:     rec.EvidencePassed,
		NeedsClarification: rec.NeedsClarification,
		Sources:            rec.Sources,
		Score:              rec.TopScore,
	}
	if rec.NeedsClarification {
		resp.ClarificationOptions = rec.ClarificationOptions
	}
	if rec.Session != nil {
		resp.SessionID = rec.Session.ID()
	}
	return resp
}

func historyFrom(msgs []ChatMessage) []models.Message {
	if len(msgs) == 0 {
		return nil
	}
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
