package pipeline

import (
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/korean"
	"github.com/seoulstay/concierge/pkg/models"
)

// preprocess normalizes the query, detects language, hotel, and category,
// applies the domain-membership gate, and resolves restaurant entities on
// the ORIGINAL query. The rewrite may have folded a hotel name in, but the
// guest's own words decide which restaurant they meant.
func (p *Pipeline) preprocess(rec *Record) {
	defer rec.recordTiming("preprocess", time.Now())

	rec.NormalizedQuery = korean.NormalizeSpace(rec.RewrittenQuery)

	if korean.HangulRatio(rec.NormalizedQuery) > 0.3 {
		rec.Language = "ko"
	} else {
		rec.Language = "en"
	}

	rec.DetectedHotel = rec.Hotel
	if rec.DetectedHotel == "" {
		rec.DetectedHotel = config.DetectHotel(rec.NormalizedQuery)
	}
	if rec.DetectedHotel == "" && rec.Session != nil {
		rec.DetectedHotel = rec.Session.Snapshot().CurrentHotel
	}

	rec.DetectedCategory = config.DetectCategory(rec.NormalizedQuery)

	rec.IsValidQuery = p.validQuery(rec)
	if !rec.IsValidQuery {
		slog.Info("Query failed domain gate", "query", rec.Query)
	}

	rec.RestaurantEntity = p.entities.Resolve(rec.Query, rec.DetectedHotel)
	switch rec.RestaurantEntity.Action {
	case models.EntityRedirect:
		rec.DetectedHotel = rec.RestaurantEntity.RedirectHotel
		rec.RedirectMessage = rec.RestaurantEntity.Message
		slog.Info("Restaurant redirect",
			"alias", rec.RestaurantEntity.MatchedAlias, "hotel", rec.DetectedHotel)
	case models.EntityClarify:
		slog.Info("Restaurant alias needs hotel clarification",
			"alias", rec.RestaurantEntity.MatchedAlias)
	}
}

func (p *Pipeline) validQuery(rec *Record) bool {
	q := rec.NormalizedQuery
	if utf8.RuneCountInString(q) < p.cfg.MinQueryLength {
		return false
	}
	if config.IsInvalidQuery(q) {
		return false
	}
	// First turn with no domain keyword at all is out of scope. With
	// history present the keyword may live in an earlier turn.
	if len(rec.History) == 0 && !config.HasValidQueryKeyword(q) {
		return false
	}
	return true
}
