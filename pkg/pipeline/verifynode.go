package pipeline

import (
	"log/slog"
	"time"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/verify"
)

// verifyAnswer runs the composed answer through the verifier. A failed
// verdict leaves VerifiedAnswer empty; the policy filter substitutes the
// refusal template.
func (p *Pipeline) verifyAnswer(rec *Record) {
	defer rec.recordTiming("verify", time.Now())

	category := rec.EffectiveCategory
	if category == "" && rec.ConversationTopic != "" {
		category = config.TopicCategory[rec.ConversationTopic]
	}

	res := p.verifier.Verify(verify.Input{
		Query:    rec.NormalizedQuery,
		Answer:   rec.Answer,
		Chunks:   rec.RetrievedChunks,
		Category: category,
		Hotel:    rec.DetectedHotel,
	})

	rec.VerificationPassed = res.Passed
	rec.VerificationIssues = res.Issues
	rec.Grounding = res.Grounding
	rec.QueryIntents = res.Intents
	if res.Passed {
		rec.VerifiedAnswer = res.Answer
	} else {
		slog.Info("Answer rejected by verifier", "issues", res.Issues)
	}
}
