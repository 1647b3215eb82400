package verify

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/seoulstay/concierge/pkg/config"
	"github.com/seoulstay/concierge/pkg/grounding"
	"github.com/seoulstay/concierge/pkg/models"
)

// Input carries everything the verifier needs about one answer.
type Input struct {
	Query    string
	Answer   string
	Chunks   []models.Chunk
	Category string
	Hotel    string
}

// Result is the verifier verdict. When Passed is false the caller must
// discard Answer and emit its refusal template; when true, Answer is the
// possibly-rewritten text safe to show.
type Result struct {
	Answer    string
	Passed    bool
	Issues    []string
	Grounding models.GroundingResult
	Intents   []string
}

// Verifier runs the ordered post-generation checks. Construct once and
// share; it is stateless and safe for concurrent use.
type Verifier struct {
	known     *config.KnownNames
	forbidden []*regexp.Regexp
	gate      *grounding.Gate
}

// New builds a Verifier around the proper-noun whitelist, the forbidden
// phrase patterns, and the grounding gate.
func New(known *config.KnownNames, forbidden []*regexp.Regexp, gate *grounding.Gate) *Verifier {
	return &Verifier{known: known, forbidden: forbidden, gate: gate}
}

// Verify applies every check in fixed order. Checks either fail the answer
// outright, rewrite it by dropping sentences, or record an issue.
func (v *Verifier) Verify(in Input) Result {
	res := Result{Intents: grounding.ClassifyIntents(in.Query)}
	context := contextOf(in.Chunks)

	v.logRelevance(in)

	if label := CheckQuality(in.Answer); label != "" {
		res.Issues = append(res.Issues, "quality: "+label)
		slog.Warn("Answer failed quality check", "label", label)
		return res
	}

	grounded, kept := v.gate.Check(in.Answer, in.Chunks)
	res.Grounding = grounded
	if kept == "" {
		res.Issues = append(res.Issues, "grounding: "+grounded.Reason)
		return res
	}
	answer := kept

	res.Issues = append(res.Issues, numericIssues(answer, context)...)

	answer, issues := scrubProperNouns(answer, context, v.known)
	res.Issues = append(res.Issues, issues...)

	if issue := personNameIssue(in.Query, context); issue != "" {
		res.Issues = append(res.Issues, issue)
		return res
	}

	answer, issues = scrubTransport(in.Query, answer, context)
	res.Issues = append(res.Issues, issues...)

	answer, issues = scrubCategoryContamination(answer, in.Query, in.Category)
	res.Issues = append(res.Issues, issues...)

	answer, issues = scrubHotelContamination(answer, context, in.Hotel)
	res.Issues = append(res.Issues, issues...)

	answer, issues = scrubPhones(answer, context)
	res.Issues = append(res.Issues, issues...)

	answer, issues = scrubURLs(answer, context)
	res.Issues = append(res.Issues, issues...)

	if issue := priceManipulationIssue(answer, context); issue != "" {
		res.Issues = append(res.Issues, issue)
		return res
	}

	for _, re := range v.forbidden {
		answer = re.ReplaceAllString(answer, "")
	}
	answer = ScrubCJK(answer)

	if utf8.RuneCountInString(answer) < minAnswerRunes {
		res.Issues = append(res.Issues, "empty-after-scrubbing")
		return res
	}

	res.Answer = answer
	res.Passed = true
	return res
}

// logRelevance records when none of the query's topic keywords show up in
// the retrieved chunks. Retrieval already gated on score, so this is an
// observability signal, not a failure.
func (v *Verifier) logRelevance(in Input) {
	topic := config.DetectTopic(in.Query)
	if topic == "" {
		return
	}
	for i, c := range in.Chunks {
		if i >= 5 {
			break
		}
		if config.TopicHasKeyword(c.Text, topic) || config.TopicCategory[topic] == c.Category {
			return
		}
	}
	slog.Debug("Query topic not present in retrieved chunks", "topic", topic, "query", in.Query)
}

func contextOf(chunks []models.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
		b.WriteString("\n")
	}
	return b.String()
}
