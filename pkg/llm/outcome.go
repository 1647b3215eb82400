package llm

// OutcomeKind discriminates the result of a generation call.
type OutcomeKind int

const (
	// OutcomeOK means Text holds the model output.
	OutcomeOK OutcomeKind = iota
	// OutcomeTimeout means the call exceeded its deadline. Timeouts are not
	// retried: an overloaded backend cascades if hammered.
	OutcomeTimeout
	// OutcomeFailure means the backend returned an error other than timeout.
	OutcomeFailure
)

// Outcome is the explicit result of an LLM call. Callers branch on Kind
// instead of unwrapping errors.
type Outcome struct {
	Kind OutcomeKind
	Text string
	Err  error
}

// OK reports whether the call produced text.
func (o Outcome) OK() bool { return o.Kind == OutcomeOK }

func ok(text string) Outcome     { return Outcome{Kind: OutcomeOK, Text: text} }
func timeout(err error) Outcome  { return Outcome{Kind: OutcomeTimeout, Err: err} }
func failure(err error) Outcome  { return Outcome{Kind: OutcomeFailure, Err: err} }
