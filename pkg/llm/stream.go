package llm

import "context"

// TokenSink receives incremental tokens for one request.
type TokenSink func(token string)

type sinkKey struct{}

// WithTokenSink returns a context carrying a per-request token sink. The
// sink is request-scoped on purpose: requests run in parallel and a
// process-wide callback would interleave streams.
func WithTokenSink(ctx context.Context, sink TokenSink) context.Context {
	return context.WithValue(ctx, sinkKey{}, sink)
}

// SinkFrom extracts the request's token sink, if any.
func SinkFrom(ctx context.Context) (TokenSink, bool) {
	sink, ok := ctx.Value(sinkKey{}).(TokenSink)
	return sink, ok && sink != nil
}
