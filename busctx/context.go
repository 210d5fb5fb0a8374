// Package busctx carries bus tracing settings through a context.Context so
// transports can honor them without extra parameters.
package busctx

import "context"

type ctxIndex int

const ctxIndexVerbose ctxIndex = iota

// IsVerbose reports whether transports should dump raw traffic.
func IsVerbose(ctx context.Context) bool {
	verbose, _ := ctx.Value(ctxIndexVerbose).(bool)
	return verbose
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}
