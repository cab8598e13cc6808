package logs

import (
	"context"
	"crypto/rand"
)

// NewSpan starts a span under parent, or under the span of ctx when parent
// is empty. args are logged with the span's first record.
type NewSpan func(ctx context.Context, parent Span, args ...any) (context.Context, Span)

func (Module) NewSpan(
	logger Logger,
) NewSpan {
	return func(ctx context.Context, parent Span, args ...any) (context.Context, Span) {

		creator, _ := ctx.Value(SpanKey).(Span)
		if parent == "" {
			parent = creator
		}

		span := Span(rand.Text())
		ctx = context.WithValue(ctx, SpanKey, span)

		attrs := make([]any, 0, len(args)+4)
		if creator != "" && creator != parent {
			attrs = append(attrs, "creator", creator)
		}
		if parent != "" {
			attrs = append(attrs, "parent", parent)
		}
		attrs = append(attrs, args...)
		logger.InfoContext(ctx, "new span", attrs...)

		return ctx, span
	}
}
