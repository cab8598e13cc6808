package logs

import (
	"context"
	"errors"
)

type spanError struct {
	err  error
	span Span
}

func (s *spanError) Error() string {
	return s.err.Error() + " (span: " + string(s.span) + ")"
}

func (s *spanError) Unwrap() error {
	return s.err
}

// WrapSpan tags err with the span of ctx, if there is one.
func WrapSpan(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	span, ok := ctx.Value(SpanKey).(Span)
	if !ok {
		return err
	}
	return &spanError{
		err:  err,
		span: span,
	}
}

// SpanOf returns the innermost span err was tagged with.
func SpanOf(err error) (Span, bool) {
	var s *spanError
	if errors.As(err, &s) {
		return s.span, true
	}
	return "", false
}
