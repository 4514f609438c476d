package httpx

import "context"

type requestIDCtxKey string

const (
	requestIDKey requestIDCtxKey = "requestID"
)

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx returns "" when no id was attached.
func RequestIDFromCtx(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}
