package middleware

import "context"

type contextKey int

const (
	ctxUserID contextKey = iota
	ctxSessionID
	ctxRequestID
)

func withValue(ctx context.Context, key contextKey, v string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, key, v)
}

func stringValue(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// UserIDFromContext returns the authenticated user id, or "" on public routes.
func UserIDFromContext(ctx context.Context) string { return stringValue(ctx, ctxUserID) }

// SessionIDFromContext returns the access id (jti) of the authenticated request.
func SessionIDFromContext(ctx context.Context) string { return stringValue(ctx, ctxSessionID) }

func RequestIDFromContext(ctx context.Context) string { return stringValue(ctx, ctxRequestID) }

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return withValue(ctx, ctxUserID, userID)
}
