package shared

import "context"

type sessionContextKey struct{}

// ContextWithSession attaches the resolved session to the request context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context. Returns nil when no
// session middleware ran, which callers treat as an anonymous request.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
