package middleware

import "context"

// SetRequestIDForTest injects a request id without running RequestID.
func SetRequestIDForTest(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID{}, id)
}

// SetVisitorIDForTest injects a visitor id without running Visitor.
func SetVisitorIDForTest(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyVisitor{}, id)
}

// SetTokenForTest injects a session token without running Auth.
func SetTokenForTest(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, BearerTokenKey, token)
}
