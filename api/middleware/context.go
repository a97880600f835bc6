package middleware

import "context"

type contextKey string

const (
	ctxAdminID contextKey = "admin_id"
	ctxScope   contextKey = "notification_scope"
)

// AdminIDFromContext returns the authenticated admin id or "".
func AdminIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxAdminID).(string); ok {
		return v
	}
	return ""
}

// ScopeFromContext returns the notification scope derived from the admin
// identity. Falls back to "" when the request is unauthenticated.
func ScopeFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxScope).(string); ok {
		return v
	}
	return ""
}
