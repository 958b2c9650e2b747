package httpx

import "context"

type ctxKey string

const (
	CtxKeyProfileID ctxKey = "profile_id"
	CtxKeyRole      ctxKey = "role"
	CtxKeyEmail     ctxKey = "email"
)

// ProfileIDFromCtx returns the authenticated profile id, or "" when the
// request is unauthenticated.
func ProfileIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyProfileID).(string); ok {
		return v
	}
	return ""
}

// RoleFromCtx returns the authenticated profile's role, or "".
func RoleFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRole).(string); ok {
		return v
	}
	return ""
}
