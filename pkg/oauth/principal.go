package oauth

import (
	"context"
	"strings"
)

// Context keys for the authenticated principal
type contextKey string

const (
	// ContextKeyUserName is the context key for the authenticated username
	ContextKeyUserName contextKey = "user_name"
	// ContextKeyRole is the context key for the user's platform role
	ContextKeyRole contextKey = "role"
	// ContextKeySessionID is the context key for the platform session id
	ContextKeySessionID contextKey = "session_id"
)

// Principal contains the authenticated user information for a request
type Principal struct {
	UserName  string
	Role      string
	SessionID string
}

// WithPrincipal adds the principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserName, p.UserName)
	ctx = context.WithValue(ctx, ContextKeyRole, p.Role)
	ctx = context.WithValue(ctx, ContextKeySessionID, p.SessionID)
	return ctx
}

// PrincipalFromContext retrieves the principal from the context
func PrincipalFromContext(ctx context.Context) *Principal {
	p := &Principal{}
	p.UserName, _ = ctx.Value(ContextKeyUserName).(string)
	p.Role, _ = ctx.Value(ContextKeyRole).(string)
	p.SessionID, _ = ctx.Value(ContextKeySessionID).(string)
	return p
}

// RemoteUser returns the authenticated username, if any
func RemoteUser(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(ContextKeyUserName).(string)
	return name, ok && name != ""
}

// IsUserInRole reports whether the authenticated user's role matches role.
// Platform roles are path-like; a user is "in" a role when their role ends
// with it.
func IsUserInRole(ctx context.Context, role string) bool {
	have, _ := ctx.Value(ContextKeyRole).(string)
	return have != "" && strings.HasSuffix(have, role)
}
