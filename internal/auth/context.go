package auth

import (
	"context"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "role"
)

// WithUser attaches the authenticated user's identity to the context.
func WithUser(ctx context.Context, userID string, role model.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserID returns the authenticated user's ID, or "" when absent.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// RoleFromContext returns the authenticated user's role, or "" when absent.
func RoleFromContext(ctx context.Context) model.Role {
	if v, ok := ctx.Value(roleKey).(model.Role); ok {
		return v
	}
	return ""
}
