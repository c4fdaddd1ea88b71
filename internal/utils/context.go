package utils

import (
	"context"

	"github.com/projuktisheba/tutorhub-api/internal/models"
)

type accountKey struct{}

// WithAccount stores the authenticated account in ctx
func WithAccount(ctx context.Context, a models.JWT) context.Context {
	return context.WithValue(ctx, accountKey{}, a)
}

// AccountFrom returns the authenticated account stored by WithAccount
func AccountFrom(ctx context.Context) (models.JWT, bool) {
	a, ok := ctx.Value(accountKey{}).(models.JWT)
	return a, ok
}

// IsAdmin reports whether the account is an admin or the super admin
func IsAdmin(a models.JWT) bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleSuperAdmin
}
