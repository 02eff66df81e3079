// Package requestctx carries the authenticated user through a request's context.
package requestctx

import (
	"context"

	"useraccounts/internal/models"
)

type userKey struct{}

// WithUser returns a copy of ctx that carries user.
func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFrom returns the user attached by WithUser.
func UserFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userKey{}).(models.User)
	return user, ok
}
