package auth

import (
	"context"

	"github.com/chepyr/go-task-tracker/internal/apperr"
	"github.com/chepyr/go-task-tracker/internal/models"
)

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying the authenticated user for the request.
func WithPrincipal(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// PrincipalFromContext returns the authenticated user, if any.
func PrincipalFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(principalKey{}).(*models.User)
	return user, ok && user != nil
}

// CurrentUser returns the authenticated user or apperr.ErrUnauthenticated.
func CurrentUser(ctx context.Context) (*models.User, error) {
	user, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	return user, nil
}

func IsAuthenticated(ctx context.Context) bool {
	_, ok := PrincipalFromContext(ctx)
	return ok
}

func IsAdmin(ctx context.Context) bool {
	user, ok := PrincipalFromContext(ctx)
	return ok && user.IsAdmin()
}
