package middleware

import (
	"context"
	"errors"
)

// IdentityFromContext returns the authenticated participant identity set by
// Authenticate.
func IdentityFromContext(ctx context.Context) (string, error) {
	identity, ok := ctx.Value(identityContextKey).(string)
	if !ok || identity == "" {
		return "", errors.New("identity not found in context")
	}
	return identity, nil
}

// AdminIDFromContext returns the authenticated admin id set by
// AuthenticateAdmin.
func AdminIDFromContext(ctx context.Context) (int, error) {
	adminID, ok := ctx.Value(adminContextKey).(int)
	if !ok || adminID <= 0 {
		return 0, errors.New("admin id not found in context")
	}
	return adminID, nil
}
