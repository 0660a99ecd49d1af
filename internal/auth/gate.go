package auth

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrAccessDenied = errors.New("access denied")
	ErrNoSession    = fmt.Errorf("no session: %w", ErrAccessDenied)
)

// RequireAdminSession returns the caller when it is an administrator. It has
// no side effects, so callers run it before touching any state.
func RequireAdminSession(ctx context.Context) (*Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	if !id.IsAdmin() {
		return nil, fmt.Errorf("user %s is not an administrator: %w", id.UserID, ErrAccessDenied)
	}
	return &id, nil
}

// RequireSession returns the caller of any role.
func RequireSession(ctx context.Context) (*Identity, error) {
	id, ok := FromContext(ctx)
	if !ok {
		return nil, ErrNoSession
	}
	return &id, nil
}
