package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
)

// ActiveUsersFunc lists the users allowed to log in, oldest first.
type ActiveUsersFunc func(ctx context.Context) ([]model.User, error)

// Authenticate resolves a PIN to a principal.
//
// The super-admin PIN is tried first and is disabled when empty. Otherwise
// every active user's hash is tested and the first match wins, so two users
// sharing a PIN resolve to the older one.
func Authenticate(ctx context.Context, listActive ActiveUsersFunc, superAdminPIN, pin string) (*model.Principal, error) {
	if err := ValidatePIN(pin); err != nil {
		return nil, err
	}

	if superAdminPIN != "" && subtle.ConstantTimeCompare([]byte(pin), []byte(superAdminPIN)) == 1 {
		return model.SuperAdmin(), nil
	}

	users, err := listActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing active users: %w", err)
	}

	for i := range users {
		u := &users[i]
		if !u.IsActive || u.DeletedAt != nil {
			continue
		}
		if ComparePIN(u.PINHash, pin) {
			return model.PrincipalFromUser(u), nil
		}
	}

	return nil, apperr.ErrInvalidCredentials
}
