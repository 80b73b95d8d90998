package profiles

import (
	"context"
	"errors"
)

// ErrAlreadyExists: ya hay un perfil para ese user id.
var ErrAlreadyExists = errors.New("profile already exists")

type Repository interface {
	Create(ctx context.Context, p Profile) error
	GetByUserID(ctx context.Context, userID string) (Profile, error)
	Update(ctx context.Context, p Profile) error
}
