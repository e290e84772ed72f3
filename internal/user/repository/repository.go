package repository

import (
	"context"
	"errors"

	"storehub/backend/internal/user/domain"
)

// ErrDuplicateEmail is returned by Create and Update when the email is
// already taken (unique constraint on email).
var ErrDuplicateEmail = errors.New("email already taken")

// Repository defines persistence for users. Lookups return (nil, nil) when
// no row matches; errors are database failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id string) error
}
