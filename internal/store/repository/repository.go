package repository

import (
	"context"
	"errors"

	"storehub/backend/internal/store/domain"
)

// ErrDuplicateStore is returned by Create and Update when the name or
// address is already taken.
var ErrDuplicateStore = errors.New("store name or address already taken")

// Repository defines persistence for stores. Lookups return (nil, nil) when
// no row matches; errors are database failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	List(ctx context.Context) ([]*domain.Store, error)
	ExistsByNameOrAddress(ctx context.Context, name, address string) (bool, error)
	Create(ctx context.Context, s *domain.Store) error
	Update(ctx context.Context, s *domain.Store) error
	Delete(ctx context.Context, id string) error
}
