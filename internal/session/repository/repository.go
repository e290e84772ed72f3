package repository

import (
	"context"
	"errors"

	"storehub/backend/internal/session/domain"
)

// ErrDuplicateSession is returned by Create when a session already exists
// for the user (unique constraint on user_id). It signals a lost
// establish race to the caller, which deletes and retries.
var ErrDuplicateSession = errors.New("session already exists for user")

// Repository defines persistence for sessions. Lookups return (nil, nil)
// when no row matches; errors are database failures only.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// Delete removes the session by id and reports whether a row was
	// actually removed. false with nil error means the row was already gone.
	Delete(ctx context.Context, id string) (bool, error)
	DeleteByUserID(ctx context.Context, userID string) error
	UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error
}
