// Package service implements user profile management for the admin surface.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storehub/backend/internal/audit"
	"storehub/backend/internal/security"
	"storehub/backend/internal/user/domain"
	"storehub/backend/internal/user/repository"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
)

// UpdateParams carries the optional fields of a user update. Nil means
// leave unchanged.
type UpdateParams struct {
	Email     *string
	FirstName *string
	LastName  *string
	Password  *string
}

// DeletedUser is the receipt returned after a delete.
type DeletedUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Service implements user listing, lookup, update, and deletion.
type Service struct {
	repo   repository.Repository
	hasher *security.Hasher
	audit  audit.Recorder
}

// NewService returns a Service with the given dependencies. auditLog may be nil.
func NewService(repo repository.Repository, hasher *security.Hasher, auditLog audit.Recorder) *Service {
	return &Service{repo: repo, hasher: hasher, audit: auditLog}
}

// List returns the profiles of all users.
func (s *Service) List(ctx context.Context) ([]*domain.Profile, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*domain.Profile, len(users))
	for i, u := range users {
		out[i] = u.Profile()
	}
	return out, nil
}

// Get returns the profile for id, or ErrUserNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Profile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user.Profile(), nil
}

// Update applies the provided fields to the user. A new password is hashed
// before it ever reaches the repository.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*domain.Profile, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if p.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.FirstName != nil {
		user.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		user.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Password != nil {
		hash, err := s.hasher.Hash([]byte(*p.Password))
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.record(ctx, "user.update", "user:"+id)
	return user.Profile(), nil
}

// Delete removes the user and returns an id/email receipt. The user's
// session, if any, is deleted along with the row.
func (s *Service) Delete(ctx context.Context, id string) (*DeletedUser, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	s.record(ctx, "user.delete", "user:"+id)
	return &DeletedUser{ID: user.ID, Email: user.Email}, nil
}

func (s *Service) record(ctx context.Context, action, resource string) {
	if s.audit != nil {
		s.audit.Record(ctx, "", action, resource, "")
	}
}
