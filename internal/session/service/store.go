// Package service implements the session store: the create/replace/invalidate
// lifecycle that keeps at most one live session per user.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"storehub/backend/internal/session/domain"
	"storehub/backend/internal/session/repository"
)

// ErrSessionNotFound is returned by Invalidate when the session row is
// already gone. During refresh rotation that means another request won the
// race for the same token.
var ErrSessionNotFound = errors.New("session not found")

// Store owns session rows. Establish serializes per user so that two
// concurrent logins for one account cannot both leave a live session; the
// UNIQUE(user_id) constraint backstops the same invariant across processes.
type Store struct {
	repo  repository.Repository
	locks keyedMutex
}

// NewStore returns a Store over the given repository.
func NewStore(repo repository.Repository) *Store {
	return &Store{repo: repo}
}

// Establish replaces any existing session for userID with a fresh, empty
// one and returns it. A session deleted here is discarded silently; its
// previous holder finds out when their next token verification fails.
func (s *Store) Establish(ctx context.Context, userID string) (*domain.Session, error) {
	s.locks.lock(userID)
	defer s.locks.unlock(userID)

	if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
		return nil, fmt.Errorf("delete session for user: %w", err)
	}
	sess := &domain.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	err := s.repo.Create(ctx, sess)
	if errors.Is(err, repository.ErrDuplicateSession) {
		// Another process created a session between our delete and create.
		// Delete it and try once more.
		if err := s.repo.DeleteByUserID(ctx, userID); err != nil {
			return nil, fmt.Errorf("delete session for user: %w", err)
		}
		err = s.repo.Create(ctx, sess)
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Invalidate deletes the session by id. Returns ErrSessionNotFound when the
// row was already gone, which on the refresh path marks a lost rotation race.
func (s *Store) Invalidate(ctx context.Context, sess *domain.Session) error {
	deleted, err := s.repo.Delete(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !deleted {
		return ErrSessionNotFound
	}
	return nil
}

// AttachTokens persists the minted token pair onto the session row.
func (s *Store) AttachTokens(ctx context.Context, sessionID, accessToken, refreshToken string) error {
	return s.repo.UpdateTokens(ctx, sessionID, accessToken, refreshToken)
}

// Find returns the session with the given id, or nil when it does not exist.
func (s *Store) Find(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.GetByID(ctx, id)
}

// FindByUser returns the user's session, or nil when the user has none.
func (s *Store) FindByUser(ctx context.Context, userID string) (*domain.Session, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// keyedMutex provides one mutex per key. Entries are reference-counted and
// removed once the last holder releases, so the map does not grow with the
// user population.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) lock(key string) {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*lockEntry)
	}
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *keyedMutex) unlock(key string) {
	k.mu.Lock()
	e := k.entries[key]
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
