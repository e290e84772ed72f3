// Package service implements the store catalog used by the admin surface.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"storehub/backend/internal/audit"
	"storehub/backend/internal/store/domain"
	"storehub/backend/internal/store/repository"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	ErrStoreNotFound = errors.New("store not found")
	ErrStoreExists   = errors.New("store with this name or address already exists")
)

// CreateParams are the inputs to Create.
type CreateParams struct {
	Name    string
	Address string
}

// UpdateParams carries the optional fields of a store update. Nil means
// leave unchanged.
type UpdateParams struct {
	Name    *string
	Address *string
}

// Service implements store CRUD.
type Service struct {
	repo  repository.Repository
	audit audit.Recorder
}

// NewService returns a Service over the given repository. auditLog may be nil.
func NewService(repo repository.Repository, auditLog audit.Recorder) *Service {
	return &Service{repo: repo, audit: auditLog}
}

// Create inserts a new store. Name and address must each be unique.
func (s *Service) Create(ctx context.Context, p CreateParams) (*domain.Store, error) {
	name := strings.TrimSpace(p.Name)
	address := strings.TrimSpace(p.Address)
	exists, err := s.repo.ExistsByNameOrAddress(ctx, name, address)
	if err != nil {
		return nil, fmt.Errorf("check existing store: %w", err)
	}
	if exists {
		return nil, ErrStoreExists
	}
	now := time.Now().UTC()
	store := &domain.Store{
		ID:        uuid.New().String(),
		Name:      name,
		Address:   address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, store); err != nil {
		if errors.Is(err, repository.ErrDuplicateStore) {
			return nil, ErrStoreExists
		}
		return nil, fmt.Errorf("insert store: %w", err)
	}
	s.record(ctx, "store.create", "store:"+store.ID)
	return store, nil
}

// List returns all stores.
func (s *Service) List(ctx context.Context) ([]*domain.Store, error) {
	stores, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

// Get returns the store for id, or ErrStoreNotFound.
func (s *Service) Get(ctx context.Context, id string) (*domain.Store, error) {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

// Update applies the provided fields to the store.
func (s *Service) Update(ctx context.Context, id string, p UpdateParams) (*domain.Store, error) {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("query store: %w", err)
	}
	if store == nil {
		return nil, ErrStoreNotFound
	}
	if p.Name != nil {
		store.Name = strings.TrimSpace(*p.Name)
	}
	if p.Address != nil {
		store.Address = strings.TrimSpace(*p.Address)
	}
	store.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, store); err != nil {
		if errors.Is(err, repository.ErrDuplicateStore) {
			return nil, ErrStoreExists
		}
		return nil, fmt.Errorf("update store: %w", err)
	}
	s.record(ctx, "store.update", "store:"+id)
	return store, nil
}

// Delete removes the store, or returns ErrStoreNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	store, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("query store: %w", err)
	}
	if store == nil {
		return ErrStoreNotFound
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete store: %w", err)
	}
	s.record(ctx, "store.delete", "store:"+id)
	return nil
}

func (s *Service) record(ctx context.Context, action, resource string) {
	if s.audit != nil {
		s.audit.Record(ctx, "", action, resource, "")
	}
}
