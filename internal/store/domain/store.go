package domain

import (
	"errors"
	"time"
)

// Store is a physical store location. Name and address are each unique
// across the catalog.
type Store struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate validates the store for persistence.
func (s *Store) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.Address == "" {
		return errors.New("address is required")
	}
	return nil
}
