package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storehub/backend/internal/store/domain"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a store repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByID returns the store for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	query := `SELECT id, name, address, created_at, updated_at FROM stores WHERE id = $1`
	var s domain.Store
	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// List returns all stores ordered by creation time.
func (r *PostgresRepository) List(ctx context.Context) ([]*domain.Store, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, address, created_at, updated_at FROM stores ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Store
	for rows.Next() {
		var s domain.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.Address, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// ExistsByNameOrAddress returns true when a store with the given name or
// address already exists.
func (r *PostgresRepository) ExistsByNameOrAddress(ctx context.Context, name, address string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM stores WHERE name = $1 OR address = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, name, address).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create persists the store. Returns ErrDuplicateStore on a name or address
// collision.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Store) error {
	query := `INSERT INTO stores (id, name, address, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.Address, s.CreatedAt, s.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateStore
	}
	return err
}

// Update rewrites the store's mutable fields.
func (r *PostgresRepository) Update(ctx context.Context, s *domain.Store) error {
	query := `UPDATE stores SET name = $2, address = $3, updated_at = $4 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, s.ID, s.Name, s.Address, s.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateStore
	}
	return err
}

// Delete removes the store by id.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM stores WHERE id = $1`, id)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
