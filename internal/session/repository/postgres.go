package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"storehub/backend/internal/session/domain"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository returns a session repository backed by the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetByID returns the session for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT id, user_id, COALESCE(access_token, ''), COALESCE(refresh_token, ''), created_at
		FROM sessions WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByUserID returns the session owned by userID, or nil if not found.
// At most one row can match: user_id carries a unique constraint.
func (r *PostgresRepository) GetByUserID(ctx context.Context, userID string) (*domain.Session, error) {
	query := `SELECT id, user_id, COALESCE(access_token, ''), COALESCE(refresh_token, ''), created_at
		FROM sessions WHERE user_id = $1`
	return r.scanOne(ctx, query, userID)
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg any) (*domain.Session, error) {
	var s domain.Session
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.UserID, &s.AccessToken, &s.RefreshToken, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Create inserts the session with NULL token fields. Returns
// ErrDuplicateSession when the user already owns a session.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (id, user_id, created_at) VALUES ($1, $2, $3)`
	_, err := r.pool.Exec(ctx, query, s.ID, s.UserID, s.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateSession
	}
	return err
}

// Delete removes the session by id and reports whether a row was removed.
func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	ct, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// DeleteByUserID removes the user's session if one exists.
func (r *PostgresRepository) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

// UpdateTokens attaches the minted token pair to the session row.
func (r *PostgresRepository) UpdateTokens(ctx context.Context, id, accessToken, refreshToken string) error {
	query := `UPDATE sessions SET access_token = $2, refresh_token = $3 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, accessToken, refreshToken)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
