package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mdmehedyhasanmiraz/wellmart-backend/internal/domain"
)

// UserRepository is the record-store boundary for accounts and roles.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmailOrPhone(ctx context.Context, identifier string) (*domain.User, error)
	// GetRoleByID returns the authoritative role for an identity.
	// domain.ErrRoleNotFound means authenticated-but-unprovisioned, a
	// distinct case from any denial.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, name, email, phone, password_hash, role)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, phone, password_hash, role, created_at, updated_at
        FROM users WHERE id=$1`

	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmailOrPhone(ctx context.Context, identifier string) (*domain.User, error) {
	// an empty identifier must never match the rows whose email or phone
	// column is itself empty
	if identifier == "" {
		return nil, pgx.ErrNoRows
	}

	const query = `
        SELECT id, name, email, phone, password_hash, role, created_at, updated_at
        FROM users WHERE (email=$1 AND email<>'') OR (phone=$1 AND phone<>'')`

	return r.scanOne(r.pool.QueryRow(ctx, query, identifier))
}

func (r *userRepository) GetRoleByID(ctx context.Context, id string) (domain.Role, error) {
	const query = `SELECT role FROM users WHERE id=$1`

	var role domain.Role
	if err := r.pool.QueryRow(ctx, query, id).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrRoleNotFound
		}
		return "", err
	}
	return role, nil
}

func (r *userRepository) scanOne(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
