package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ligahub/match-engine/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository covers only what the engine needs from the user store:
// credential lookup for the password-confirmed reset operation. Account CRUD
// lives with the host service.
type UserRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := `SELECT id, name, email, password_hash, created_at FROM users WHERE id = $1`

	var u models.User
	err := executor.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user %d: %w", id, err)
	}
	return &u, nil
}
