package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/quadra-gg/quadra/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserUsernameConflict = errors.New("username is already in use")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.User, error)
	// UpdateStats overwrites the denormalized stats blob. Only the result
	// verification path may call this.
	UpdateStats(ctx context.Context, exec SQLExecutor, userID int, stats models.PlayerStats) error
	UpdateTeam(ctx context.Context, userID int, teamID *int) error
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

const userColumns = `id, username, display_name, email, password_hash, role, team_id, stats, created_at`

func (r *postgresUserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (username, display_name, email, password_hash, role, stats)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		u.Username, u.DisplayName, u.Email, u.PasswordHash, u.Role, u.Stats,
	).Scan(&u.ID, &u.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_email_key":
				return ErrUserEmailConflict
			case "users_username_key":
				return ErrUserUsernameConflict
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) scanUser(rowScanner interface {
	Scan(dest ...interface{}) error
}, u *models.User) error {
	return rowScanner.Scan(
		&u.ID, &u.Username, &u.DisplayName, &u.Email, &u.PasswordHash,
		&u.Role, &u.TeamID, &u.Stats, &u.CreatedAt,
	)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.User, error) {
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u := &models.User{}
	if err := r.scanUser(executor.QueryRowContext(ctx, query, id), u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	u := &models.User{}
	if err := r.scanUser(r.db.QueryRowContext(ctx, query, email), u); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

func (r *postgresUserRepository) ListByTeam(ctx context.Context, teamID int) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE team_id = $1 ORDER BY id ASC`, userColumns)
	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by team: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		var u models.User
		if err := r.scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (r *postgresUserRepository) UpdateStats(ctx context.Context, exec SQLExecutor, userID int, stats models.PlayerStats) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE users SET stats = $1 WHERE id = $2`, stats, userID)
	if err != nil {
		return fmt.Errorf("failed to update user stats: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateTeam(ctx context.Context, userID int, teamID *int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET team_id = $1 WHERE id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to update user team: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}
