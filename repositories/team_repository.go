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
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamNameConflict  = errors.New("team name is already in use")
	ErrTeamLeaderInvalid = errors.New("invalid team leader reference")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	Delete(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, t *models.Team) error {
	query := `
		INSERT INTO teams (name, tag, leader_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, t.Name, t.Tag, t.LeaderID).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "teams_name_key" {
					return ErrTeamNameConflict
				}
			case "23503":
				if pqErr.Constraint == "teams_leader_id_fkey" {
					return ErrTeamLeaderInvalid
				}
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, tag, leader_id, created_at FROM teams WHERE id = $1`
	t := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.Tag, &t.LeaderID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return t, nil
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}
