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
	ErrTournamentNotFound        = errors.New("tournament not found")
	ErrTournamentTitleConflict   = errors.New("tournament title conflict for this organizer")
	ErrTournamentInvalidCreator  = errors.New("invalid tournament creator reference")
	ErrTournamentInvalidCapacity = errors.New("tournament capacity check violation")
)

type ListTournamentsFilter struct {
	Status    *models.TournamentStatus
	CreatedBy *int
	Limit     int
	Offset    int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// GetByIDForUpdate locks the tournament row for the duration of the
	// surrounding transaction so capacity re-checks cannot race.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, title, description, game, scoring_params, max_teams, status, created_by, start_date, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (title, description, game, scoring_params, max_teams, status, created_by, start_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Title, t.Description, t.Game, t.ScoringParams, t.MaxTeams, t.Status, t.CreatedBy, t.StartDate,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) scanTournament(row *sql.Row) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Game, &t.ScoringParams,
		&t.MaxTeams, &t.Status, &t.CreatedBy, &t.StartDate, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := fmt.Sprintf(`SELECT %s FROM tournaments WHERE id = $1`, tournamentColumns)
	return r.scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`SELECT %s FROM tournaments WHERE id = $1 FOR UPDATE`, tournamentColumns)
	return r.scanTournament(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := fmt.Sprintf(`SELECT %s FROM tournaments WHERE 1=1`, tournamentColumns)
	args := []interface{}{}
	argID := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.CreatedBy != nil {
		query += fmt.Sprintf(" AND created_by = $%d", argID)
		args = append(args, *filter.CreatedBy)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Game, &t.ScoringParams,
			&t.MaxTeams, &t.Status, &t.CreatedBy, &t.StartDate, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament rows: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments
		SET title = $1, description = $2, game = $3, scoring_params = $4, max_teams = $5, start_date = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Game, t.ScoringParams, t.MaxTeams, t.StartDate, t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update tournament status: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament: %w", err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23505": // unique_violation
			if pqErr.Constraint == "tournaments_title_created_by_key" {
				return ErrTournamentTitleConflict
			}
		case "23503": // foreign_key_violation
			if pqErr.Constraint == "tournaments_created_by_fkey" {
				return ErrTournamentInvalidCreator
			}
		case "23514": // check_violation
			if pqErr.Constraint == "chk_tournament_max_teams" {
				return ErrTournamentInvalidCapacity
			}
		}
	}
	return fmt.Errorf("tournament repository error: %w", err)
}
