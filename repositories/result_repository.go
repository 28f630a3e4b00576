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
	ErrResultNotFound     = errors.New("match result not found")
	ErrResultConflict     = errors.New("result conflict: team already submitted a result for this match")
	ErrResultMatchInvalid = errors.New("result match conflict or invalid")
	ErrResultTeamInvalid  = errors.New("result team conflict or invalid")
)

type ResultRepository interface {
	Create(ctx context.Context, exec SQLExecutor, result *models.MatchResult) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.MatchResult, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchResult, error)
	ListPendingByTournament(ctx context.Context, tournamentID int) ([]*models.MatchResult, error)
	// MarkVerified flips is_verified as a conditional write. A zero affected
	// row count means the result was missing or already verified; the caller
	// distinguishes the two.
	MarkVerified(ctx context.Context, exec SQLExecutor, id, adminID int) (int64, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresResultRepository struct {
	db *sql.DB
}

func NewPostgresResultRepository(db *sql.DB) ResultRepository {
	return &postgresResultRepository{db: db}
}

func (r *postgresResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const resultColumns = `id, match_id, team_id, kills, placement, total_points, screenshot_url, player_results, submitted_by, is_verified, verified_by, created_at`

func (r *postgresResultRepository) Create(ctx context.Context, exec SQLExecutor, res *models.MatchResult) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_results (match_id, team_id, kills, placement, total_points, screenshot_url, player_results, submitted_by, is_verified, verified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		res.MatchID, res.TeamID, res.Kills, res.Placement, res.TotalPoints,
		res.ScreenshotURL, res.PlayerResults, res.SubmittedBy, res.IsVerified, res.VerifiedBy,
	).Scan(&res.ID, &res.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "match_results_match_id_team_id_key" {
					return ErrResultConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "match_results_match_id_fkey":
					return ErrResultMatchInvalid
				case "match_results_team_id_fkey":
					return ErrResultTeamInvalid
				}
			}
		}
		return fmt.Errorf("failed to create match result: %w", err)
	}
	return nil
}

func (r *postgresResultRepository) scanResult(rowScanner interface {
	Scan(dest ...interface{}) error
}, res *models.MatchResult) error {
	return rowScanner.Scan(
		&res.ID, &res.MatchID, &res.TeamID, &res.Kills, &res.Placement, &res.TotalPoints,
		&res.ScreenshotURL, &res.PlayerResults, &res.SubmittedBy, &res.IsVerified, &res.VerifiedBy, &res.CreatedAt,
	)
}

func (r *postgresResultRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.MatchResult, error) {
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`SELECT %s FROM match_results WHERE id = $1`, resultColumns)
	res := &models.MatchResult{}
	if err := r.scanResult(executor.QueryRowContext(ctx, query, id), res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	return res, nil
}

func (r *postgresResultRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.MatchResult, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list match results: %w", err)
	}
	defer rows.Close()

	results := make([]*models.MatchResult, 0)
	for rows.Next() {
		var res models.MatchResult
		if err := r.scanResult(rows, &res); err != nil {
			return nil, fmt.Errorf("failed to scan match result row: %w", err)
		}
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match result rows: %w", err)
	}
	return results, nil
}

func (r *postgresResultRepository) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchResult, error) {
	query := fmt.Sprintf(`SELECT %s FROM match_results WHERE match_id = $1 ORDER BY placement ASC`, resultColumns)
	return r.list(ctx, query, matchID)
}

func (r *postgresResultRepository) ListPendingByTournament(ctx context.Context, tournamentID int) ([]*models.MatchResult, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM match_results
		WHERE is_verified = FALSE
		  AND match_id IN (SELECT id FROM matches WHERE tournament_id = $1)
		ORDER BY created_at ASC`, resultColumns)
	return r.list(ctx, query, tournamentID)
}

func (r *postgresResultRepository) MarkVerified(ctx context.Context, exec SQLExecutor, id, adminID int) (int64, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE match_results SET is_verified = TRUE, verified_by = $2 WHERE id = $1 AND is_verified = FALSE`,
		id, adminID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark result verified: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check affected rows for result verification: %w", err)
	}
	return affected, nil
}

func (r *postgresResultRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM match_results WHERE match_id IN (SELECT id FROM matches WHERE tournament_id = $1)`
	if _, err := executor.ExecContext(ctx, query, tournamentID); err != nil {
		return fmt.Errorf("failed to delete results by tournament: %w", err)
	}
	return nil
}
