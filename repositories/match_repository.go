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
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
)

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	// AppendScoreSnapshot persists the mutated current_scores and appends one
	// snapshot to score_history in a single statement, preserving
	// event-arrival order.
	AppendScoreSnapshot(ctx context.Context, id int, scores models.TeamScores, snapshot models.ScoreSnapshot) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round, scheduled_at, status, room_id, room_password, current_scores, score_history, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, round, scheduled_at, status, room_id, room_password, current_scores, score_history)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.TournamentID, m.Round, m.ScheduledAt, m.Status, m.RoomID, m.RoomPassword, m.Scores, m.History,
	).Scan(&m.ID, &m.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "matches_tournament_id_fkey" {
				return ErrMatchTournamentInvalid
			}
		}
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) scanMatch(rowScanner interface {
	Scan(dest ...interface{}) error
}, m *models.Match) error {
	err := rowScanner.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.ScheduledAt, &m.Status,
		&m.RoomID, &m.RoomPassword, &m.Scores, &m.History, &m.CreatedAt,
	)
	if err != nil {
		return err
	}
	// Repair shapes written before validation was in place.
	m.Scores = m.Scores.Normalize()
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE id = $1`, matchColumns)
	m := &models.Match{}
	if err := r.scanMatch(executor.QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

func (r *postgresMatchRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := r.scanMatch(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE tournament_id = $1 ORDER BY round ASC, scheduled_at ASC`, matchColumns)
	return r.list(ctx, r.getExecutor(exec), query, tournamentID)
}

func (r *postgresMatchRepository) ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error) {
	query := fmt.Sprintf(`SELECT %s FROM matches WHERE status = $1 ORDER BY scheduled_at ASC`, matchColumns)
	return r.list(ctx, r.db, query, status)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update match status: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) AppendScoreSnapshot(ctx context.Context, id int, scores models.TeamScores, snapshot models.ScoreSnapshot) error {
	snapshotJSON, err := snapshotValue(snapshot)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches
		SET current_scores = $2,
		    score_history = score_history || $3::jsonb
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, scores, snapshotJSON)
	if err != nil {
		return fmt.Errorf("failed to append score snapshot: %w", err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete matches by tournament: %w", err)
	}
	return nil
}

func snapshotValue(snapshot models.ScoreSnapshot) ([]byte, error) {
	// History is a jsonb array; appending `[snapshot]` keeps it flat.
	value, err := models.ScoreHistory{snapshot}.Value()
	if err != nil {
		return nil, fmt.Errorf("failed to encode score snapshot: %w", err)
	}
	return value.([]byte), nil
}
