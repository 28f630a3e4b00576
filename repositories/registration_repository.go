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
	ErrRegistrationNotFound          = errors.New("registration not found")
	ErrRegistrationDecided           = errors.New("registration is no longer pending")
	ErrRegistrationConflict          = errors.New("registration conflict: team already registered for this tournament")
	ErrRegistrationTeamInvalid       = errors.New("registration team conflict or invalid")
	ErrRegistrationTournamentInvalid = errors.New("registration tournament conflict or invalid")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id int) (*models.Registration, error)
	FindByTeamAndTournament(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.RegistrationStatus) ([]*models.Registration, error)
	CountByTournamentAndStatus(ctx context.Context, exec SQLExecutor, tournamentID int, status models.RegistrationStatus) (int, error)
	// HasRosterConflict reports whether any of the given users is already
	// locked into a pending or approved roster of a different team in the
	// same tournament.
	HasRosterConflict(ctx context.Context, tournamentID, teamID int, userIDs []int) (bool, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (tournament_id, team_id, roster_snapshot, status, transaction_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.TournamentID, reg.TeamID, reg.Roster, reg.Status, reg.TransactionID,
	).Scan(&reg.ID, &reg.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				if pqErr.Constraint == "registrations_tournament_id_team_id_key" {
					return ErrRegistrationConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "registrations_team_id_fkey":
					return ErrRegistrationTeamInvalid
				case "registrations_tournament_id_fkey":
					return ErrRegistrationTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create registration: %w", err)
	}
	return nil
}

func (r *postgresRegistrationRepository) scanRegistration(rowScanner interface {
	Scan(dest ...interface{}) error
}, reg *models.Registration) error {
	return rowScanner.Scan(
		&reg.ID,
		&reg.TournamentID,
		&reg.TeamID,
		&reg.Roster,
		&reg.Status,
		&reg.TransactionID,
		&reg.CreatedAt,
	)
}

const registrationColumns = `id, tournament_id, team_id, roster_snapshot, status, transaction_id, created_at`

func (r *postgresRegistrationRepository) findOne(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) (*models.Registration, error) {
	reg := &models.Registration{}
	row := executor.QueryRowContext(ctx, query, args...)
	if err := r.scanRegistration(row, reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE id = $1`, registrationColumns)
	return r.findOne(ctx, r.db, query, id)
}

func (r *postgresRegistrationRepository) FindByTeamAndTournament(ctx context.Context, exec SQLExecutor, teamID, tournamentID int) (*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE team_id = $1 AND tournament_id = $2`, registrationColumns)
	return r.findOne(ctx, r.getExecutor(exec), query, teamID, tournamentID)
}

func (r *postgresRegistrationRepository) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.RegistrationStatus) ([]*models.Registration, error) {
	query := fmt.Sprintf(`SELECT %s FROM registrations WHERE tournament_id = $1`, registrationColumns)
	args := []interface{}{tournamentID}
	if statusFilter != nil {
		query += " AND status = $2"
		args = append(args, *statusFilter)
	}
	query += " ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by tournament: %w", err)
	}
	defer rows.Close()

	registrations := make([]*models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		if err := r.scanRegistration(rows, &reg); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		registrations = append(registrations, &reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return registrations, nil
}

func (r *postgresRegistrationRepository) CountByTournamentAndStatus(ctx context.Context, exec SQLExecutor, tournamentID int, status models.RegistrationStatus) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE tournament_id = $1 AND status = $2`,
		tournamentID, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count registrations: %w", err)
	}
	return count, nil
}

func (r *postgresRegistrationRepository) HasRosterConflict(ctx context.Context, tournamentID, teamID int, userIDs []int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM registrations r
			CROSS JOIN jsonb_array_elements(r.roster_snapshot) AS member
			WHERE r.tournament_id = $1
			  AND r.team_id <> $2
			  AND r.status IN ('pending', 'approved')
			  AND (member->>'user_id')::int = ANY($3)
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, tournamentID, teamID, pq.Array(userIDs)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check roster conflict: %w", err)
	}
	return exists, nil
}

// UpdateStatus resolves a pending registration. The pending guard is part of
// the statement: a racing decision that already committed leaves zero rows
// affected instead of flipping a terminal status.
func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.RegistrationStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE registrations SET status = $1 WHERE id = $2 AND status = $3`,
		status, id, models.RegistrationStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationDecided)
}

func (r *postgresRegistrationRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx, `DELETE FROM registrations WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to delete registrations by tournament: %w", err)
	}
	return nil
}
