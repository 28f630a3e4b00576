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
	ErrDisputeNotFound      = errors.New("dispute not found")
	ErrDisputeResultInvalid = errors.New("dispute result conflict or invalid")
)

type DisputeRepository interface {
	Create(ctx context.Context, dispute *models.Dispute) error
	GetByID(ctx context.Context, id int) (*models.Dispute, error)
	ListOpen(ctx context.Context) ([]*models.Dispute, error)
	Resolve(ctx context.Context, id int, status models.DisputeStatus, resolution string) error
}

type postgresDisputeRepository struct {
	db *sql.DB
}

func NewPostgresDisputeRepository(db *sql.DB) DisputeRepository {
	return &postgresDisputeRepository{db: db}
}

func (r *postgresDisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	query := `
		INSERT INTO disputes (result_id, user_id, reason, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, d.ResultID, d.UserID, d.Reason, d.Status).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			if pqErr.Constraint == "disputes_result_id_fkey" {
				return ErrDisputeResultInvalid
			}
		}
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

func (r *postgresDisputeRepository) GetByID(ctx context.Context, id int) (*models.Dispute, error) {
	query := `SELECT id, result_id, user_id, reason, status, resolution, created_at FROM disputes WHERE id = $1`
	d := &models.Dispute{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.ResultID, &d.UserID, &d.Reason, &d.Status, &d.Resolution, &d.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	return d, nil
}

func (r *postgresDisputeRepository) ListOpen(ctx context.Context) ([]*models.Dispute, error) {
	query := `SELECT id, result_id, user_id, reason, status, resolution, created_at FROM disputes WHERE status = 'open' ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list open disputes: %w", err)
	}
	defer rows.Close()

	disputes := make([]*models.Dispute, 0)
	for rows.Next() {
		var d models.Dispute
		if err := rows.Scan(&d.ID, &d.ResultID, &d.UserID, &d.Reason, &d.Status, &d.Resolution, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispute row: %w", err)
		}
		disputes = append(disputes, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dispute rows: %w", err)
	}
	return disputes, nil
}

func (r *postgresDisputeRepository) Resolve(ctx context.Context, id int, status models.DisputeStatus, resolution string) error {
	query := `UPDATE disputes SET status = $1, resolution = $2 WHERE id = $3 AND status = 'open'`
	result, err := r.db.ExecContext(ctx, query, status, resolution, id)
	if err != nil {
		return fmt.Errorf("failed to resolve dispute: %w", err)
	}
	return checkAffectedRows(result, ErrDisputeNotFound)
}
