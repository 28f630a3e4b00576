package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

type DisputeService interface {
	FileDispute(ctx context.Context, userID, resultID int, reason string) (*models.Dispute, error)
	ListOpenDisputes(ctx context.Context) ([]*models.Dispute, error)
	// ResolveDispute закрывает претензию и уведомляет подателя. Статистика
	// игроков при этом не пересчитывается: спорный результат правится
	// отдельной админской операцией.
	ResolveDispute(ctx context.Context, disputeID int, status models.DisputeStatus, resolution string) error
}

type disputeService struct {
	disputeRepo repositories.DisputeRepository
	resultRepo  repositories.ResultRepository
	notifier    Notifier
	logger      *slog.Logger
}

func NewDisputeService(
	disputeRepo repositories.DisputeRepository,
	resultRepo repositories.ResultRepository,
	notifier Notifier,
	logger *slog.Logger,
) DisputeService {
	return &disputeService{
		disputeRepo: disputeRepo,
		resultRepo:  resultRepo,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *disputeService) FileDispute(ctx context.Context, userID, resultID int, reason string) (*models.Dispute, error) {
	if reason == "" {
		return nil, fmt.Errorf("%w: dispute reason is required", ErrValidationFailed)
	}

	if _, err := s.resultRepo.GetByID(ctx, nil, resultID); err != nil {
		if errors.Is(err, repositories.ErrResultNotFound) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to load disputed result: %w", err)
	}

	dispute := &models.Dispute{
		ResultID: resultID,
		UserID:   userID,
		Reason:   reason,
		Status:   models.DisputeStatusOpen,
	}
	if err := s.disputeRepo.Create(ctx, dispute); err != nil {
		if errors.Is(err, repositories.ErrDisputeResultInvalid) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to file dispute: %w", err)
	}
	return dispute, nil
}

func (s *disputeService) ListOpenDisputes(ctx context.Context) ([]*models.Dispute, error) {
	return s.disputeRepo.ListOpen(ctx)
}

func (s *disputeService) ResolveDispute(ctx context.Context, disputeID int, status models.DisputeStatus, resolution string) error {
	if status != models.DisputeStatusResolved && status != models.DisputeStatusDismissed {
		return fmt.Errorf("%w: status must be resolved or dismissed", ErrValidationFailed)
	}

	dispute, err := s.disputeRepo.GetByID(ctx, disputeID)
	if err != nil {
		if errors.Is(err, repositories.ErrDisputeNotFound) {
			return ErrDisputeNotFound
		}
		return fmt.Errorf("failed to load dispute: %w", err)
	}
	if dispute.Status != models.DisputeStatusOpen {
		return ErrDisputeClosed
	}

	if err := s.disputeRepo.Resolve(ctx, disputeID, status, resolution); err != nil {
		return fmt.Errorf("failed to resolve dispute: %w", err)
	}

	runPostCommit(ctx, s.logger, []postCommitHook{
		{
			Name: "notify-dispute-outcome",
			Run: func(hookCtx context.Context) error {
				message := fmt.Sprintf("Your dispute for result %d was %s: %s", dispute.ResultID, status, resolution)
				return s.notifier.Dispatch(hookCtx, dispute.UserID, "dispute_"+string(status), message, models.NotificationMeta{
					"dispute_id": dispute.ID,
					"result_id":  dispute.ResultID,
				})
			},
		},
	})
	return nil
}
