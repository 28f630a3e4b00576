package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

const minRosterSize = 4

// RegistrationService инкапсулирует жизненный цикл заявки команды:
// pending → approved / rejected, оба состояния терминальные.
type RegistrationService interface {
	Register(ctx context.Context, tournamentID, teamID, requestingUserID int, transactionID string) (*models.Registration, error)
	VerifyRegistration(ctx context.Context, registrationID int, status models.RegistrationStatus) (*models.Registration, error)
	ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.RegistrationStatus) ([]*models.Registration, error)
}

type registrationService struct {
	regRepo        repositories.RegistrationRepository
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	userRepo       repositories.UserRepository
	txManager      repositories.TxManager
	notifier       Notifier
	logger         *slog.Logger
}

func NewRegistrationService(
	regRepo repositories.RegistrationRepository,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	userRepo repositories.UserRepository,
	txManager repositories.TxManager,
	notifier Notifier,
	logger *slog.Logger,
) RegistrationService {
	return &registrationService{
		regRepo:        regRepo,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		notifier:       notifier,
		logger:         logger,
	}
}

// Register validates squad eligibility, locks a roster snapshot and records a
// pending registration against tournament capacity.
func (s *registrationService) Register(ctx context.Context, tournamentID, teamID, requestingUserID int, transactionID string) (*models.Registration, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
	}
	if tournament.Status != models.TournamentStatusOpen {
		return nil, ErrTournamentNotOpen
	}

	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to load team %d: %w", teamID, err)
	}
	if team.LeaderID != requestingUserID {
		return nil, ErrNotTeamLeader
	}

	members, err := s.userRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", teamID, err)
	}
	if len(members) < minRosterSize {
		return nil, ErrRosterTooSmall
	}

	memberIDs := make([]int, len(members))
	for i, m := range members {
		memberIDs[i] = m.ID
	}
	conflict, err := s.regRepo.HasRosterConflict(ctx, tournamentID, teamID, memberIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check cross-squad enrollment: %w", err)
	}
	if conflict {
		return nil, ErrDuplicateEnrollment
	}

	approvedCount, err := s.regRepo.CountByTournamentAndStatus(ctx, nil, tournamentID, models.RegistrationStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to count approved registrations: %w", err)
	}
	if approvedCount >= tournament.MaxTeams {
		return nil, ErrTournamentFull
	}

	if transactionID == "" {
		return nil, ErrTransactionRequired
	}

	// Состав фиксируется на момент подачи: дальнейшие изменения команды
	// не меняют того, кто "играл".
	roster := make(models.RosterSnapshot, len(members))
	for i, m := range members {
		role := "member"
		if m.ID == team.LeaderID {
			role = "leader"
		}
		roster[i] = models.RosterEntry{UserID: m.ID, Role: role, DisplayName: m.DisplayName}
	}

	registration := &models.Registration{
		TournamentID:  tournamentID,
		TeamID:        teamID,
		Roster:        roster,
		Status:        models.RegistrationStatusPending,
		TransactionID: transactionID,
	}
	if err := s.regRepo.Create(ctx, registration); err != nil {
		if errors.Is(err, repositories.ErrRegistrationConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	return registration, nil
}

// VerifyRegistration resolves a pending registration. Capacity is re-checked
// under a tournament row lock at approval time: two approvals racing for the
// last slot cannot both pass the count.
func (s *registrationService) VerifyRegistration(ctx context.Context, registrationID int, status models.RegistrationStatus) (*models.Registration, error) {
	if status != models.RegistrationStatusApproved && status != models.RegistrationStatusRejected {
		return nil, fmt.Errorf("%w: status must be approved or rejected", ErrValidationFailed)
	}

	registration, err := s.regRepo.FindByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration %d: %w", registrationID, err)
	}
	if registration.Status != models.RegistrationStatusPending {
		return nil, ErrRegistrationDecided
	}

	err = s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if status == models.RegistrationStatusApproved {
			tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, registration.TournamentID)
			if err != nil {
				return fmt.Errorf("failed to lock tournament %d: %w", registration.TournamentID, err)
			}
			approvedCount, err := s.regRepo.CountByTournamentAndStatus(ctx, exec, registration.TournamentID, models.RegistrationStatusApproved)
			if err != nil {
				return fmt.Errorf("failed to recount approved registrations: %w", err)
			}
			if approvedCount >= tournament.MaxTeams {
				return ErrTournamentFull
			}
		}
		return s.regRepo.UpdateStatus(ctx, exec, registrationID, status)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationDecided) {
			return nil, ErrRegistrationDecided
		}
		return nil, err
	}
	registration.Status = status

	runPostCommit(ctx, s.logger, []postCommitHook{
		{
			Name: "notify-registration-outcome",
			Run: func(ctx context.Context) error {
				team, err := s.teamRepo.GetByID(ctx, registration.TeamID)
				if err != nil {
					return err
				}
				message := fmt.Sprintf("Your registration for tournament %d was %s", registration.TournamentID, status)
				return s.notifier.Dispatch(ctx, team.LeaderID, "registration_"+string(status), message, models.NotificationMeta{
					"tournament_id":   registration.TournamentID,
					"registration_id": registration.ID,
				})
			},
		},
	})

	return registration, nil
}

func (s *registrationService) ListByTournament(ctx context.Context, tournamentID int, statusFilter *models.RegistrationStatus) ([]*models.Registration, error) {
	return s.regRepo.ListByTournament(ctx, tournamentID, statusFilter)
}
