package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

type SubmitResultInput struct {
	MatchID       int                  `json:"match_id"`
	TeamID        int                  `json:"team_id"`
	Kills         int                  `json:"kills"`
	Placement     int                  `json:"placement"`
	ScreenshotURL *string              `json:"screenshot_url,omitempty"`
	PlayerResults models.PlayerResults `json:"player_results,omitempty"`
}

// ResultService — подача и верификация результатов матчей. Статистика игроков
// мутируется только здесь и ровно один раз на верифицированный результат.
type ResultService interface {
	SubmitResult(ctx context.Context, input SubmitResultInput, submittedBy int) (*models.MatchResult, error)
	VerifyResult(ctx context.Context, resultID, adminID int) (*models.MatchResult, error)
	BulkSubmit(ctx context.Context, inputs []SubmitResultInput, adminID int) ([]*models.MatchResult, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.MatchResult, error)
}

type resultService struct {
	resultRepo     repositories.ResultRepository
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	regRepo        repositories.RegistrationRepository
	userRepo       repositories.UserRepository
	txManager      repositories.TxManager
	notifier       Notifier
	achievements   AchievementChecker
	stageAdvancer  StageAdvancer
	logger         *slog.Logger
}

func NewResultService(
	resultRepo repositories.ResultRepository,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	regRepo repositories.RegistrationRepository,
	userRepo repositories.UserRepository,
	txManager repositories.TxManager,
	notifier Notifier,
	achievements AchievementChecker,
	stageAdvancer StageAdvancer,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		resultRepo:     resultRepo,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		regRepo:        regRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		notifier:       notifier,
		achievements:   achievements,
		stageAdvancer:  stageAdvancer,
		logger:         logger,
	}
}

// SubmitResult records an unverified result. Points are computed from the
// owning tournament's scoring parameters at submission time and never
// recomputed later, even if the parameters change.
func (s *resultService) SubmitResult(ctx context.Context, input SubmitResultInput, submittedBy int) (*models.MatchResult, error) {
	if input.Placement < 1 {
		return nil, ErrInvalidPlacement
	}

	match, err := s.matchRepo.GetByID(ctx, nil, input.MatchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", input.MatchID, err)
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tournament %d: %w", match.TournamentID, err)
	}

	if _, err := s.regRepo.FindByTeamAndTournament(ctx, nil, input.TeamID, match.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrTeamNotRegistered
		}
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}

	result := &models.MatchResult{
		MatchID:       input.MatchID,
		TeamID:        input.TeamID,
		Kills:         input.Kills,
		Placement:     input.Placement,
		TotalPoints:   computeTotalPoints(tournament.ScoringParams, input.Placement, input.Kills),
		ScreenshotURL: input.ScreenshotURL,
		PlayerResults: input.PlayerResults,
		SubmittedBy:   submittedBy,
	}
	if err := s.resultRepo.Create(ctx, nil, result); err != nil {
		if errors.Is(err, repositories.ErrResultConflict) {
			return nil, ErrResultAlreadySubmitted
		}
		return nil, fmt.Errorf("failed to create result: %w", err)
	}
	return result, nil
}

// computeTotalPoints is the only place placement and kill scoring are combined.
func computeTotalPoints(params models.ScoringParams, placement, kills int) int {
	return params.PlacementPointsFor(placement) + kills*params.KillWeight()
}

// VerifyResult marks a result verified and applies it to the lifetime stats of
// every roster member, all inside one transaction. Verifying an already
// verified result is a rejected no-op: the conditional verified-flag update
// detects the duplicate atomically.
func (s *resultService) VerifyResult(ctx context.Context, resultID, adminID int) (*models.MatchResult, error) {
	var result *models.MatchResult
	var tournamentID int

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		affected, err := s.resultRepo.MarkVerified(ctx, exec, resultID, adminID)
		if err != nil {
			return err
		}
		if affected == 0 {
			if _, getErr := s.resultRepo.GetByID(ctx, exec, resultID); getErr != nil {
				if errors.Is(getErr, repositories.ErrResultNotFound) {
					return ErrResultNotFound
				}
				return getErr
			}
			return ErrResultAlreadyVerified
		}

		result, err = s.resultRepo.GetByID(ctx, exec, resultID)
		if err != nil {
			return fmt.Errorf("failed to reload result %d: %w", resultID, err)
		}

		match, err := s.matchRepo.GetByID(ctx, exec, result.MatchID)
		if err != nil {
			return fmt.Errorf("failed to load match %d: %w", result.MatchID, err)
		}
		tournamentID = match.TournamentID

		registration, err := s.regRepo.FindByTeamAndTournament(ctx, exec, result.TeamID, match.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrRegistrationNotFound) {
				return ErrTeamNotRegistered
			}
			return fmt.Errorf("failed to load registration: %w", err)
		}

		return s.applyStats(ctx, exec, registration.Roster, result.PlayerResults, result.Placement == 1)
	})
	if err != nil {
		return nil, err
	}

	s.runVerificationHooks(ctx, result, tournamentID)
	return result, nil
}

// applyStats updates each roster member's denormalized stats exactly once.
// Kills not attributed in player_results are not distributed: unclaimed kills
// never inflate anyone's personal record.
func (s *resultService) applyStats(ctx context.Context, exec repositories.SQLExecutor, roster models.RosterSnapshot, playerResults models.PlayerResults, won bool) error {
	for _, entry := range roster {
		user, err := s.userRepo.GetByID(ctx, exec, entry.UserID)
		if err != nil {
			return fmt.Errorf("failed to load roster member %d: %w", entry.UserID, err)
		}
		stats := user.Stats
		stats.ApplyVerifiedResult(playerResults[entry.UserID], won)
		if err := s.userRepo.UpdateStats(ctx, exec, entry.UserID, stats); err != nil {
			return fmt.Errorf("failed to update stats for user %d: %w", entry.UserID, err)
		}
	}
	return nil
}

// runVerificationHooks fires the best-effort side effects of a committed
// verification. None of them may fail the request that triggered them.
func (s *resultService) runVerificationHooks(ctx context.Context, result *models.MatchResult, tournamentID int) {
	hooks := []postCommitHook{
		{
			Name: "notify-squad-result-verified",
			Run: func(ctx context.Context) error {
				message := fmt.Sprintf("Result for match %d has been verified: %d points", result.MatchID, result.TotalPoints)
				return s.notifier.DispatchToSquad(ctx, result.TeamID, "result_verified", message, models.NotificationMeta{
					"match_id":  result.MatchID,
					"result_id": result.ID,
				})
			},
		},
		{
			Name: "check-achievements",
			Run: func(ctx context.Context) error {
				registration, err := s.regRepo.FindByTeamAndTournament(ctx, nil, result.TeamID, tournamentID)
				if err != nil {
					return err
				}
				var firstErr error
				for _, userID := range registration.Roster.UserIDs() {
					if err := s.achievements.CheckAchievements(ctx, userID); err != nil && firstErr == nil {
						firstErr = err
					}
				}
				return firstErr
			},
		},
		{
			Name: "advance-tournament-stage",
			Run: func(ctx context.Context) error {
				return s.stageAdvancer.AdvanceStage(ctx, tournamentID)
			},
		},
	}
	runPostCommit(ctx, s.logger, hooks)
}

// BulkSubmit inserts and verifies a whole batch of results in one transaction.
// Any validation failure rolls the entire batch back: partial stat updates are
// never visible.
func (s *resultService) BulkSubmit(ctx context.Context, inputs []SubmitResultInput, adminID int) ([]*models.MatchResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: results batch is empty", ErrValidationFailed)
	}

	results := make([]*models.MatchResult, 0, len(inputs))
	tournamentIDs := make(map[int]struct{})
	verifiedTeams := make(map[int]int) // team id -> tournament id, for hooks

	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for i, input := range inputs {
			if input.Placement < 1 {
				return fmt.Errorf("result %d: %w", i+1, ErrInvalidPlacement)
			}

			match, err := s.matchRepo.GetByID(ctx, exec, input.MatchID)
			if err != nil {
				if errors.Is(err, repositories.ErrMatchNotFound) {
					return fmt.Errorf("result %d: %w", i+1, ErrMatchNotFound)
				}
				return fmt.Errorf("result %d: failed to load match: %w", i+1, err)
			}

			tournament, err := s.tournamentRepo.GetByID(ctx, match.TournamentID)
			if err != nil {
				return fmt.Errorf("result %d: failed to load tournament: %w", i+1, err)
			}

			registration, err := s.regRepo.FindByTeamAndTournament(ctx, exec, input.TeamID, match.TournamentID)
			if err != nil {
				if errors.Is(err, repositories.ErrRegistrationNotFound) {
					return fmt.Errorf("result %d: %w", i+1, ErrTeamNotRegistered)
				}
				return fmt.Errorf("result %d: failed to load registration: %w", i+1, err)
			}
			if registration.Status != models.RegistrationStatusApproved {
				return fmt.Errorf("result %d: %w", i+1, ErrRegistrationNotApproved)
			}

			result := &models.MatchResult{
				MatchID:       input.MatchID,
				TeamID:        input.TeamID,
				Kills:         input.Kills,
				Placement:     input.Placement,
				TotalPoints:   computeTotalPoints(tournament.ScoringParams, input.Placement, input.Kills),
				ScreenshotURL: input.ScreenshotURL,
				PlayerResults: input.PlayerResults,
				SubmittedBy:   adminID,
				IsVerified:    true,
				VerifiedBy:    &adminID,
			}
			if err := s.resultRepo.Create(ctx, exec, result); err != nil {
				return fmt.Errorf("result %d: %w", i+1, err)
			}

			if err := s.applyStats(ctx, exec, registration.Roster, result.PlayerResults, result.Placement == 1); err != nil {
				return fmt.Errorf("result %d: %w", i+1, err)
			}

			// Scored matches drop out of the pending-result queues.
			if err := s.matchRepo.UpdateStatus(ctx, exec, match.ID, models.MatchStatusScored); err != nil {
				return fmt.Errorf("result %d: failed to mark match scored: %w", i+1, err)
			}

			results = append(results, result)
			tournamentIDs[match.TournamentID] = struct{}{}
			verifiedTeams[result.TeamID] = match.TournamentID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	hooks := make([]postCommitHook, 0, len(results)+len(tournamentIDs))
	for _, result := range results {
		hooks = append(hooks, postCommitHook{
			Name: fmt.Sprintf("notify-squad-result-verified-%d", result.ID),
			Run: func(ctx context.Context) error {
				message := fmt.Sprintf("Result for match %d has been verified: %d points", result.MatchID, result.TotalPoints)
				return s.notifier.DispatchToSquad(ctx, result.TeamID, "result_verified", message, models.NotificationMeta{
					"match_id":  result.MatchID,
					"result_id": result.ID,
				})
			},
		})
	}
	for teamID, tournamentID := range verifiedTeams {
		hooks = append(hooks, postCommitHook{
			Name: fmt.Sprintf("check-achievements-team-%d", teamID),
			Run: func(ctx context.Context) error {
				registration, err := s.regRepo.FindByTeamAndTournament(ctx, nil, teamID, tournamentID)
				if err != nil {
					return err
				}
				var firstErr error
				for _, userID := range registration.Roster.UserIDs() {
					if err := s.achievements.CheckAchievements(ctx, userID); err != nil && firstErr == nil {
						firstErr = err
					}
				}
				return firstErr
			},
		})
	}
	for tournamentID := range tournamentIDs {
		hooks = append(hooks, postCommitHook{
			Name: fmt.Sprintf("advance-tournament-stage-%d", tournamentID),
			Run: func(ctx context.Context) error {
				return s.stageAdvancer.AdvanceStage(ctx, tournamentID)
			},
		})
	}
	runPostCommit(ctx, s.logger, hooks)

	return results, nil
}

func (s *resultService) ListByMatch(ctx context.Context, matchID int) ([]*models.MatchResult, error) {
	return s.resultRepo.ListByMatch(ctx, matchID)
}
