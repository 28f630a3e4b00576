package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quadra-gg/quadra/live"
	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

// finalRound — жёсткий лимит раундов турнира. В схеме нет поля, которое
// могло бы им управлять, поэтому лимит остаётся константой.
const finalRound = 3

// StageAdvancer решает, закрывать ли турнир после финализации раунда.
// Вызывается после верификации результатов строго в режиме fire-and-forget:
// любая ошибка здесь не должна валить запрос, который его инициировал.
type StageAdvancer interface {
	AdvanceStage(ctx context.Context, tournamentID int) error
}

type stageService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	hub            Broadcaster
	logger         *slog.Logger
}

func NewStageService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	hub Broadcaster,
	logger *slog.Logger,
) StageAdvancer {
	return &stageService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		hub:            hub,
		logger:         logger,
	}
}

// AdvanceStage inspects the highest round of the tournament. While any match
// in it is still open the call is a no-op. Once the round is finalized the
// tournament either completes (round >= finalRound) or waits for the next
// round to be scheduled by an admin.
func (s *stageService) AdvanceStage(ctx context.Context, tournamentID int) error {
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	if len(matches) == 0 {
		return nil
	}

	currentRound := 0
	for _, m := range matches {
		if m.Round > currentRound {
			currentRound = m.Round
		}
	}
	for _, m := range matches {
		if m.Round == currentRound && !m.Finalized() {
			// Round still in progress.
			return nil
		}
	}

	if currentRound < finalRound {
		// Bracket automation for the next round is not built yet: an admin
		// schedules the next round's matches manually. Intentionally a no-op.
		s.logger.Info("round finalized, awaiting next round scheduling",
			slog.Int("tournament_id", tournamentID),
			slog.Int("round", currentRound),
		)
		return nil
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.TournamentStatusCompleted); err != nil {
		return fmt.Errorf("failed to complete tournament %d: %w", tournamentID, err)
	}
	s.logger.Info("tournament completed", slog.Int("tournament_id", tournamentID))

	s.hub.BroadcastToRoom(live.TournamentRoom(tournamentID), live.Message{
		Type: "tournament_completed",
		Payload: map[string]interface{}{
			"tournament_id": tournamentID,
			"final_round":   currentRound,
		},
	})
	return nil
}
