package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

type CreateMatchInput struct {
	TournamentID int       `json:"tournament_id"`
	Round        int       `json:"round"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	RoomID       *string   `json:"room_id,omitempty"`
	RoomPassword *string   `json:"room_password,omitempty"`
}

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	// GetMatchForUser returns the match with room credentials redacted unless
	// the user is locked into an approved roster of the owning tournament.
	GetMatchForUser(ctx context.Context, matchID, userID int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	UpdateMatchStatus(ctx context.Context, matchID int, status models.MatchStatus) (*models.Match, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	regRepo        repositories.RegistrationRepository
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	regRepo repositories.RegistrationRepository,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		regRepo:        regRepo,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.Round < 1 {
		return nil, fmt.Errorf("%w: round must be positive", ErrValidationFailed)
	}
	if _, err := s.tournamentRepo.GetByID(ctx, input.TournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	match := &models.Match{
		TournamentID: input.TournamentID,
		Round:        input.Round,
		ScheduledAt:  input.ScheduledAt,
		Status:       models.MatchStatusScheduled,
		RoomID:       input.RoomID,
		RoomPassword: input.RoomPassword,
		Scores:       models.TeamScores{},
		History:      models.ScoreHistory{},
	}
	if err := s.matchRepo.Create(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return match, nil
}

func (s *matchService) GetMatchForUser(ctx context.Context, matchID, userID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	if !s.userOnApprovedRoster(ctx, match.TournamentID, userID) {
		match.RedactRoomCredentials()
	}
	return match, nil
}

func (s *matchService) userOnApprovedRoster(ctx context.Context, tournamentID, userID int) bool {
	approved := models.RegistrationStatusApproved
	registrations, err := s.regRepo.ListByTournament(ctx, tournamentID, &approved)
	if err != nil {
		return false
	}
	for _, reg := range registrations {
		for _, entry := range reg.Roster {
			if entry.UserID == userID {
				return true
			}
		}
	}
	return false
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	return s.matchRepo.ListByTournament(ctx, nil, tournamentID)
}

// Допустимые переходы статуса матча.
var matchTransitions = map[models.MatchStatus][]models.MatchStatus{
	models.MatchStatusScheduled: {models.MatchStatusLive},
	models.MatchStatusLive:      {models.MatchStatusCompleted},
	models.MatchStatusCompleted: {models.MatchStatusScored},
	models.MatchStatusScored:    {},
}

func (s *matchService) UpdateMatchStatus(ctx context.Context, matchID int, status models.MatchStatus) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}

	allowed := false
	for _, next := range matchTransitions[match.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidMatchTransition, match.Status, status)
	}

	if err := s.matchRepo.UpdateStatus(ctx, nil, matchID, status); err != nil {
		return nil, err
	}
	match.Status = status
	return match, nil
}
