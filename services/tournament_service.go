package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

type CreateTournamentInput struct {
	Title         string               `json:"title"`
	Description   *string              `json:"description,omitempty"`
	Game          string               `json:"game"`
	ScoringParams models.ScoringParams `json:"scoring_params"`
	MaxTeams      int                  `json:"max_teams"`
	StartDate     time.Time            `json:"start_date"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, adminID int, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input CreateTournamentInput) (*models.Tournament, error)
	// DeleteTournament cascades over matches, results and registrations in
	// one transaction.
	DeleteTournament(ctx context.Context, id int) error
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	resultRepo     repositories.ResultRepository
	regRepo        repositories.RegistrationRepository
	txManager      repositories.TxManager
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	resultRepo repositories.ResultRepository,
	regRepo repositories.RegistrationRepository,
	txManager repositories.TxManager,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		resultRepo:     resultRepo,
		regRepo:        regRepo,
		txManager:      txManager,
	}
}

func validateTournamentInput(input CreateTournamentInput) error {
	if input.Title == "" {
		return ErrTournamentTitleRequired
	}
	if input.MaxTeams <= 0 {
		return ErrTournamentInvalidCapacity
	}
	return nil
}

func (s *tournamentService) CreateTournament(ctx context.Context, adminID int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Title:         input.Title,
		Description:   input.Description,
		Game:          input.Game,
		ScoringParams: input.ScoringParams,
		MaxTeams:      input.MaxTeams,
		Status:        models.TournamentStatusOpen,
		CreatedBy:     adminID,
		StartDate:     input.StartDate,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateTournamentInput(input); err != nil {
		return nil, err
	}

	tournament, err := s.GetTournamentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tournament.Title = input.Title
	tournament.Description = input.Description
	tournament.Game = input.Game
	tournament.ScoringParams = input.ScoringParams
	tournament.MaxTeams = input.MaxTeams
	tournament.StartDate = input.StartDate

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	err := s.txManager.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.resultRepo.DeleteByTournament(ctx, exec, id); err != nil {
			return err
		}
		if err := s.matchRepo.DeleteByTournament(ctx, exec, id); err != nil {
			return err
		}
		if err := s.regRepo.DeleteByTournament(ctx, exec, id); err != nil {
			return err
		}
		return s.tournamentRepo.Delete(ctx, exec, id)
	})
	if errors.Is(err, repositories.ErrTournamentNotFound) {
		return ErrTournamentNotFound
	}
	return err
}
