package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, leaderID int, name, tag string) (*models.Team, error)
	GetTeamByID(ctx context.Context, id int) (*models.Team, error)
}

type teamService struct {
	teamRepo repositories.TeamRepository
	userRepo repositories.UserRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, userRepo repositories.UserRepository) TeamService {
	return &teamService{teamRepo: teamRepo, userRepo: userRepo}
}

func (s *teamService) CreateTeam(ctx context.Context, leaderID int, name, tag string) (*models.Team, error) {
	if name == "" {
		return nil, ErrTeamNameRequired
	}

	team := &models.Team{Name: name, Tag: tag, LeaderID: leaderID}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	// Лидер сразу числится в составе своей команды.
	if err := s.userRepo.UpdateTeam(ctx, leaderID, &team.ID); err != nil {
		return nil, fmt.Errorf("failed to assign leader to team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	members, err := s.userRepo.ListByTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	for i := range members {
		members[i].PasswordHash = ""
	}
	team.Members = members
	return team, nil
}
