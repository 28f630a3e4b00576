package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quadra-gg/quadra/live"
	"github.com/quadra-gg/quadra/models"
	"github.com/quadra-gg/quadra/repositories"
	"golang.org/x/sync/errgroup"
)

// Broadcaster fans live events out to room subscribers. Delivery is
// best-effort: there is no replay, late joiners fetch current state first.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

// LiveUpdate — событие, рассылаемое в комнату матча и родительского турнира.
type LiveUpdate struct {
	Type      models.LiveEventType    `json:"type"`
	Data      models.LiveEventPayload `json:"data"`
	MatchID   int                     `json:"match_id"`
	Timestamp time.Time               `json:"timestamp"`
}

// LiveTeam enriches a live state response with the locked roster of an
// approved registration.
type LiveTeam struct {
	TeamID   int                   `json:"team_id"`
	TeamName string                `json:"team_name"`
	Roster   models.RosterSnapshot `json:"roster"`
}

type LiveMatchState struct {
	Match         *models.Match         `json:"match"`
	CurrentScores models.TeamScores     `json:"current_scores"`
	ScoreHistory  models.ScoreHistory   `json:"score_history"`
	Teams         []LiveTeam            `json:"teams"`
	Analytics     models.MatchAnalytics `json:"analytics"`
}

type ScoreService interface {
	ApplyEvent(ctx context.Context, matchID int, eventType models.LiveEventType, payload models.LiveEventPayload) error
	GetLiveState(ctx context.Context, matchID int) (*LiveMatchState, error)
	ListActiveStates(ctx context.Context) ([]*LiveMatchState, error)
}

type scoreService struct {
	matchRepo repositories.MatchRepository
	regRepo   repositories.RegistrationRepository
	teamRepo  repositories.TeamRepository
	hub       Broadcaster
	logger    *slog.Logger
}

func NewScoreService(
	matchRepo repositories.MatchRepository,
	regRepo repositories.RegistrationRepository,
	teamRepo repositories.TeamRepository,
	hub Broadcaster,
	logger *slog.Logger,
) ScoreService {
	return &scoreService{
		matchRepo: matchRepo,
		regRepo:   regRepo,
		teamRepo:  teamRepo,
		hub:       hub,
		logger:    logger,
	}
}

// ApplyEvent mutates the cumulative score state of a match and broadcasts the
// event. Lifetime player stats are never touched here: live casting is
// corrected too often, stats move only through result verification.
func (s *scoreService) ApplyEvent(ctx context.Context, matchID int, eventType models.LiveEventType, payload models.LiveEventPayload) error {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return ErrMatchNotFound
		}
		return fmt.Errorf("failed to load match %d: %w", matchID, err)
	}

	scores := match.Scores.Normalize()
	mutated := false

	switch eventType {
	case models.LiveEventTicker:
		// Pure commentary, nothing to persist.

	case models.LiveEventScore:
		if payload.Team == "" {
			return ErrTeamNameMissing
		}
		ts := scores.Ensure(payload.Team)
		ts.Points += payload.PointsOr(0)
		mutated = true

	case models.LiveEventStatus:
		if payload.Team == "" {
			return ErrTeamNameMissing
		}
		// Status strings are taken verbatim: casters use free-form values.
		ts := scores.Ensure(payload.Team)
		ts.Status = payload.Status
		mutated = true

	case models.LiveEventPlayerKill:
		if payload.Team == "" {
			return ErrTeamNameMissing
		}
		ts := scores.Ensure(payload.Team)
		ts.Kills++
		ts.Points += payload.PointsOr(1)
		if payload.Player != "" {
			ts.Players[payload.Player]++
		}
		mutated = true

	case models.LiveEventAliveCount:
		if payload.Team == "" {
			return ErrTeamNameMissing
		}
		ts := scores.Ensure(payload.Team)
		ts.AliveCount = payload.AliveCount
		mutated = true

	default:
		return fmt.Errorf("%w: %q", ErrUnknownLiveEventType, eventType)
	}

	now := time.Now().UTC()
	if mutated {
		if err := s.matchRepo.AppendScoreSnapshot(ctx, matchID, scores, scores.Snapshot(now)); err != nil {
			return fmt.Errorf("failed to persist score state for match %d: %w", matchID, err)
		}
	}

	update := LiveUpdate{Type: eventType, Data: payload, MatchID: matchID, Timestamp: now}
	s.broadcast(match, "live_update", update)

	if eventType == models.LiveEventPlayerKill {
		ticker := LiveUpdate{
			Type: models.LiveEventTicker,
			Data: models.LiveEventPayload{
				Message: fmt.Sprintf("%s [%s] eliminated an opponent!", payload.Player, payload.Team),
			},
			MatchID:   matchID,
			Timestamp: now,
		}
		s.broadcast(match, "live_update", ticker)
	}

	return nil
}

func (s *scoreService) broadcast(match *models.Match, msgType string, payload interface{}) {
	message := live.Message{Type: msgType, Payload: payload}
	s.hub.BroadcastToRoom(live.MatchRoom(match.ID), message)
	s.hub.BroadcastToRoom(live.TournamentRoom(match.TournamentID), message)
}

// ComputeAnalytics derives win probability and an MVP prediction from the
// cumulative score state. Pure: identical input yields identical output.
//
// Eliminated teams are excluded from win probability but their players still
// count for the MVP scan. Ties on kills go to the player whose team currently
// holds more points.
func ComputeAnalytics(scores models.TeamScores) models.MatchAnalytics {
	analytics := models.MatchAnalytics{WinProbability: map[string]string{}}

	active := make([]models.TeamScore, 0, len(scores))
	for _, ts := range scores {
		if ts.Status != "eliminated" {
			active = append(active, ts)
		}
	}
	if len(active) == 0 {
		return analytics
	}

	weights := make(map[string]float64, len(active))
	var total float64
	for _, ts := range active {
		w := float64(ts.Points)*0.6 + float64(ts.Kills)*0.4 + float64(ts.EffectiveAlive())*2.0 + 1
		weights[ts.Team] = w
		total += w
	}
	for team, w := range weights {
		analytics.WinProbability[team] = fmt.Sprintf("%.1f%%", w/total*100)
	}

	var mvp *models.MVPPrediction
	var mvpTeamPoints int
	for _, ts := range scores {
		for player, kills := range ts.Players {
			better := mvp == nil ||
				kills > mvp.Kills ||
				(kills == mvp.Kills && ts.Points > mvpTeamPoints)
			if better {
				mvp = &models.MVPPrediction{Name: player, Team: ts.Team, Kills: kills}
				mvpTeamPoints = ts.Points
			}
		}
	}
	analytics.MVPPrediction = mvp

	return analytics
}

func (s *scoreService) GetLiveState(ctx context.Context, matchID int) (*LiveMatchState, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", matchID, err)
	}
	return s.buildState(ctx, match)
}

func (s *scoreService) buildState(ctx context.Context, match *models.Match) (*LiveMatchState, error) {
	// Live-состояния читаются без авторизации, реквизиты лобби сюда не попадают.
	// Участники получают их через авторизованный эндпоинт матча.
	match.RedactRoomCredentials()

	approved := models.RegistrationStatusApproved
	registrations, err := s.regRepo.ListByTournament(ctx, match.TournamentID, &approved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved registrations for tournament %d: %w", match.TournamentID, err)
	}

	teams := make([]LiveTeam, len(registrations))
	g, gCtx := errgroup.WithContext(ctx)
	for i, reg := range registrations {
		i, reg := i, reg
		g.Go(func() error {
			team, err := s.teamRepo.GetByID(gCtx, reg.TeamID)
			if err != nil {
				return fmt.Errorf("failed to load team %d: %w", reg.TeamID, err)
			}
			teams[i] = LiveTeam{TeamID: team.ID, TeamName: team.Name, Roster: reg.Roster}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &LiveMatchState{
		Match:         match,
		CurrentScores: match.Scores,
		ScoreHistory:  match.History,
		Teams:         teams,
		Analytics:     ComputeAnalytics(match.Scores),
	}, nil
}

// ListActiveStates returns the full live state for every match currently
// marked live. States are assembled concurrently.
func (s *scoreService) ListActiveStates(ctx context.Context) ([]*LiveMatchState, error) {
	matches, err := s.matchRepo.ListByStatus(ctx, models.MatchStatusLive)
	if err != nil {
		return nil, fmt.Errorf("failed to list live matches: %w", err)
	}

	states := make([]*LiveMatchState, len(matches))
	g, gCtx := errgroup.WithContext(ctx)
	for i, match := range matches {
		i, match := i, match
		g.Go(func() error {
			state, err := s.buildState(gCtx, match)
			if err != nil {
				return err
			}
			states[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}
