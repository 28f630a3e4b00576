package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadra-gg/quadra/models"
)

func newTournamentFixture(t *testing.T) (*fakeStore, TournamentService) {
	t.Helper()
	store := newFakeStore()
	svc := NewTournamentService(
		&fakeTournamentRepo{store: store},
		&fakeMatchRepo{store: store},
		&fakeResultRepo{store: store},
		&fakeRegistrationRepo{store: store},
		&fakeTxManager{store: store},
	)
	return store, svc
}

func TestCreateTournament(t *testing.T) {
	_, svc := newTournamentFixture(t)

	tournament, err := svc.CreateTournament(context.Background(), 7, CreateTournamentInput{
		Title: "Quadra Cup", Game: "pubg", MaxTeams: 16,
		ScoringParams: models.ScoringParams{KillPoints: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, models.TournamentStatusOpen, tournament.Status)
	assert.Equal(t, 7, tournament.CreatedBy)
}

func TestCreateTournament_Validation(t *testing.T) {
	_, svc := newTournamentFixture(t)

	_, err := svc.CreateTournament(context.Background(), 7, CreateTournamentInput{MaxTeams: 16})
	assert.ErrorIs(t, err, ErrTournamentTitleRequired)

	_, err = svc.CreateTournament(context.Background(), 7, CreateTournamentInput{Title: "Cup"})
	assert.ErrorIs(t, err, ErrTournamentInvalidCapacity)
}

func TestDeleteTournament_Cascades(t *testing.T) {
	store, svc := newTournamentFixture(t)
	store.tournaments[1] = &models.Tournament{ID: 1, Title: "Cup", MaxTeams: 4, Status: models.TournamentStatusOpen}
	store.matches[1] = &models.Match{ID: 1, TournamentID: 1, Round: 1, Status: models.MatchStatusScored}
	store.results[1] = &models.MatchResult{ID: 1, MatchID: 1, TeamID: 5}
	store.regs[1] = &models.Registration{ID: 1, TournamentID: 1, TeamID: 5, Status: models.RegistrationStatusApproved}

	require.NoError(t, svc.DeleteTournament(context.Background(), 1))

	assert.Empty(t, store.tournaments)
	assert.Empty(t, store.matches)
	assert.Empty(t, store.results)
	assert.Empty(t, store.regs)
}

func TestDeleteTournament_NotFound(t *testing.T) {
	_, svc := newTournamentFixture(t)

	err := svc.DeleteTournament(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
