package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadra-gg/quadra/models"
)

func newMatchFixture(t *testing.T) (*fakeStore, MatchService) {
	t.Helper()
	store := newFakeStore()
	svc := NewMatchService(
		&fakeMatchRepo{store: store},
		&fakeTournamentRepo{store: store},
		&fakeRegistrationRepo{store: store},
	)
	return store, svc
}

func TestCreateMatch(t *testing.T) {
	store, svc := newMatchFixture(t)
	store.tournaments[1] = &models.Tournament{ID: 1, Status: models.TournamentStatusOpen}

	roomID := "lobby-77"
	match, err := svc.CreateMatch(context.Background(), CreateMatchInput{
		TournamentID: 1, Round: 1, ScheduledAt: time.Now().Add(time.Hour), RoomID: &roomID,
	})
	require.NoError(t, err)

	assert.Equal(t, models.MatchStatusScheduled, match.Status)
	assert.NotNil(t, match.Scores)
	assert.Empty(t, match.Scores)
}

func TestCreateMatch_InvalidRound(t *testing.T) {
	_, svc := newMatchFixture(t)

	_, err := svc.CreateMatch(context.Background(), CreateMatchInput{TournamentID: 1, Round: 0})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCreateMatch_TournamentMissing(t *testing.T) {
	_, svc := newMatchFixture(t)

	_, err := svc.CreateMatch(context.Background(), CreateMatchInput{TournamentID: 404, Round: 1})
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

// TestGetMatchForUser_Redaction: room credentials are visible only to members
// of approved rosters in the owning tournament.
func TestGetMatchForUser_Redaction(t *testing.T) {
	store, svc := newMatchFixture(t)
	roomID, password := "lobby-77", "hunter2"
	store.matches[1] = &models.Match{
		ID: 1, TournamentID: 1, Round: 1, Status: models.MatchStatusScheduled,
		RoomID: &roomID, RoomPassword: &password,
	}
	store.regs[1] = &models.Registration{
		ID: 1, TournamentID: 1, TeamID: 5,
		Status: models.RegistrationStatusApproved,
		Roster: models.RosterSnapshot{{UserID: 100, Role: "leader"}},
	}

	insider, err := svc.GetMatchForUser(context.Background(), 1, 100)
	require.NoError(t, err)
	require.NotNil(t, insider.RoomID)
	assert.Equal(t, "lobby-77", *insider.RoomID)

	outsider, err := svc.GetMatchForUser(context.Background(), 1, 200)
	require.NoError(t, err)
	assert.Nil(t, outsider.RoomID)
	assert.Nil(t, outsider.RoomPassword)
}

// Pending rosters do not grant credential access.
func TestGetMatchForUser_PendingRosterRedacted(t *testing.T) {
	store, svc := newMatchFixture(t)
	roomID := "lobby-77"
	store.matches[1] = &models.Match{
		ID: 1, TournamentID: 1, Round: 1, Status: models.MatchStatusScheduled,
		RoomID: &roomID,
	}
	store.regs[1] = &models.Registration{
		ID: 1, TournamentID: 1, TeamID: 5,
		Status: models.RegistrationStatusPending,
		Roster: models.RosterSnapshot{{UserID: 100, Role: "leader"}},
	}

	match, err := svc.GetMatchForUser(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.Nil(t, match.RoomID)
}

func TestUpdateMatchStatus_ValidChain(t *testing.T) {
	store, svc := newMatchFixture(t)
	store.matches[1] = &models.Match{ID: 1, TournamentID: 1, Round: 1, Status: models.MatchStatusScheduled}

	for _, next := range []models.MatchStatus{
		models.MatchStatusLive,
		models.MatchStatusCompleted,
		models.MatchStatusScored,
	} {
		match, err := svc.UpdateMatchStatus(context.Background(), 1, next)
		require.NoError(t, err)
		assert.Equal(t, next, match.Status)
	}
}

func TestUpdateMatchStatus_RejectsSkips(t *testing.T) {
	store, svc := newMatchFixture(t)
	store.matches[1] = &models.Match{ID: 1, TournamentID: 1, Round: 1, Status: models.MatchStatusScheduled}

	_, err := svc.UpdateMatchStatus(context.Background(), 1, models.MatchStatusScored)
	assert.ErrorIs(t, err, ErrInvalidMatchTransition)
	assert.Equal(t, models.MatchStatusScheduled, store.matches[1].Status)
}

func TestUpdateMatchStatus_ScoredIsTerminal(t *testing.T) {
	store, svc := newMatchFixture(t)
	store.matches[1] = &models.Match{ID: 1, TournamentID: 1, Round: 1, Status: models.MatchStatusScored}

	_, err := svc.UpdateMatchStatus(context.Background(), 1, models.MatchStatusLive)
	assert.ErrorIs(t, err, ErrInvalidMatchTransition)
}
