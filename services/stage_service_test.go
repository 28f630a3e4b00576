package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quadra-gg/quadra/live"
	"github.com/quadra-gg/quadra/models"
)

func newStageFixture(t *testing.T) (*fakeStore, *fakeBroadcaster, StageAdvancer) {
	t.Helper()
	store := newFakeStore()
	hub := &fakeBroadcaster{}
	svc := NewStageService(
		&fakeTournamentRepo{store: store},
		&fakeMatchRepo{store: store},
		hub,
		testLogger(),
	)
	return store, hub, svc
}

func seedStageMatch(store *fakeStore, id, round int, status models.MatchStatus) {
	store.matches[id] = &models.Match{
		ID: id, TournamentID: 1, Round: round, Status: status,
	}
}

func TestAdvanceStage_NoMatches(t *testing.T) {
	store, hub, svc := newStageFixture(t)
	store.tournaments[1] = &models.Tournament{ID: 1, Status: models.TournamentStatusOpen}

	require.NoError(t, svc.AdvanceStage(context.Background(), 1))
	assert.Equal(t, models.TournamentStatusOpen, store.tournaments[1].Status)
	assert.Empty(t, hub.calls)
}

func TestAdvanceStage_RoundInProgress(t *testing.T) {
	store, hub, svc := newStageFixture(t)
	store.tournaments[1] = &models.Tournament{ID: 1, Status: models.TournamentStatusOpen}
	seedStageMatch(store, 1, 3, models.MatchStatusScored)
	seedStageMatch(store, 2, 3, models.MatchStatusLive)

	require.NoError(t, svc.AdvanceStage(context.Background(), 1))

	assert.Equal(t, models.TournamentStatusOpen, store.tournaments[1].Status,
		"an open match in the highest round blocks completion")
	assert.Empty(t, hub.calls)
}

// Early rounds finalize without completing the tournament: the next round is
// scheduled by an admin, not fabricated here.
func TestAdvanceStage_EarlyRoundNoOp(t *testing.T) {
	store, hub, svc := newStageFixture(t)
	store.tournaments[1] = &models.Tournament{ID: 1, Status: models.TournamentStatusOpen}
	seedStageMatch(store, 1, 1, models.MatchStatusScored)
	seedStageMatch(store, 2, 1, models.MatchStatusCompleted)

	require.NoError(t, svc.AdvanceStage(context.Background(), 1))

	assert.Equal(t, models.TournamentStatusOpen, store.tournaments[1].Status)
	assert.Empty(t, hub.calls)
	assert.Empty(t, store.matches[1].History)
	assert.Len(t, store.matches, 2, "no next-round matches are fabricated")
}

func TestAdvanceStage_FinalRoundCompletes(t *testing.T) {
	store, hub, svc := newStageFixture(t)
	store.tournaments[1] = &models.Tournament{ID: 1, Status: models.TournamentStatusOpen}
	seedStageMatch(store, 1, 1, models.MatchStatusScored)
	seedStageMatch(store, 2, 3, models.MatchStatusScored)

	require.NoError(t, svc.AdvanceStage(context.Background(), 1))

	assert.Equal(t, models.TournamentStatusCompleted, store.tournaments[1].Status)

	calls := hub.callsForRoom(live.TournamentRoom(1))
	require.Len(t, calls, 1)
	msg := calls[0].Message.(live.Message)
	assert.Equal(t, "tournament_completed", msg.Type)
}

// Rounds past the cap still complete the tournament.
func TestAdvanceStage_RoundBeyondCap(t *testing.T) {
	store, _, svc := newStageFixture(t)
	store.tournaments[1] = &models.Tournament{ID: 1, Status: models.TournamentStatusOpen}
	seedStageMatch(store, 1, 4, models.MatchStatusCompleted)

	require.NoError(t, svc.AdvanceStage(context.Background(), 1))
	assert.Equal(t, models.TournamentStatusCompleted, store.tournaments[1].Status)
}
