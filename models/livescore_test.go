package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamScoresEnsure(t *testing.T) {
	scores := TeamScores{}

	alpha := scores.Ensure("Alpha")
	require.NotNil(t, alpha)
	assert.Equal(t, "alive", alpha.Status)
	assert.Equal(t, 4, alpha.EffectiveAlive())
	assert.NotNil(t, alpha.Players)

	alpha.Points = 10
	again := scores.Ensure("Alpha")
	assert.Equal(t, 10, again.Points)
	assert.Len(t, scores, 1)
}

func TestTeamScoresNormalize(t *testing.T) {
	scores := TeamScores{
		{Team: "Alpha", Points: 5, Players: nil},
		{Team: "Bravo", Points: 3, Players: map[string]int{"x": 1}},
		{Team: "Alpha", Points: 99},
	}

	out := scores.Normalize()

	require.Len(t, out, 2)
	assert.Equal(t, 5, out.Find("Alpha").Points)
	assert.NotNil(t, out.Find("Alpha").Players)
	assert.Equal(t, map[string]int{"x": 1}, out.Find("Bravo").Players)
}

func TestTeamScoresSnapshot(t *testing.T) {
	alive := 2
	scores := TeamScores{
		{Team: "Alpha", Points: 8, Kills: 3, Status: "alive", AliveCount: &alive, Players: map[string]int{"p1": 3}},
	}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	snap := scores.Snapshot(at)

	assert.Equal(t, at, snap.Timestamp)
	require.Len(t, snap.Scores, 1)
	// Снапшот не тащит пер-игровые счётчики и alive_count.
	assert.Equal(t, SnapshotEntry{Team: "Alpha", Points: 8, Kills: 3, Status: "alive"}, snap.Scores[0])
}

func TestEffectiveAliveDefault(t *testing.T) {
	zero := 0
	assert.Equal(t, 4, TeamScore{}.EffectiveAlive())
	assert.Equal(t, 0, TeamScore{AliveCount: &zero}.EffectiveAlive())
}

func TestLiveEventPayloadPointsOr(t *testing.T) {
	two := 2
	assert.Equal(t, 1, LiveEventPayload{}.PointsOr(1))
	assert.Equal(t, 2, LiveEventPayload{Points: &two}.PointsOr(1))
}
