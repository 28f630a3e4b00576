package models

import "time"

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusLive      MatchStatus = "live"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusScored    MatchStatus = "scored"
)

type Match struct {
	ID           int          `json:"id" db:"id"`
	TournamentID int          `json:"tournament_id" db:"tournament_id"`
	Round        int          `json:"round" db:"round"`
	ScheduledAt  time.Time    `json:"scheduled_at" db:"scheduled_at"`
	Status       MatchStatus  `json:"status" db:"status"`
	RoomID       *string      `json:"room_id,omitempty" db:"room_id"`
	RoomPassword *string      `json:"room_password,omitempty" db:"room_password"`
	Scores       TeamScores   `json:"current_scores" db:"current_scores"`
	History      ScoreHistory `json:"score_history" db:"score_history"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
}

// Finalized reports whether the match no longer expects play or scoring input.
func (m Match) Finalized() bool {
	return m.Status == MatchStatusCompleted || m.Status == MatchStatusScored
}

// RedactRoomCredentials strips lobby credentials before the match is exposed
// to anyone outside an approved roster.
func (m *Match) RedactRoomCredentials() {
	m.RoomID = nil
	m.RoomPassword = nil
}
