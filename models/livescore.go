package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// LiveEventType — тип live-события матча, присылаемого оператором.
type LiveEventType string

const (
	LiveEventTicker     LiveEventType = "ticker"
	LiveEventScore      LiveEventType = "score"
	LiveEventStatus     LiveEventType = "status"
	LiveEventPlayerKill LiveEventType = "player_kill"
	LiveEventAliveCount LiveEventType = "alive_count"
)

// defaultAliveCount is assumed for a squad whose alive count was never tracked.
const defaultAliveCount = 4

// TeamScore — накопительное состояние одной команды в живом матче.
type TeamScore struct {
	Team       string         `json:"team"`
	Points     int            `json:"points"`
	Kills      int            `json:"kills"`
	Status     string         `json:"status"`
	AliveCount *int           `json:"alive_count,omitempty"`
	Players    map[string]int `json:"players,omitempty"`
}

// EffectiveAlive returns the tracked alive count or the 4-man default.
func (t TeamScore) EffectiveAlive() int {
	if t.AliveCount == nil {
		return defaultAliveCount
	}
	return *t.AliveCount
}

// TeamScores is the full current_scores column: at most one entry per team
// name, each entry keeping at most one counter per player name.
type TeamScores []TeamScore

// Find returns a pointer into the slice for the named team, or nil.
func (s TeamScores) Find(team string) *TeamScore {
	for i := range s {
		if s[i].Team == team {
			return &s[i]
		}
	}
	return nil
}

// Ensure returns the entry for the named team, seeding a fresh one
// (0 points, 0 kills, alive, 4 presumed alive) when absent.
func (s *TeamScores) Ensure(team string) *TeamScore {
	if existing := s.Find(team); existing != nil {
		return existing
	}
	alive := defaultAliveCount
	*s = append(*s, TeamScore{
		Team:       team,
		Status:     "alive",
		AliveCount: &alive,
		Players:    map[string]int{},
	})
	return &(*s)[len(*s)-1]
}

// Normalize repairs shapes read back from storage: nil player maps become
// empty and duplicate team entries collapse into the first occurrence.
func (s TeamScores) Normalize() TeamScores {
	out := make(TeamScores, 0, len(s))
	for _, ts := range s {
		if existing := out.Find(ts.Team); existing != nil {
			continue
		}
		if ts.Players == nil {
			ts.Players = map[string]int{}
		}
		out = append(out, ts)
	}
	return out
}

func (s TeamScores) Value() (driver.Value, error) {
	if s == nil {
		s = TeamScores{}
	}
	return json.Marshal(s)
}

func (s *TeamScores) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = TeamScores{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type %T for TeamScores", src)
	}
}

// SnapshotEntry — урезанная запись по команде внутри снапшота истории.
type SnapshotEntry struct {
	Team   string `json:"team"`
	Points int    `json:"points"`
	Kills  int    `json:"kills"`
	Status string `json:"status"`
}

// ScoreSnapshot is appended to score_history after every mutating event.
// The history is append-only and consumed as an audit trail.
type ScoreSnapshot struct {
	Timestamp time.Time       `json:"timestamp"`
	Scores    []SnapshotEntry `json:"scores"`
}

// Snapshot trims the current scores down to the audit-trail shape.
func (s TeamScores) Snapshot(at time.Time) ScoreSnapshot {
	entries := make([]SnapshotEntry, 0, len(s))
	for _, ts := range s {
		entries = append(entries, SnapshotEntry{
			Team:   ts.Team,
			Points: ts.Points,
			Kills:  ts.Kills,
			Status: ts.Status,
		})
	}
	return ScoreSnapshot{Timestamp: at, Scores: entries}
}

type ScoreHistory []ScoreSnapshot

func (h ScoreHistory) Value() (driver.Value, error) {
	if h == nil {
		h = ScoreHistory{}
	}
	return json.Marshal(h)
}

func (h *ScoreHistory) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*h = ScoreHistory{}
		return nil
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return fmt.Errorf("unsupported type %T for ScoreHistory", src)
	}
}

// LiveEventPayload — тело live-события. Points имеет разные значения по
// умолчанию в зависимости от типа события (0 для score, 1 для player_kill).
type LiveEventPayload struct {
	Team       string `json:"team,omitempty"`
	Player     string `json:"player,omitempty"`
	Points     *int   `json:"points,omitempty"`
	Status     string `json:"status,omitempty"`
	AliveCount *int   `json:"alive_count,omitempty"`
	Message    string `json:"message,omitempty"`
}

// PointsOr returns the payload points or the event-specific default.
func (p LiveEventPayload) PointsOr(def int) int {
	if p.Points == nil {
		return def
	}
	return *p.Points
}

// MVPPrediction — лидер по киллам на текущий момент.
type MVPPrediction struct {
	Name  string `json:"name"`
	Team  string `json:"team"`
	Kills int    `json:"kills"`
}

// MatchAnalytics — производная аналитика, пересчитываемая из current_scores.
type MatchAnalytics struct {
	WinProbability map[string]string `json:"winProbability"`
	MVPPrediction  *MVPPrediction    `json:"mvpPrediction"`
}
