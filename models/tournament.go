package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	TournamentStatusOpen      TournamentStatus = "open"
	TournamentStatusCompleted TournamentStatus = "completed"
)

// ScoringParams — турнирные параметры подсчёта очков.
// PlacementPoints отображает занятое место в очки; KillPoints — вес одного килла.
type ScoringParams struct {
	KillPoints      int         `json:"kill_points"`
	PlacementPoints map[int]int `json:"placement_points"`
}

// KillWeight returns the per-kill point weight, defaulting to 1 when the
// tournament never configured one.
func (p ScoringParams) KillWeight() int {
	if p.KillPoints == 0 {
		return 1
	}
	return p.KillPoints
}

// PlacementPointsFor looks up points for a final placement. Placements outside
// the configured table fall back to a default 12-slot curve: max(0, 13-p).
func (p ScoringParams) PlacementPointsFor(placement int) int {
	if pts, ok := p.PlacementPoints[placement]; ok {
		return pts
	}
	if pts := 13 - placement; pts > 0 {
		return pts
	}
	return 0
}

func (p ScoringParams) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ScoringParams) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = ScoringParams{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported type %T for ScoringParams", src)
	}
}

type Tournament struct {
	ID            int              `json:"id" db:"id"`
	Title         string           `json:"title" db:"title"`
	Description   *string          `json:"description,omitempty" db:"description"`
	Game          string           `json:"game" db:"game"`
	ScoringParams ScoringParams    `json:"scoring_params" db:"scoring_params"`
	MaxTeams      int              `json:"max_teams" db:"max_teams"`
	Status        TournamentStatus `json:"status" db:"status"`
	CreatedBy     int              `json:"created_by" db:"created_by"`
	StartDate     time.Time        `json:"start_date" db:"start_date"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Registrations []Registration `json:"registrations,omitempty" db:"-"`
	Matches       []Match        `json:"matches,omitempty" db:"-"`
}
