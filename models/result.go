package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PlayerResults attributes individual kill counts by user id. Kills missing
// from the breakdown are not distributed to anyone's lifetime stats.
type PlayerResults map[int]int

func (p PlayerResults) Value() (driver.Value, error) {
	if p == nil {
		p = PlayerResults{}
	}
	return json.Marshal(p)
}

func (p *PlayerResults) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = PlayerResults{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("unsupported type %T for PlayerResults", src)
	}
}

// MatchResult — один результат на пару (матч, команда). После верификации
// админом запись становится неизменяемой; повторная верификация отклоняется.
type MatchResult struct {
	ID            int           `json:"id" db:"id"`
	MatchID       int           `json:"match_id" db:"match_id"`
	TeamID        int           `json:"team_id" db:"team_id"`
	Kills         int           `json:"kills" db:"kills"`
	Placement     int           `json:"placement" db:"placement"`
	TotalPoints   int           `json:"total_points" db:"total_points"`
	ScreenshotURL *string       `json:"screenshot_url,omitempty" db:"screenshot_url"`
	PlayerResults PlayerResults `json:"player_results,omitempty" db:"player_results"`
	SubmittedBy   int           `json:"submitted_by" db:"submitted_by"`
	IsVerified    bool          `json:"is_verified" db:"is_verified"`
	VerifiedBy    *int          `json:"verified_by,omitempty" db:"verified_by"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}
