package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// UserRole представляет роль пользователя, соответствующую ENUM в БД.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RolePlayer UserRole = "player"
)

type User struct {
	ID           int         `json:"id" db:"id"`
	Username     string      `json:"username" db:"username"`
	DisplayName  string      `json:"display_name" db:"display_name"`
	Email        string      `json:"email" db:"email"`
	PasswordHash string      `json:"-" db:"password_hash"`
	Role         UserRole    `json:"role" db:"role"`
	TeamID       *int        `json:"team_id,omitempty" db:"team_id"`
	Stats        PlayerStats `json:"stats" db:"stats"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PlayerStats — денормализованный агрегат на записи пользователя.
// Мутируется только через верификацию результатов, ровно один раз на результат.
type PlayerStats struct {
	TotalKills   int     `json:"total_kills"`
	TotalMatches int     `json:"total_matches"`
	TotalWins    int     `json:"total_wins"`
	KDRatio      float64 `json:"kd_ratio"`
	WinRate      float64 `json:"win_rate"`
}

// ApplyVerifiedResult records one verified match outcome: kills attributed to
// this player (0 if unattributed) and whether the team placed first.
// Ratios are recomputed from the updated totals.
func (s *PlayerStats) ApplyVerifiedResult(kills int, won bool) {
	s.TotalMatches++
	s.TotalKills += kills
	if won {
		s.TotalWins++
	}
	denom := s.TotalMatches
	if denom < 1 {
		denom = 1
	}
	s.KDRatio = math.Round(float64(s.TotalKills)/float64(denom)*100) / 100
	s.WinRate = math.Round(float64(s.TotalWins)/float64(denom)*100*10) / 10
}

func (s PlayerStats) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *PlayerStats) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = PlayerStats{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported type %T for PlayerStats", src)
	}
}
