package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// RegistrationStatus представляет статусы заявки команды на турнир.
type RegistrationStatus string

const (
	RegistrationStatusPending  RegistrationStatus = "pending"
	RegistrationStatusApproved RegistrationStatus = "approved"
	RegistrationStatusRejected RegistrationStatus = "rejected"
)

// RosterEntry — один участник в зафиксированном составе.
type RosterEntry struct {
	UserID      int    `json:"user_id"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
}

// RosterSnapshot — состав команды, зафиксированный в момент подачи заявки.
// Последующие изменения состава команды на него не влияют.
type RosterSnapshot []RosterEntry

func (r RosterSnapshot) Value() (driver.Value, error) {
	if r == nil {
		r = RosterSnapshot{}
	}
	return json.Marshal(r)
}

func (r *RosterSnapshot) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = RosterSnapshot{}
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported type %T for RosterSnapshot", src)
	}
}

// UserIDs returns the ids of everyone locked into the snapshot.
func (r RosterSnapshot) UserIDs() []int {
	ids := make([]int, 0, len(r))
	for _, entry := range r {
		ids = append(ids, entry.UserID)
	}
	return ids
}

type Registration struct {
	ID            int                `json:"id" db:"id"`
	TournamentID  int                `json:"tournament_id" db:"tournament_id"`
	TeamID        int                `json:"team_id" db:"team_id"`
	Roster        RosterSnapshot     `json:"roster_snapshot" db:"roster_snapshot"`
	Status        RegistrationStatus `json:"status" db:"status"`
	TransactionID string             `json:"transaction_id" db:"transaction_id"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
