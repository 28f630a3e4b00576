package models

import "time"

type DisputeStatus string

const (
	DisputeStatusOpen      DisputeStatus = "open"
	DisputeStatusResolved  DisputeStatus = "resolved"
	DisputeStatusDismissed DisputeStatus = "dismissed"
)

// Dispute — претензия игрока к результату. Разрешение претензии уведомляет
// подателя, но само по себе статистику не меняет.
type Dispute struct {
	ID         int           `json:"id" db:"id"`
	ResultID   int           `json:"result_id" db:"result_id"`
	UserID     int           `json:"user_id" db:"user_id"`
	Reason     string        `json:"reason" db:"reason"`
	Status     DisputeStatus `json:"status" db:"status"`
	Resolution *string       `json:"resolution,omitempty" db:"resolution"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
}
