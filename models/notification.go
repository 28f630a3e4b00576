package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type NotificationMeta map[string]interface{}

func (m NotificationMeta) Value() (driver.Value, error) {
	if m == nil {
		m = NotificationMeta{}
	}
	return json.Marshal(m)
}

func (m *NotificationMeta) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = NotificationMeta{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported type %T for NotificationMeta", src)
	}
}

type Notification struct {
	ID        int              `json:"id" db:"id"`
	UserID    int              `json:"user_id" db:"user_id"`
	Type      string           `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	Meta      NotificationMeta `json:"meta,omitempty" db:"meta"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
