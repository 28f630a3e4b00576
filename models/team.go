package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Tag       string    `json:"tag" db:"tag"`
	LeaderID  int       `json:"leader_id" db:"leader_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Leader  *User  `json:"leader,omitempty" db:"-"`
	Members []User `json:"members,omitempty" db:"-"`
}
