package model

import (
	"time"
)

type Team struct {
	ID           int64     `json:"id"`
	LeaderID     string    `json:"team_leader_id"`
	Name         string    `json:"team_name"`
	PasswordHash string    `json:"-"` // Not exposed
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
