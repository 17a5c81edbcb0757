package model

import (
	"fmt"
	"time"
)

type ChallengeSession struct {
	ID                   int64      `json:"id"`
	TeamID               int64      `json:"team_id"`
	StartedAt            time.Time  `json:"started_at"`
	EndedAt              *time.Time `json:"ended_at"`
	IsActive             bool       `json:"is_active"`
	TotalQuestions       int        `json:"total_questions"`
	TimeRemainingSeconds int        `json:"time_remaining_seconds"`
}

// RemainingAt is max(0, duration - elapsed) measured at now.
func (s *ChallengeSession) RemainingAt(now time.Time, duration time.Duration) int {
	left := duration - now.Sub(s.StartedAt)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// ExecutionMode controls which eligibility checks the session manager enforces.
type ExecutionMode string

const (
	ModeStrict ExecutionMode = "strict"
	ModeDebug  ExecutionMode = "debug"
)

func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch ExecutionMode(s) {
	case ModeStrict, "":
		return ModeStrict, nil
	case ModeDebug:
		return ModeDebug, nil
	}
	return "", fmt.Errorf("unknown execution mode %q", s)
}
