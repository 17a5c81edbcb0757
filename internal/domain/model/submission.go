package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// MaxAttempts is the number of judged executions allowed per submission.
const MaxAttempts = 5

type SubmissionStatus string

const (
	StatusNotAttempted SubmissionStatus = "not_attempted"
	StatusSaved        SubmissionStatus = "saved"
	StatusFlagged      SubmissionStatus = "flagged"
	StatusSubmitted    SubmissionStatus = "submitted"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusNotAttempted, StatusSaved, StatusFlagged, StatusSubmitted:
		return true
	}
	return false
}

// Manual reports whether a team may set this status without the judge.
func (s SubmissionStatus) Manual() bool {
	return s == StatusSaved || s == StatusFlagged
}

func (s *SubmissionStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status := SubmissionStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("unknown submission status %q", raw)
	}
	*s = status
	return nil
}

type Submission struct {
	ID                 int64            `json:"id"`
	ChallengeSessionID int64            `json:"challenge_session_id"`
	QuestionID         int64            `json:"question_id"`
	CodeAnswer         *string          `json:"code_answer"`
	FilePath           *string          `json:"file_path"`
	Status             SubmissionStatus `json:"status"`
	Attempts           int              `json:"attempts"`
	IsCorrect          bool             `json:"is_correct"`
	IsLocked           bool             `json:"is_locked"`
	LastResult         *int             `json:"last_result"`
	LastExecutedAt     *time.Time       `json:"last_executed_at"`
	SubmittedAt        *time.Time       `json:"submitted_at"`
}

// SubmissionUpdate is a manual edit to one question of the active session.
// Nil fields are left untouched.
type SubmissionUpdate struct {
	QuestionID int64             `json:"question_id"`
	CodeAnswer *string           `json:"code_answer,omitempty"`
	Status     *SubmissionStatus `json:"status,omitempty"`
}

// ExecutionResult is what an execute call reports back to the team.
type ExecutionResult struct {
	QuestionID int64        `json:"question_id"`
	Result     int          `json:"result"`
	Attempts   int          `json:"attempts"`
	IsCorrect  bool         `json:"is_correct"`
	IsLocked   bool         `json:"is_locked"`
	Details    []CaseReport `json:"details,omitempty"`
}

// CaseReport describes how a single test case went during a local judge run.
type CaseReport struct {
	Case     int    `json:"case"`
	Passed   bool   `json:"passed"`
	Outcome  string `json:"outcome"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Error    string `json:"error,omitempty"`
}

// SubmitSummary counts the session's submissions by final status.
type SubmitSummary struct {
	SessionID        int64 `json:"session_id"`
	TotalSaved       int   `json:"total_saved"`
	TotalFlagged     int   `json:"total_flagged"`
	TotalUnattempted int   `json:"total_unattempted"`
	TotalSubmitted   int   `json:"total_submitted"`
}
