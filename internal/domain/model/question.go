package model

import (
	"time"
)

type QuestionDifficulty string

const (
	DifficultyEasy   QuestionDifficulty = "easy"
	DifficultyMedium QuestionDifficulty = "medium"
	DifficultyHard   QuestionDifficulty = "hard"
)

type Question struct {
	ID          int64              `json:"id"`
	QuestionID  string             `json:"question_id"` // External id, e.g. "E01"
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Difficulty  QuestionDifficulty `json:"difficulty"`
	Points      int                `json:"points"`
	IsActive    bool               `json:"is_active"`
	CreatedAt   time.Time          `json:"created_at"`
}

// TestCase is one hidden (input, expected output) pair.
type TestCase struct {
	Input    string `json:"input" yaml:"input"`
	Expected string `json:"expected" yaml:"expected"`
}
