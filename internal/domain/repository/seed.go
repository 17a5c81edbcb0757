package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"brocode_arena/internal/common/security"
	"brocode_arena/internal/domain/model"

	"gopkg.in/yaml.v3"
)

// Seed is the bootstrap roster: teams with plaintext passwords and the
// question catalog metadata.
type Seed struct {
	Teams []struct {
		LeaderID string `yaml:"team_leader_id"`
		Name     string `yaml:"team_name"`
		Password string `yaml:"password"`
		Active   *bool  `yaml:"is_active"`
	} `yaml:"teams"`
	Questions []struct {
		QuestionID  string `yaml:"question_id"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Difficulty  string `yaml:"difficulty"`
		Points      int    `yaml:"points"`
		Active      *bool  `yaml:"is_active"`
	} `yaml:"questions"`
}

func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

func (s *Seed) teams() ([]model.Team, error) {
	teams := make([]model.Team, 0, len(s.Teams))
	for i, t := range s.Teams {
		hash, err := security.HashPassword(t.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", t.LeaderID, err)
		}
		teams = append(teams, model.Team{
			ID:           int64(i + 1),
			LeaderID:     strings.ToUpper(strings.TrimSpace(t.LeaderID)),
			Name:         t.Name,
			PasswordHash: hash,
			IsActive:     t.Active == nil || *t.Active,
		})
	}
	return teams, nil
}

func (s *Seed) questions() []model.Question {
	qs := make([]model.Question, 0, len(s.Questions))
	for i, q := range s.Questions {
		difficulty := model.QuestionDifficulty(strings.ToLower(q.Difficulty))
		if difficulty == "" {
			difficulty = model.DifficultyEasy
		}
		qs = append(qs, model.Question{
			ID:          int64(i + 1),
			QuestionID:  strings.ToUpper(q.QuestionID),
			Title:       q.Title,
			Description: q.Description,
			Difficulty:  difficulty,
			Points:      q.Points,
			IsActive:    q.Active == nil || *q.Active,
		})
	}
	return qs
}

// ApplySeed loads the roster into the in-memory store.
func (m *MemoryStore) ApplySeed(seed *Seed) error {
	teams, err := seed.teams()
	if err != nil {
		return err
	}
	for _, t := range teams {
		m.AddTeam(t)
	}
	for _, q := range seed.questions() {
		m.AddQuestion(q)
	}
	return nil
}

// SeedPostgres inserts the roster, leaving rows that already exist alone.
func SeedPostgres(ctx context.Context, db *sql.DB, seed *Seed) error {
	teams, err := seed.teams()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	for _, t := range teams {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO teams (team_leader_id, team_name, password_hash, is_active)
			 VALUES ($1, $2, $3, $4) ON CONFLICT (team_leader_id) DO NOTHING`,
			t.LeaderID, t.Name, t.PasswordHash, t.IsActive)
		if err != nil {
			return fmt.Errorf("seed team %s: %w", t.LeaderID, err)
		}
	}
	for _, q := range seed.questions() {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO questions (question_id, title, description, difficulty, points, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (question_id) DO NOTHING`,
			q.QuestionID, q.Title, q.Description, q.Difficulty, q.Points, q.IsActive)
		if err != nil {
			return fmt.Errorf("seed question %s: %w", q.QuestionID, err)
		}
	}
	return tx.Commit()
}
