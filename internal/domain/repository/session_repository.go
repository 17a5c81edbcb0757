package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type SessionRepository interface {
	// Start inserts the session and one not_attempted submission per question
	// atomically. It fills in session.ID and session.TotalQuestions.
	Start(ctx context.Context, session *model.ChallengeSession, questionIDs []int64) error
	FindActiveByTeam(ctx context.Context, teamID int64) (*model.ChallengeSession, error)
	FindLatestByTeam(ctx context.Context, teamID int64) (*model.ChallengeSession, error)
	// UpdateTimeRemaining never raises the stored value.
	UpdateTimeRemaining(ctx context.Context, id int64, remaining int) error
	// End deactivates the session. ended_at keeps its first value.
	End(ctx context.Context, id int64, at time.Time) error
}

type pgSessionRepository struct {
	db *sql.DB
}

func NewPgSessionRepository(db *sql.DB) SessionRepository {
	return &pgSessionRepository{db: db}
}

const sessionColumns = `id, team_id, started_at, ended_at, is_active, total_questions, time_remaining_seconds`

func (r *pgSessionRepository) Start(ctx context.Context, s *model.ChallengeSession, questionIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgSessionRepository.Start begin: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO challenge_sessions (team_id, started_at, is_active, total_questions, time_remaining_seconds)
	          VALUES ($1, $2, TRUE, $3, $4) RETURNING id`
	err = tx.QueryRowContext(ctx, query, s.TeamID, s.StartedAt, len(questionIDs), s.TimeRemainingSeconds).Scan(&s.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // uniq_active_session_per_team
			return common.ErrSessionAlreadyActive
		}
		return fmt.Errorf("pgSessionRepository.Start insert session: %w", err)
	}

	insertSub := `INSERT INTO submissions (challenge_session_id, question_id, status, attempts, is_correct, is_locked)
	              VALUES ($1, $2, $3, 0, FALSE, FALSE)`
	for _, qid := range questionIDs {
		if _, err := tx.ExecContext(ctx, insertSub, s.ID, qid, model.StatusNotAttempted); err != nil {
			return fmt.Errorf("pgSessionRepository.Start insert submission for question %d: %w", qid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgSessionRepository.Start commit: %w", err)
	}
	s.IsActive = true
	s.TotalQuestions = len(questionIDs)
	return nil
}

func (r *pgSessionRepository) FindActiveByTeam(ctx context.Context, teamID int64) (*model.ChallengeSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM challenge_sessions WHERE team_id = $1 AND is_active = TRUE`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, teamID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNoActiveSession
		}
		return nil, fmt.Errorf("pgSessionRepository.FindActiveByTeam: %w", err)
	}
	return s, nil
}

func (r *pgSessionRepository) FindLatestByTeam(ctx context.Context, teamID int64) (*model.ChallengeSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM challenge_sessions WHERE team_id = $1 ORDER BY id DESC LIMIT 1`
	s, err := scanSession(r.db.QueryRowContext(ctx, query, teamID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSessionRepository.FindLatestByTeam: %w", err)
	}
	return s, nil
}

func (r *pgSessionRepository) UpdateTimeRemaining(ctx context.Context, id int64, remaining int) error {
	query := `UPDATE challenge_sessions SET time_remaining_seconds = LEAST(time_remaining_seconds, $1) WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, remaining, id); err != nil {
		return fmt.Errorf("pgSessionRepository.UpdateTimeRemaining: %w", err)
	}
	return nil
}

func (r *pgSessionRepository) End(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE challenge_sessions SET is_active = FALSE, ended_at = COALESCE(ended_at, $1) WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("pgSessionRepository.End: %w", err)
	}
	return nil
}

func scanSession(row *sql.Row) (*model.ChallengeSession, error) {
	s := &model.ChallengeSession{}
	err := row.Scan(&s.ID, &s.TeamID, &s.StartedAt, &s.EndedAt, &s.IsActive, &s.TotalQuestions, &s.TimeRemainingSeconds)
	if err != nil {
		return nil, err
	}
	return s, nil
}
