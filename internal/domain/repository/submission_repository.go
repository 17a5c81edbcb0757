package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"
)

type SubmissionRepository interface {
	ListBySession(ctx context.Context, sessionID int64) ([]model.Submission, error)
	FindBySessionAndQuestion(ctx context.Context, sessionID, questionID int64) (*model.Submission, error)

	// The mutators below report false when the row is locked and nothing changed.
	SaveCode(ctx context.Context, id int64, code string) (bool, error)
	ApplyUpdate(ctx context.Context, id int64, code *string, status *model.SubmissionStatus) (bool, error)
	SetFile(ctx context.Context, id int64, path string) (bool, error)

	// RecordJudgeResult bumps attempts and stores the verdict together with
	// the judged code, only if the row still has expectedAttempts and is
	// unlocked. A correct result locks it.
	RecordJudgeResult(ctx context.Context, id int64, expectedAttempts int, code string, result int, at time.Time) (bool, error)

	// SessionScore sums question points over correct submissions.
	SessionScore(ctx context.Context, sessionID int64) (score, solved int, err error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

const submissionColumns = `id, challenge_session_id, question_id, code_answer, file_path, status, attempts,
	is_correct, is_locked, last_result, last_executed_at, submitted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*model.Submission, error) {
	s := &model.Submission{}
	err := row.Scan(
		&s.ID, &s.ChallengeSessionID, &s.QuestionID, &s.CodeAnswer, &s.FilePath, &s.Status, &s.Attempts,
		&s.IsCorrect, &s.IsLocked, &s.LastResult, &s.LastExecutedAt, &s.SubmittedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *pgSubmissionRepository) ListBySession(ctx context.Context, sessionID int64) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE challenge_session_id = $1 ORDER BY question_id`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListBySession: %w", err)
	}
	defer rows.Close()

	var subs []model.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.ListBySession scan: %w", err)
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

func (r *pgSubmissionRepository) FindBySessionAndQuestion(ctx context.Context, sessionID, questionID int64) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE challenge_session_id = $1 AND question_id = $2`
	s, err := scanSubmission(r.db.QueryRowContext(ctx, query, sessionID, questionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.FindBySessionAndQuestion: %w", err)
	}
	return s, nil
}

func (r *pgSubmissionRepository) SaveCode(ctx context.Context, id int64, code string) (bool, error) {
	query := `UPDATE submissions SET code_answer = $1 WHERE id = $2 AND is_locked = FALSE`
	res, err := r.db.ExecContext(ctx, query, code, id)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.SaveCode: %w", err)
	}
	return affected(res)
}

func (r *pgSubmissionRepository) ApplyUpdate(ctx context.Context, id int64, code *string, status *model.SubmissionStatus) (bool, error) {
	query := `UPDATE submissions
	          SET code_answer = COALESCE($1, code_answer), status = COALESCE($2, status)
	          WHERE id = $3 AND is_locked = FALSE`
	var statusArg *string
	if status != nil {
		s := string(*status)
		statusArg = &s
	}
	res, err := r.db.ExecContext(ctx, query, code, statusArg, id)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.ApplyUpdate: %w", err)
	}
	return affected(res)
}

func (r *pgSubmissionRepository) SetFile(ctx context.Context, id int64, path string) (bool, error) {
	query := `UPDATE submissions SET file_path = $1 WHERE id = $2 AND is_locked = FALSE`
	res, err := r.db.ExecContext(ctx, query, path, id)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.SetFile: %w", err)
	}
	return affected(res)
}

func (r *pgSubmissionRepository) RecordJudgeResult(ctx context.Context, id int64, expectedAttempts int, code string, result int, at time.Time) (bool, error) {
	query := `UPDATE submissions SET
	            attempts = attempts + 1,
	            code_answer = $5,
	            last_result = $1,
	            last_executed_at = $2,
	            is_correct = ($1 = 1),
	            is_locked = ($1 = 1),
	            status = CASE WHEN $1 = 1 THEN 'submitted' ELSE status END,
	            submitted_at = CASE WHEN $1 = 1 THEN $2 ELSE submitted_at END
	          WHERE id = $3 AND attempts = $4 AND is_locked = FALSE`
	res, err := r.db.ExecContext(ctx, query, result, at, id, expectedAttempts, code)
	if err != nil {
		return false, fmt.Errorf("pgSubmissionRepository.RecordJudgeResult: %w", err)
	}
	return affected(res)
}

func (r *pgSubmissionRepository) SessionScore(ctx context.Context, sessionID int64) (int, int, error) {
	query := `SELECT COALESCE(SUM(q.points), 0), COUNT(s.id)
	          FROM submissions s JOIN questions q ON q.id = s.question_id
	          WHERE s.challenge_session_id = $1 AND s.is_correct = TRUE`
	var score, solved int
	if err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&score, &solved); err != nil {
		return 0, 0, fmt.Errorf("pgSubmissionRepository.SessionScore: %w", err)
	}
	return score, solved, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
