package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"
)

type QuestionRepository interface {
	// ListActive returns up to limit active questions ordered by id.
	ListActive(ctx context.Context, limit int) ([]model.Question, error)
	FindByID(ctx context.Context, id int64) (*model.Question, error)
}

type pgQuestionRepository struct {
	db *sql.DB
}

func NewPgQuestionRepository(db *sql.DB) QuestionRepository {
	return &pgQuestionRepository{db: db}
}

const questionColumns = `id, question_id, title, description, difficulty, points, is_active, created_at`

func (r *pgQuestionRepository) ListActive(ctx context.Context, limit int) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE is_active = TRUE ORDER BY id LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("pgQuestionRepository.ListActive: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.QuestionID, &q.Title, &q.Description, &q.Difficulty, &q.Points, &q.IsActive, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgQuestionRepository.ListActive scan: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *pgQuestionRepository) FindByID(ctx context.Context, id int64) (*model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	q := &model.Question{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&q.ID, &q.QuestionID, &q.Title, &q.Description, &q.Difficulty, &q.Points, &q.IsActive, &q.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrQuestionNotFound
		}
		return nil, fmt.Errorf("pgQuestionRepository.FindByID: %w", err)
	}
	return q, nil
}
