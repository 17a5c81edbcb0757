package service

import (
	"context"
	"fmt"

	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"
	"brocode_arena/internal/domain/repository"
)

// QuestionService serves the read-only question catalog to participants.
type QuestionService struct {
	questions repository.QuestionRepository
	limit     int
}

func NewQuestionService(questions repository.QuestionRepository, limit int) *QuestionService {
	return &QuestionService{questions: questions, limit: limit}
}

func (s *QuestionService) ListActive(ctx context.Context) ([]model.Question, error) {
	qs, err := s.questions.ListActive(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return qs, nil
}

// Get returns an active question. Inactive ones are reported as not found.
func (s *QuestionService) Get(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.questions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.IsActive {
		return nil, common.ErrQuestionNotFound
	}
	return q, nil
}
