package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"brocode_arena/internal/app/judge"
	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"
	"brocode_arena/internal/domain/repository"
	"brocode_arena/internal/platform/metrics"

	"github.com/gosimple/slug"
	"go.uber.org/zap"
)

type UploadConfig struct {
	Dir               string
	AllowedExtensions []string
}

// SubmissionService gates judged executions and stores uploaded files.
type SubmissionService struct {
	sessions    *SessionService
	questions   repository.QuestionRepository
	submissions repository.SubmissionRepository
	judge       judge.Gateway
	upload      UploadConfig
	clock       func() time.Time
	log         *zap.Logger
}

func NewSubmissionService(
	sessions *SessionService,
	questions repository.QuestionRepository,
	submissions repository.SubmissionRepository,
	gateway judge.Gateway,
	upload UploadConfig,
	log *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		sessions:    sessions,
		questions:   questions,
		submissions: submissions,
		judge:       gateway,
		upload:      upload,
		clock:       sessions.cfg.Clock,
		log:         log,
	}
}

type ExecuteRequest struct {
	CodeAnswer string `json:"code_answer"`
}

type UploadResponse struct {
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
}

// Execute judges code for one question of the team's active session.
//
// Order: locked rows return their cached result, exhausted rows fail with
// ErrAttemptLimitExceeded, otherwise the code is judged and the verdict is
// recorded with a compare-and-set on (attempts, is_locked). Judge errors
// leave the row untouched apart from the saved code. A verdict that arrives
// after the session ended is discarded.
func (s *SubmissionService) Execute(ctx context.Context, teamID, questionID int64, req ExecuteRequest) (*model.ExecutionResult, error) {
	session, err := s.sessions.ActiveSession(ctx, teamID)
	if err != nil {
		return nil, err
	}
	sub, err := s.submissions.FindBySessionAndQuestion(ctx, session.ID, questionID)
	if err != nil {
		return nil, err
	}

	release, err := s.sessions.locker.Acquire(ctx, strconv.FormatInt(sub.ID, 10))
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock; a concurrent execute may have changed it.
	sub, err = s.submissions.FindBySessionAndQuestion(ctx, session.ID, questionID)
	if err != nil {
		return nil, err
	}
	if sub.IsLocked {
		metrics.ExecutionsRejected.WithLabelValues("locked").Inc()
		return cachedResult(sub), nil
	}
	if sub.Attempts >= model.MaxAttempts {
		metrics.ExecutionsRejected.WithLabelValues("attempt_limit").Inc()
		return nil, common.ErrAttemptLimitExceeded
	}

	question, err := s.questions.FindByID(ctx, questionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.submissions.SaveCode(ctx, sub.ID, req.CodeAnswer); err != nil {
		return nil, fmt.Errorf("failed to save code: %w", err)
	}

	verdict, err := s.judge.Judge(ctx, question.QuestionID, req.CodeAnswer)
	if err != nil {
		if errors.Is(err, common.ErrSandboxConfiguration) {
			s.log.Error("sandbox misconfigured, execution aborted",
				zap.Int64("submission_id", sub.ID), zap.Error(err))
		} else {
			s.log.Warn("judge failed, submission left unchanged",
				zap.Int64("submission_id", sub.ID),
				zap.String("backend", s.judge.Name()),
				zap.Error(err))
		}
		return nil, err
	}

	if live, err := s.sessions.ActiveSession(ctx, teamID); err != nil || live.ID != session.ID {
		if err == nil || errors.Is(err, common.ErrNoActiveSession) {
			metrics.ExecutionsRejected.WithLabelValues("session_ended").Inc()
			s.log.Info("verdict discarded, session ended during judging",
				zap.Int64("team_id", teamID),
				zap.Int64("submission_id", sub.ID))
			return nil, common.ErrNoActiveSession
		}
		return nil, err
	}

	applied, err := s.submissions.RecordJudgeResult(ctx, sub.ID, sub.Attempts, req.CodeAnswer, verdict.Result, s.clock().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to record judge result: %w", err)
	}
	current, err := s.submissions.FindBySessionAndQuestion(ctx, session.ID, questionID)
	if err != nil {
		return nil, err
	}
	if !applied {
		if current.IsLocked {
			return cachedResult(current), nil
		}
		return nil, fmt.Errorf("submission %d changed during execution: %w", sub.ID, common.ErrConflict)
	}

	s.log.Info("submission judged",
		zap.Int64("team_id", teamID),
		zap.Int64("submission_id", sub.ID),
		zap.String("question", question.QuestionID),
		zap.Int("result", verdict.Result),
		zap.Int("attempts", current.Attempts))

	res := &model.ExecutionResult{
		QuestionID: questionID,
		Result:     verdict.Result,
		Attempts:   current.Attempts,
		IsCorrect:  current.IsCorrect,
		IsLocked:   current.IsLocked,
	}
	if !verdict.Correct() {
		res.Details = verdict.Cases
	}
	return res, nil
}

func cachedResult(sub *model.Submission) *model.ExecutionResult {
	result := 1
	if sub.LastResult != nil {
		result = *sub.LastResult
	}
	return &model.ExecutionResult{
		QuestionID: sub.QuestionID,
		Result:     result,
		Attempts:   sub.Attempts,
		IsCorrect:  sub.IsCorrect,
		IsLocked:   sub.IsLocked,
	}
}

// Upload stores a solution file for the question and records its path on
// the submission.
func (s *SubmissionService) Upload(ctx context.Context, teamID int64, leaderID string, questionID int64, filename string, content io.Reader) (*UploadResponse, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !s.extensionAllowed(ext) {
		return nil, fmt.Errorf("%q: %w", ext, common.ErrInvalidFileExtension)
	}

	session, err := s.sessions.ActiveSession(ctx, teamID)
	if err != nil {
		return nil, err
	}
	sub, err := s.submissions.FindBySessionAndQuestion(ctx, session.ID, questionID)
	if err != nil {
		return nil, err
	}
	if sub.IsLocked {
		return nil, fmt.Errorf("submission %d is locked: %w", sub.ID, common.ErrConflict)
	}

	if err := os.MkdirAll(s.upload.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	name := fmt.Sprintf("%s_%d_%s%s",
		slug.Make(leaderID), questionID, s.clock().UTC().Format("20060102_150405"), ext)
	path := filepath.Join(s.upload.Dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close upload file: %w", err)
	}

	stored, err := s.submissions.SetFile(ctx, sub.ID, path)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to record upload: %w", err)
	}
	if !stored {
		os.Remove(path)
		return nil, fmt.Errorf("submission %d is locked: %w", sub.ID, common.ErrConflict)
	}
	s.log.Info("solution file uploaded",
		zap.Int64("team_id", teamID),
		zap.Int64("question_id", questionID),
		zap.String("path", path))
	return &UploadResponse{Message: "File uploaded successfully", FilePath: path}, nil
}

func (s *SubmissionService) extensionAllowed(ext string) bool {
	for _, allowed := range s.upload.AllowedExtensions {
		if strings.EqualFold(ext, allowed) {
			return true
		}
	}
	return false
}
