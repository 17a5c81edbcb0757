package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"
	"brocode_arena/internal/domain/repository"
	"brocode_arena/internal/platform/metrics"

	"go.uber.org/zap"
)

type SessionConfig struct {
	Duration     time.Duration
	MaxQuestions int
	Mode         model.ExecutionMode
	Clock        func() time.Time // defaults to time.Now
}

// SessionService owns the challenge session lifecycle. Expiry is lazy: every
// lookup of the active session collapses it once its time is up.
type SessionService struct {
	teams       repository.TeamRepository
	questions   repository.QuestionRepository
	sessions    repository.SessionRepository
	submissions repository.SubmissionRepository
	locker      ExecutionLocker
	cfg         SessionConfig
	log         *zap.Logger
}

func NewSessionService(
	teams repository.TeamRepository,
	questions repository.QuestionRepository,
	sessions repository.SessionRepository,
	submissions repository.SubmissionRepository,
	locker ExecutionLocker,
	cfg SessionConfig,
	log *zap.Logger,
) *SessionService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	if cfg.Mode == "" {
		cfg.Mode = model.ModeStrict
	}
	return &SessionService{
		teams:       teams,
		questions:   questions,
		sessions:    sessions,
		submissions: submissions,
		locker:      locker,
		cfg:         cfg,
		log:         log,
	}
}

type StartResponse struct {
	Session   *model.ChallengeSession `json:"session"`
	Questions []model.Question        `json:"questions"`
}

type StatusResponse struct {
	Session              *model.ChallengeSession `json:"session"`
	Submissions          []model.Submission      `json:"submissions"`
	TimeRemainingSeconds int                     `json:"time_remaining_seconds"`
}

type SubmitRequest struct {
	Submissions []model.SubmissionUpdate `json:"submissions"`
}

func (s *SessionService) now() time.Time {
	return s.cfg.Clock().UTC()
}

// Start opens a new session for the team with one not_attempted submission
// per active question.
func (s *SessionService) Start(ctx context.Context, teamID int64) (*StartResponse, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to load team: %w", err)
	}
	if s.cfg.Mode == model.ModeStrict && !team.IsActive {
		return nil, fmt.Errorf("team %d is disabled: %w", teamID, common.ErrForbidden)
	}

	// An expired session still flagged active must not block a new one.
	if _, err := s.ActiveSession(ctx, teamID); err == nil {
		return nil, common.ErrSessionAlreadyActive
	} else if !errors.Is(err, common.ErrNoActiveSession) {
		return nil, err
	}

	questions, err := s.questions.ListActive(ctx, s.cfg.MaxQuestions)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	session := &model.ChallengeSession{
		TeamID:               teamID,
		StartedAt:            s.now(),
		TimeRemainingSeconds: int(s.cfg.Duration / time.Second),
	}
	if err := s.sessions.Start(ctx, session, ids); err != nil {
		if errors.Is(err, common.ErrSessionAlreadyActive) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	metrics.SessionsStarted.Inc()
	s.log.Info("challenge session started",
		zap.Int64("team_id", teamID),
		zap.Int64("session_id", session.ID),
		zap.Int("questions", session.TotalQuestions))
	return &StartResponse{Session: session, Questions: questions}, nil
}

// ActiveSession returns the team's live session. A session whose time has
// run out is deactivated and reported as ErrNoActiveSession.
func (s *SessionService) ActiveSession(ctx context.Context, teamID int64) (*model.ChallengeSession, error) {
	session, err := s.sessions.FindActiveByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if s.remaining(session) == 0 {
		if err := s.expire(ctx, session); err != nil {
			return nil, err
		}
		return nil, common.ErrNoActiveSession
	}
	return session, nil
}

// Status refreshes the remaining time and returns the session with its
// submissions. A session that ran out of time is still reported, with zero
// remaining, until the team starts a new one.
func (s *SessionService) Status(ctx context.Context, teamID int64) (*StatusResponse, error) {
	session, err := s.sessions.FindActiveByTeam(ctx, teamID)
	if errors.Is(err, common.ErrNoActiveSession) {
		return s.expiredStatus(ctx, teamID)
	}
	if err != nil {
		return nil, err
	}

	remaining := s.remaining(session)
	if err := s.sessions.UpdateTimeRemaining(ctx, session.ID, remaining); err != nil {
		return nil, fmt.Errorf("failed to update remaining time: %w", err)
	}
	session.TimeRemainingSeconds = remaining
	if remaining == 0 {
		if err := s.expire(ctx, session); err != nil {
			return nil, err
		}
	}

	subs, err := s.submissions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return &StatusResponse{
		Session:              session,
		Submissions:          subs,
		TimeRemainingSeconds: remaining,
	}, nil
}

// expiredStatus reports the team's latest session when it ended by running
// out of time. Submitted sessions keep their remaining time and stay hidden.
func (s *SessionService) expiredStatus(ctx context.Context, teamID int64) (*StatusResponse, error) {
	latest, err := s.sessions.FindLatestByTeam(ctx, teamID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to load latest session: %w", err)
	}
	if latest.IsActive || latest.TimeRemainingSeconds > 0 {
		return nil, common.ErrNoActiveSession
	}
	subs, err := s.submissions.ListBySession(ctx, latest.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return &StatusResponse{Session: latest, Submissions: subs}, nil
}

// Submit applies the final manual edits, closes the session and counts the
// submissions by status.
func (s *SessionService) Submit(ctx context.Context, teamID int64, req SubmitRequest) (*model.SubmitSummary, error) {
	for _, u := range req.Submissions {
		if err := validateUpdate(u); err != nil {
			return nil, err
		}
	}

	session, err := s.ActiveSession(ctx, teamID)
	if err != nil {
		return nil, err
	}

	for _, u := range req.Submissions {
		sub, err := s.submissions.FindBySessionAndQuestion(ctx, session.ID, u.QuestionID)
		if err != nil {
			if errors.Is(err, common.ErrSubmissionNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load submission: %w", err)
		}
		if err := s.applyLocked(ctx, sub.ID, u); err != nil {
			return nil, err
		}
	}

	if err := s.sessions.End(ctx, session.ID, s.now()); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	metrics.SessionsEnded.WithLabelValues("submitted").Inc()

	subs, err := s.submissions.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	summary := &model.SubmitSummary{SessionID: session.ID}
	for _, sub := range subs {
		switch sub.Status {
		case model.StatusSaved:
			summary.TotalSaved++
		case model.StatusFlagged:
			summary.TotalFlagged++
		case model.StatusNotAttempted:
			summary.TotalUnattempted++
		case model.StatusSubmitted:
			summary.TotalSubmitted++
		}
	}

	s.log.Info("challenge submitted",
		zap.Int64("team_id", teamID),
		zap.Int64("session_id", session.ID),
		zap.Int("submitted", summary.TotalSubmitted))
	return summary, nil
}

// UpdateSubmission applies a manual code/status edit. Locked submissions are
// left as they are without an error.
func (s *SessionService) UpdateSubmission(ctx context.Context, teamID int64, u model.SubmissionUpdate) (*model.Submission, error) {
	if err := validateUpdate(u); err != nil {
		return nil, err
	}
	session, err := s.ActiveSession(ctx, teamID)
	if err != nil {
		return nil, err
	}
	sub, err := s.submissions.FindBySessionAndQuestion(ctx, session.ID, u.QuestionID)
	if err != nil {
		return nil, err
	}
	if err := s.applyLocked(ctx, sub.ID, u); err != nil {
		return nil, err
	}
	return s.submissions.FindBySessionAndQuestion(ctx, session.ID, u.QuestionID)
}

// applyLocked writes a manual edit under the same per-submission lock that
// Execute holds, so an edit never lands between judging and recording.
func (s *SessionService) applyLocked(ctx context.Context, submissionID int64, u model.SubmissionUpdate) error {
	release, err := s.locker.Acquire(ctx, strconv.FormatInt(submissionID, 10))
	if err != nil {
		return err
	}
	defer release()

	if _, err := s.submissions.ApplyUpdate(ctx, submissionID, u.CodeAnswer, u.Status); err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	return nil
}

func (s *SessionService) remaining(session *model.ChallengeSession) int {
	left := session.RemainingAt(s.now(), s.cfg.Duration)
	if left > session.TimeRemainingSeconds {
		left = session.TimeRemainingSeconds
	}
	return left
}

func (s *SessionService) expire(ctx context.Context, session *model.ChallengeSession) error {
	now := s.now()
	if err := s.sessions.UpdateTimeRemaining(ctx, session.ID, 0); err != nil {
		return fmt.Errorf("failed to zero remaining time: %w", err)
	}
	if err := s.sessions.End(ctx, session.ID, now); err != nil {
		return fmt.Errorf("failed to expire session: %w", err)
	}
	session.IsActive = false
	session.TimeRemainingSeconds = 0
	if session.EndedAt == nil {
		session.EndedAt = &now
	}
	metrics.SessionsEnded.WithLabelValues("expired").Inc()
	s.log.Info("challenge session expired",
		zap.Int64("team_id", session.TeamID),
		zap.Int64("session_id", session.ID))
	return nil
}

func validateUpdate(u model.SubmissionUpdate) error {
	if u.Status != nil && !u.Status.Manual() {
		return fmt.Errorf("status %q cannot be set manually: %w", *u.Status, common.ErrValidation)
	}
	return nil
}
