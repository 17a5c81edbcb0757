package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"brocode_arena/internal/app/judge"
	"brocode_arena/internal/common"
	"brocode_arena/internal/common/security"
	"brocode_arena/internal/domain/model"
	"brocode_arena/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeJudge struct {
	result atomic.Int32
	err    error
	calls  atomic.Int32
	cases  []model.CaseReport
	during func() // runs while the verdict is being computed
}

func (f *fakeJudge) Name() string { return "fake" }

func (f *fakeJudge) Judge(_ context.Context, _, _ string) (judge.Verdict, error) {
	f.calls.Add(1)
	if f.during != nil {
		f.during()
	}
	if f.err != nil {
		return judge.Verdict{}, f.err
	}
	return judge.Verdict{Result: int(f.result.Load()), Cases: f.cases}, nil
}

const (
	activeTeam   int64 = 1
	disabledTeam int64 = 2
)

type fixture struct {
	store       *repository.MemoryStore
	clock       *testClock
	judge       *fakeJudge
	sessions    *SessionService
	submissions *SubmissionService
	uploadDir   string
}

func newFixture(t *testing.T, questions int, mode model.ExecutionMode) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	store.AddTeam(model.Team{ID: activeTeam, LeaderID: "1RV22CS001", Name: "Null Pointers", IsActive: true})
	store.AddTeam(model.Team{ID: disabledTeam, LeaderID: "1RV22CS002", Name: "Off By One", IsActive: false})
	for i := 1; i <= questions; i++ {
		store.AddQuestion(model.Question{
			ID:         int64(i),
			QuestionID: fmt.Sprintf("E%02d", i),
			Title:      fmt.Sprintf("Question %d", i),
			Points:     i,
			IsActive:   true,
		})
	}

	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	fj := &fakeJudge{}
	sessions := NewSessionService(store.Teams(), store.Questions(), store.Sessions(), store.Submissions(), NewLocalLocker(), SessionConfig{
		Duration:     180 * time.Minute,
		MaxQuestions: 30,
		Mode:         mode,
		Clock:        clock.Now,
	}, zap.NewNop())
	uploadDir := t.TempDir()
	subs := NewSubmissionService(sessions, store.Questions(), store.Submissions(), fj,
		UploadConfig{Dir: uploadDir, AllowedExtensions: []string{".homie"}}, zap.NewNop())

	return &fixture{store: store, clock: clock, judge: fj, sessions: sessions, submissions: subs, uploadDir: uploadDir}
}

func (f *fixture) start(t *testing.T) *StartResponse {
	t.Helper()
	resp, err := f.sessions.Start(context.Background(), activeTeam)
	require.NoError(t, err)
	return resp
}

func TestStartCreatesOneSubmissionPerQuestion(t *testing.T) {
	f := newFixture(t, 30, model.ModeStrict)

	resp := f.start(t)
	assert.True(t, resp.Session.IsActive)
	assert.Equal(t, 30, resp.Session.TotalQuestions)
	assert.Equal(t, 180*60, resp.Session.TimeRemainingSeconds)
	assert.Len(t, resp.Questions, 30)

	status, err := f.sessions.Status(context.Background(), activeTeam)
	require.NoError(t, err)
	require.Len(t, status.Submissions, 30)
	for _, s := range status.Submissions {
		assert.Equal(t, model.StatusNotAttempted, s.Status)
		assert.Zero(t, s.Attempts)
		assert.False(t, s.IsLocked)
	}
	assert.Equal(t, 180*60, status.TimeRemainingSeconds)
}

func TestStartCapsQuestionCount(t *testing.T) {
	f := newFixture(t, 35, model.ModeStrict)

	resp := f.start(t)
	assert.Equal(t, 30, resp.Session.TotalQuestions)
	assert.Equal(t, int64(30), resp.Questions[29].ID)
}

func TestStartRejectsSecondActiveSession(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)

	_, err := f.sessions.Start(context.Background(), activeTeam)
	assert.ErrorIs(t, err, common.ErrSessionAlreadyActive)
}

func TestConcurrentStartsLeaveOneActiveSession(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)

	var ok, conflict atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sessions.Start(context.Background(), activeTeam)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrSessionAlreadyActive):
				conflict.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), ok.Load())
	assert.Equal(t, int32(19), conflict.Load())
}

func TestStartAfterExpiryOpensNewSession(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	first := f.start(t)

	f.clock.Advance(3*time.Hour + time.Second)
	second := f.start(t)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)

	old, err := f.store.FindLatestByTeam(context.Background(), activeTeam)
	require.NoError(t, err)
	assert.Equal(t, second.Session.ID, old.ID)
}

func TestExecutionModeGatesDisabledTeams(t *testing.T) {
	strict := newFixture(t, 3, model.ModeStrict)
	_, err := strict.sessions.Start(context.Background(), disabledTeam)
	assert.ErrorIs(t, err, common.ErrForbidden)

	debug := newFixture(t, 3, model.ModeDebug)
	resp, err := debug.sessions.Start(context.Background(), disabledTeam)
	require.NoError(t, err)
	assert.Equal(t, disabledTeam, resp.Session.TeamID)
}

func TestStatusRemainingTimeIsMonotonic(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)

	prev := 180 * 60
	for i := 0; i < 5; i++ {
		f.clock.Advance(17 * time.Minute)
		status, err := f.sessions.Status(context.Background(), activeTeam)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, status.TimeRemainingSeconds, 0)
		assert.LessOrEqual(t, status.TimeRemainingSeconds, prev)
		prev = status.TimeRemainingSeconds
	}
	assert.Equal(t, 180*60-5*17*60, prev)
}

func TestStatusCollapsesExpiredSession(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)

	f.clock.Advance(3*time.Hour + time.Second)
	status, err := f.sessions.Status(context.Background(), activeTeam)
	require.NoError(t, err)
	assert.Equal(t, 0, status.TimeRemainingSeconds)
	assert.False(t, status.Session.IsActive)
	require.NotNil(t, status.Session.EndedAt)

	stored, err := f.store.FindLatestByTeam(context.Background(), activeTeam)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, 0, stored.TimeRemainingSeconds)
	require.NotNil(t, stored.EndedAt)

	again, err := f.sessions.Status(context.Background(), activeTeam)
	require.NoError(t, err)
	assert.Equal(t, status.Session.ID, again.Session.ID)
	assert.Equal(t, 0, again.TimeRemainingSeconds)
}

func TestStatusReportsSessionExpiredByAnotherCall(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	started := f.start(t)
	ctx := context.Background()

	f.clock.Advance(3*time.Hour + time.Second)
	_, err := f.submissions.Execute(ctx, activeTeam, 1, ExecuteRequest{CodeAnswer: "late"})
	require.ErrorIs(t, err, common.ErrNoActiveSession)

	status, err := f.sessions.Status(ctx, activeTeam)
	require.NoError(t, err)
	assert.Equal(t, started.Session.ID, status.Session.ID)
	assert.Equal(t, 0, status.TimeRemainingSeconds)
	assert.Equal(t, 0, status.Session.TimeRemainingSeconds)
	assert.False(t, status.Session.IsActive)
	assert.NotNil(t, status.Session.EndedAt)
	assert.Len(t, status.Submissions, 3)
}

func TestExecuteCorrectLocksSubmission(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	f.judge.result.Store(1)

	res, err := f.submissions.Execute(context.Background(), activeTeam, 1, ExecuteRequest{CodeAnswer: "print 3"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Result)
	assert.Equal(t, 1, res.Attempts)
	assert.True(t, res.IsCorrect)
	assert.True(t, res.IsLocked)
	assert.Empty(t, res.Details)

	sub, err := f.store.FindBySessionAndQuestion(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, sub.Status)
	assert.Equal(t, "print 3", *sub.CodeAnswer)
	assert.Equal(t, sub.IsCorrect, sub.IsLocked)
	assert.NotNil(t, sub.SubmittedAt)
}

func TestExecuteOnLockedSubmissionIsIdempotent(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	f.judge.result.Store(1)

	first, err := f.submissions.Execute(context.Background(), activeTeam, 1, ExecuteRequest{CodeAnswer: "good"})
	require.NoError(t, err)

	f.judge.result.Store(0)
	for i := 0; i < 3; i++ {
		again, err := f.submissions.Execute(context.Background(), activeTeam, 1, ExecuteRequest{CodeAnswer: "changed"})
		require.NoError(t, err)
		assert.Equal(t, first.Result, again.Result)
		assert.Equal(t, first.Attempts, again.Attempts)
		assert.True(t, again.IsLocked)
	}
	assert.Equal(t, int32(1), f.judge.calls.Load())

	sub, err := f.store.FindBySessionAndQuestion(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "good", *sub.CodeAnswer)
}

func TestExecuteAttemptLimit(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	f.judge.cases = []model.CaseReport{{Case: 1, Outcome: "wrong_answer", Expected: "3", Actual: "4"}}

	for i := 1; i <= model.MaxAttempts; i++ {
		res, err := f.submissions.Execute(context.Background(), activeTeam, 2, ExecuteRequest{CodeAnswer: "wrong"})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Result)
		assert.Equal(t, i, res.Attempts)
		assert.False(t, res.IsLocked)
		assert.Len(t, res.Details, 1)
	}

	_, err := f.submissions.Execute(context.Background(), activeTeam, 2, ExecuteRequest{CodeAnswer: "wrong"})
	assert.ErrorIs(t, err, common.ErrAttemptLimitExceeded)

	sub, err := f.store.FindBySessionAndQuestion(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.MaxAttempts, sub.Attempts)
	assert.Equal(t, int32(model.MaxAttempts), f.judge.calls.Load())
}

func TestExecuteJudgeFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	f.judge.err = fmt.Errorf("%w: timeout", common.ErrJudgeUnavailable)

	_, err := f.submissions.Execute(context.Background(), activeTeam, 1, ExecuteRequest{CodeAnswer: "x"})
	assert.ErrorIs(t, err, common.ErrJudgeUnavailable)

	sub, err := f.store.FindBySessionAndQuestion(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Zero(t, sub.Attempts)
	assert.False(t, sub.IsLocked)
	assert.False(t, sub.IsCorrect)
	assert.Nil(t, sub.LastResult)
}

func TestManualSaveDuringJudgingCannotReplaceJudgedCode(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	ctx := context.Background()
	f.judge.result.Store(1)

	type updateResult struct {
		sub *model.Submission
		err error
	}
	done := make(chan updateResult, 1)
	f.judge.during = func() {
		go func() {
			code := "print(wrong)"
			sub, err := f.sessions.UpdateSubmission(ctx, activeTeam, model.SubmissionUpdate{QuestionID: 1, CodeAnswer: &code})
			done <- updateResult{sub, err}
		}()
		time.Sleep(50 * time.Millisecond)
	}

	res, err := f.submissions.Execute(ctx, activeTeam, 1, ExecuteRequest{CodeAnswer: "print(right)"})
	require.NoError(t, err)
	assert.True(t, res.IsLocked)

	upd := <-done
	require.NoError(t, upd.err)
	assert.Equal(t, "print(right)", *upd.sub.CodeAnswer)

	sub, err := f.store.FindBySessionAndQuestion(ctx, 1, 1)
	require.NoError(t, err)
	assert.True(t, sub.IsLocked)
	assert.Equal(t, "print(right)", *sub.CodeAnswer)
}

func TestExecuteDiscardsVerdictAfterSessionEnds(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	ctx := context.Background()
	f.judge.result.Store(1)
	f.judge.during = func() { f.clock.Advance(3*time.Hour + time.Second) }

	_, err := f.submissions.Execute(ctx, activeTeam, 2, ExecuteRequest{CodeAnswer: "slow but right"})
	assert.ErrorIs(t, err, common.ErrNoActiveSession)

	sub, err := f.store.FindBySessionAndQuestion(ctx, 1, 2)
	require.NoError(t, err)
	assert.Zero(t, sub.Attempts)
	assert.False(t, sub.IsLocked)
	assert.False(t, sub.IsCorrect)

	board, err := NewLeaderboardService(f.store.Teams(), f.store.Sessions(), f.store.Submissions()).Rank(ctx)
	require.NoError(t, err)
	assert.Zero(t, board[0].Score)
}

func TestConcurrentExecutesRespectAttemptLimit(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)

	var ok, limited atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.submissions.Execute(context.Background(), activeTeam, 3, ExecuteRequest{CodeAnswer: "wrong"})
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrAttemptLimitExceeded):
				limited.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(model.MaxAttempts), ok.Load())
	assert.Equal(t, int32(12-model.MaxAttempts), limited.Load())
	sub, err := f.store.FindBySessionAndQuestion(context.Background(), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, model.MaxAttempts, sub.Attempts)
}

func TestExecuteErrors(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)

	_, err := f.submissions.Execute(context.Background(), activeTeam, 1, ExecuteRequest{})
	assert.ErrorIs(t, err, common.ErrNoActiveSession)

	f.start(t)
	_, err = f.submissions.Execute(context.Background(), activeTeam, 99, ExecuteRequest{})
	assert.ErrorIs(t, err, common.ErrSubmissionNotFound)

	f.clock.Advance(3*time.Hour + time.Second)
	_, err = f.submissions.Execute(context.Background(), activeTeam, 1, ExecuteRequest{})
	assert.ErrorIs(t, err, common.ErrNoActiveSession)
}

func TestUpdateSubmission(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	ctx := context.Background()

	code := "draft"
	flagged := model.StatusFlagged
	sub, err := f.sessions.UpdateSubmission(ctx, activeTeam, model.SubmissionUpdate{QuestionID: 1, CodeAnswer: &code, Status: &flagged})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFlagged, sub.Status)
	assert.Equal(t, "draft", *sub.CodeAnswer)
	assert.Zero(t, sub.Attempts)

	submitted := model.StatusSubmitted
	_, err = f.sessions.UpdateSubmission(ctx, activeTeam, model.SubmissionUpdate{QuestionID: 1, Status: &submitted})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.sessions.UpdateSubmission(ctx, activeTeam, model.SubmissionUpdate{QuestionID: 42, CodeAnswer: &code})
	assert.ErrorIs(t, err, common.ErrSubmissionNotFound)
}

func TestUpdateOnLockedSubmissionIsNoop(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	f.judge.result.Store(1)
	_, err := f.submissions.Execute(context.Background(), activeTeam, 1, ExecuteRequest{CodeAnswer: "good"})
	require.NoError(t, err)

	code := "overwrite"
	saved := model.StatusSaved
	sub, err := f.sessions.UpdateSubmission(context.Background(), activeTeam, model.SubmissionUpdate{QuestionID: 1, CodeAnswer: &code, Status: &saved})
	require.NoError(t, err)
	assert.Equal(t, "good", *sub.CodeAnswer)
	assert.Equal(t, model.StatusSubmitted, sub.Status)
}

func TestSubmitCountsAndEndsSession(t *testing.T) {
	f := newFixture(t, 5, model.ModeStrict)
	f.start(t)
	ctx := context.Background()

	f.judge.result.Store(1)
	_, err := f.submissions.Execute(ctx, activeTeam, 1, ExecuteRequest{CodeAnswer: "good"})
	require.NoError(t, err)

	saved, flagged := model.StatusSaved, model.StatusFlagged
	code := "late edit"
	summary, err := f.sessions.Submit(ctx, activeTeam, SubmitRequest{Submissions: []model.SubmissionUpdate{
		{QuestionID: 1, Status: &saved}, // locked, ignored
		{QuestionID: 2, Status: &saved, CodeAnswer: &code},
		{QuestionID: 3, Status: &flagged},
		{QuestionID: 77, Status: &saved}, // unknown, ignored
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalSaved)
	assert.Equal(t, 1, summary.TotalFlagged)
	assert.Equal(t, 2, summary.TotalUnattempted)
	assert.Equal(t, 1, summary.TotalSubmitted)

	_, err = f.sessions.Status(ctx, activeTeam)
	assert.ErrorIs(t, err, common.ErrNoActiveSession)
	_, err = f.sessions.Submit(ctx, activeTeam, SubmitRequest{})
	assert.ErrorIs(t, err, common.ErrNoActiveSession)
}

func TestSubmitRejectsInvalidStatusBeforeMutating(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)

	notAttempted := model.StatusNotAttempted
	_, err := f.sessions.Submit(context.Background(), activeTeam, SubmitRequest{Submissions: []model.SubmissionUpdate{
		{QuestionID: 1, Status: &notAttempted},
	}})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.sessions.ActiveSession(context.Background(), activeTeam)
	assert.NoError(t, err)
}

func TestUpload(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	ctx := context.Background()

	_, err := f.submissions.Upload(ctx, activeTeam, "1RV22CS001", 1, "solution.py", strings.NewReader("x"))
	assert.ErrorIs(t, err, common.ErrInvalidFileExtension)

	resp, err := f.submissions.Upload(ctx, activeTeam, "1RV22CS001", 1, "Solution.HOMIE", strings.NewReader("bro print 1"))
	require.NoError(t, err)
	assert.Equal(t, f.uploadDir, filepath.Dir(resp.FilePath))
	assert.True(t, strings.HasPrefix(filepath.Base(resp.FilePath), "1rv22cs001_1_20250301_090000"))

	data, err := os.ReadFile(resp.FilePath)
	require.NoError(t, err)
	assert.Equal(t, "bro print 1", string(data))

	sub, err := f.store.FindBySessionAndQuestion(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, sub.FilePath)
	assert.Equal(t, resp.FilePath, *sub.FilePath)
}

func TestUploadRejectedOnLockedSubmission(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	f.start(t)
	ctx := context.Background()
	f.judge.result.Store(1)
	_, err := f.submissions.Execute(ctx, activeTeam, 1, ExecuteRequest{CodeAnswer: "good"})
	require.NoError(t, err)

	_, err = f.submissions.Upload(ctx, activeTeam, "1RV22CS001", 1, "late.homie", strings.NewReader("other"))
	assert.ErrorIs(t, err, common.ErrConflict)

	sub, err := f.store.FindBySessionAndQuestion(ctx, 1, 1)
	require.NoError(t, err)
	assert.Nil(t, sub.FilePath)
	entries, err := os.ReadDir(f.uploadDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestLeaderboardRanking(t *testing.T) {
	f := newFixture(t, 4, model.ModeDebug)
	ctx := context.Background()
	f.store.AddTeam(model.Team{ID: 3, LeaderID: "1RV22CS003", Name: "Segfaults", IsActive: true})
	f.store.AddTeam(model.Team{ID: 4, LeaderID: "1RV22CS004", Name: "Idle", IsActive: true})

	f.judge.result.Store(1)
	solve := func(team int64, questions ...int64) {
		_, err := f.sessions.Start(ctx, team)
		require.NoError(t, err)
		for _, q := range questions {
			_, err := f.submissions.Execute(ctx, team, q, ExecuteRequest{CodeAnswer: "ok"})
			require.NoError(t, err)
		}
	}
	solve(activeTeam, 4)   // 4 points, 1 solved
	solve(disabledTeam, 1) // inactive team, not ranked
	solve(3, 1, 3)         // 4 points, 2 solved

	board, err := NewLeaderboardService(f.store.Teams(), f.store.Sessions(), f.store.Submissions()).Rank(ctx)
	require.NoError(t, err)
	require.Len(t, board, 3)

	assert.Equal(t, int64(3), board[0].TeamID)
	assert.Equal(t, 4, board[0].Score)
	assert.Equal(t, 2, board[0].Solved)
	assert.Equal(t, 1, board[0].Rank)

	assert.Equal(t, activeTeam, board[1].TeamID)
	assert.Equal(t, 4, board[1].Score)
	assert.Equal(t, 1, board[1].Solved)
	assert.Equal(t, 2, board[1].Rank)

	assert.Equal(t, int64(4), board[2].TeamID)
	assert.Zero(t, board[2].Score)
	assert.Nil(t, board[2].SessionID)
	assert.Equal(t, 3, board[2].Rank)
}

func TestLeaderboardUsesLatestSession(t *testing.T) {
	f := newFixture(t, 3, model.ModeStrict)
	ctx := context.Background()
	f.judge.result.Store(1)

	f.start(t)
	_, err := f.submissions.Execute(ctx, activeTeam, 3, ExecuteRequest{CodeAnswer: "ok"})
	require.NoError(t, err)
	_, err = f.sessions.Submit(ctx, activeTeam, SubmitRequest{})
	require.NoError(t, err)

	second := f.start(t)
	board, err := NewLeaderboardService(f.store.Teams(), f.store.Sessions(), f.store.Submissions()).Rank(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, board)
	require.NotNil(t, board[0].SessionID)
	assert.Equal(t, second.Session.ID, *board[0].SessionID)
	assert.Zero(t, board[0].Score)
}

func TestSortLeaderboardTieBreak(t *testing.T) {
	entries := []model.LeaderboardEntry{
		{TeamID: 5, Score: 10, Solved: 2},
		{TeamID: 2, Score: 10, Solved: 2},
		{TeamID: 9, Score: 10, Solved: 3},
		{TeamID: 1, Score: 3, Solved: 1},
	}
	SortLeaderboard(entries)

	ids := []int64{entries[0].TeamID, entries[1].TeamID, entries[2].TeamID, entries[3].TeamID}
	assert.Equal(t, []int64{9, 2, 5, 1}, ids)
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
}

func TestLogin(t *testing.T) {
	store := repository.NewMemoryStore()
	hash, err := security.HashPassword("hunter2")
	require.NoError(t, err)
	store.AddTeam(model.Team{ID: 1, LeaderID: "1RV22CS001", Name: "Null Pointers", PasswordHash: hash, IsActive: true})
	auth := NewAuthService(store.Teams(), security.NewTokenIssuer([]byte("secret"), time.Hour))

	resp, err := auth.Login(context.Background(), LoginRequest{TeamLeaderID: " 1rv22cs001 ", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, int64(1), resp.Team.ID)

	_, err = auth.Login(context.Background(), LoginRequest{TeamLeaderID: "1RV22CS001", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = auth.Login(context.Background(), LoginRequest{TeamLeaderID: "NOBODY", Password: "x"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = auth.Login(context.Background(), LoginRequest{})
	assert.ErrorIs(t, err, common.ErrBadRequest)
}
