package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"
)

// MemoryStore keeps teams, questions, sessions and submissions in process.
// It backs DB_DRIVER=memory and the service tests. Every method holds the
// store mutex, so each call is atomic in the same way a single SQL statement is.
type MemoryStore struct {
	mu          sync.Mutex
	teams       map[int64]model.Team
	questions   map[int64]model.Question
	sessions    map[int64]model.ChallengeSession
	submissions map[int64]model.Submission
	nextSession int64
	nextSub     int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		teams:       make(map[int64]model.Team),
		questions:   make(map[int64]model.Question),
		sessions:    make(map[int64]model.ChallengeSession),
		submissions: make(map[int64]model.Submission),
	}
}

// AddTeam seeds a team. Used by bootstrap code and tests.
func (m *MemoryStore) AddTeam(t model.Team) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
}

// AddQuestion seeds a question.
func (m *MemoryStore) AddQuestion(q model.Question) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = q
}

// Teams

func (m *MemoryStore) FindByLeaderID(_ context.Context, leaderID string) (*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.LeaderID == leaderID {
			team := t
			return &team, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *MemoryStore) FindTeamByID(_ context.Context, id int64) (*model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &t, nil
}

func (m *MemoryStore) ListActiveTeams(_ context.Context) ([]model.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var teams []model.Team
	for _, t := range m.teams {
		if t.IsActive {
			teams = append(teams, t)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

// Questions

func (m *MemoryStore) ListActiveQuestions(_ context.Context, limit int) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var qs []model.Question
	for _, q := range m.questions {
		if q.IsActive {
			qs = append(qs, q)
		}
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i].ID < qs[j].ID })
	if limit >= 0 && len(qs) > limit {
		qs = qs[:limit]
	}
	return qs, nil
}

func (m *MemoryStore) FindQuestionByID(_ context.Context, id int64) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return nil, common.ErrQuestionNotFound
	}
	return &q, nil
}

// Sessions

func (m *MemoryStore) Start(_ context.Context, s *model.ChallengeSession, questionIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.sessions {
		if existing.TeamID == s.TeamID && existing.IsActive {
			return common.ErrSessionAlreadyActive
		}
	}
	m.nextSession++
	s.ID = m.nextSession
	s.IsActive = true
	s.TotalQuestions = len(questionIDs)
	m.sessions[s.ID] = *s

	for _, qid := range questionIDs {
		m.nextSub++
		m.submissions[m.nextSub] = model.Submission{
			ID:                 m.nextSub,
			ChallengeSessionID: s.ID,
			QuestionID:         qid,
			Status:             model.StatusNotAttempted,
		}
	}
	return nil
}

func (m *MemoryStore) FindActiveByTeam(_ context.Context, teamID int64) (*model.ChallengeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.TeamID == teamID && s.IsActive {
			return &s, nil
		}
	}
	return nil, common.ErrNoActiveSession
}

func (m *MemoryStore) FindLatestByTeam(_ context.Context, teamID int64) (*model.ChallengeSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *model.ChallengeSession
	for _, s := range m.sessions {
		if s.TeamID != teamID {
			continue
		}
		if latest == nil || s.ID > latest.ID {
			cp := s
			latest = &cp
		}
	}
	if latest == nil {
		return nil, common.ErrNotFound
	}
	return latest, nil
}

func (m *MemoryStore) UpdateTimeRemaining(_ context.Context, id int64, remaining int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return common.ErrNotFound
	}
	if remaining < s.TimeRemainingSeconds {
		s.TimeRemainingSeconds = remaining
		m.sessions[id] = s
	}
	return nil
}

func (m *MemoryStore) End(_ context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return common.ErrNotFound
	}
	s.IsActive = false
	if s.EndedAt == nil {
		s.EndedAt = &at
	}
	m.sessions[id] = s
	return nil
}

// Submissions

func (m *MemoryStore) ListBySession(_ context.Context, sessionID int64) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var subs []model.Submission
	for _, s := range m.submissions {
		if s.ChallengeSessionID == sessionID {
			subs = append(subs, s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].QuestionID < subs[j].QuestionID })
	return subs, nil
}

func (m *MemoryStore) FindBySessionAndQuestion(_ context.Context, sessionID, questionID int64) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.submissions {
		if s.ChallengeSessionID == sessionID && s.QuestionID == questionID {
			return &s, nil
		}
	}
	return nil, common.ErrSubmissionNotFound
}

func (m *MemoryStore) SaveCode(_ context.Context, id int64, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return false, common.ErrSubmissionNotFound
	}
	if s.IsLocked {
		return false, nil
	}
	s.CodeAnswer = &code
	m.submissions[id] = s
	return true, nil
}

func (m *MemoryStore) ApplyUpdate(_ context.Context, id int64, code *string, status *model.SubmissionStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return false, common.ErrSubmissionNotFound
	}
	if s.IsLocked {
		return false, nil
	}
	if code != nil {
		c := *code
		s.CodeAnswer = &c
	}
	if status != nil {
		s.Status = *status
	}
	m.submissions[id] = s
	return true, nil
}

func (m *MemoryStore) SetFile(_ context.Context, id int64, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return false, common.ErrSubmissionNotFound
	}
	if s.IsLocked {
		return false, nil
	}
	s.FilePath = &path
	m.submissions[id] = s
	return true, nil
}

func (m *MemoryStore) RecordJudgeResult(_ context.Context, id int64, expectedAttempts int, code string, result int, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok {
		return false, common.ErrSubmissionNotFound
	}
	if s.IsLocked || s.Attempts != expectedAttempts {
		return false, nil
	}
	s.Attempts++
	s.CodeAnswer = &code
	r := result
	s.LastResult = &r
	s.LastExecutedAt = &at
	if result == 1 {
		s.IsCorrect = true
		s.IsLocked = true
		s.Status = model.StatusSubmitted
		s.SubmittedAt = &at
	}
	m.submissions[id] = s
	return true, nil
}

func (m *MemoryStore) SessionScore(_ context.Context, sessionID int64) (int, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var score, solved int
	for _, s := range m.submissions {
		if s.ChallengeSessionID != sessionID || !s.IsCorrect {
			continue
		}
		solved++
		score += m.questions[s.QuestionID].Points
	}
	return score, solved, nil
}

// Views adapting the store to the per-entity repository interfaces, whose
// method names overlap.

type memoryTeams struct{ *MemoryStore }

func (v memoryTeams) FindByID(ctx context.Context, id int64) (*model.Team, error) {
	return v.FindTeamByID(ctx, id)
}

func (v memoryTeams) ListActive(ctx context.Context) ([]model.Team, error) {
	return v.ListActiveTeams(ctx)
}

type memoryQuestions struct{ *MemoryStore }

func (v memoryQuestions) FindByID(ctx context.Context, id int64) (*model.Question, error) {
	return v.FindQuestionByID(ctx, id)
}

func (v memoryQuestions) ListActive(ctx context.Context, limit int) ([]model.Question, error) {
	return v.ListActiveQuestions(ctx, limit)
}

func (m *MemoryStore) Teams() TeamRepository             { return memoryTeams{m} }
func (m *MemoryStore) Questions() QuestionRepository     { return memoryQuestions{m} }
func (m *MemoryStore) Sessions() SessionRepository       { return m }
func (m *MemoryStore) Submissions() SubmissionRepository { return m }
