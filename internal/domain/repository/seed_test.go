package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"brocode_arena/internal/common"
	"brocode_arena/internal/common/security"
	"brocode_arena/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
teams:
  - team_leader_id: 1rv22cs001
    team_name: Null Pointers
    password: hunter22
  - team_leader_id: 1RV22CS002
    team_name: Off By One
    password: secret
    is_active: false
questions:
  - question_id: e01
    title: Sum of two
    difficulty: Easy
    points: 10
  - question_id: H01
    title: Graph walk
    difficulty: hard
    points: 30
`

func TestApplySeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)

	store := NewMemoryStore()
	require.NoError(t, store.ApplySeed(seed))
	ctx := context.Background()

	team, err := store.Teams().FindByLeaderID(ctx, "1RV22CS001")
	require.NoError(t, err)
	assert.True(t, team.IsActive)
	assert.True(t, security.CheckPasswordHash("hunter22", team.PasswordHash))

	active, err := store.Teams().ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	qs, err := store.Questions().ListActive(ctx, 30)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "E01", qs[0].QuestionID)
	assert.Equal(t, model.DifficultyEasy, qs[0].Difficulty)
	assert.Equal(t, 30, qs[1].Points)
}

func TestLoadSeedMissingFile(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMemoryStoreSingleActiveSession(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first := &model.ChallengeSession{TeamID: 1, TimeRemainingSeconds: 60}
	require.NoError(t, store.Start(ctx, first, []int64{1, 2}))
	assert.ErrorIs(t, store.Start(ctx, &model.ChallengeSession{TeamID: 1}, nil), common.ErrSessionAlreadyActive)

	require.NoError(t, store.UpdateTimeRemaining(ctx, first.ID, 30))
	require.NoError(t, store.UpdateTimeRemaining(ctx, first.ID, 45))
	got, err := store.FindActiveByTeam(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, got.TimeRemainingSeconds)

	subs, err := store.ListBySession(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, subs, 2)

	_, err = store.SaveCode(ctx, subs[0].ID, "draft")
	require.NoError(t, err)
	ok, err := store.RecordJudgeResult(ctx, subs[0].ID, 0, "judged", 1, got.StartedAt)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.RecordJudgeResult(ctx, subs[0].ID, 1, "again", 0, got.StartedAt)
	require.NoError(t, err)
	assert.False(t, ok, "locked rows are final")

	ok, err = store.SetFile(ctx, subs[0].ID, "uploads/late.homie")
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err := store.FindBySessionAndQuestion(ctx, first.ID, subs[0].QuestionID)
	require.NoError(t, err)
	assert.Equal(t, "judged", *locked.CodeAnswer)
	assert.Nil(t, locked.FilePath)

	ok, err = store.SetFile(ctx, subs[1].ID, "uploads/open.homie")
	require.NoError(t, err)
	assert.True(t, ok)
}
