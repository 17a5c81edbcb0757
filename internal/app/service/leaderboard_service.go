package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"
	"brocode_arena/internal/domain/repository"
)

// LeaderboardService ranks active teams by their latest session.
// Nothing is cached; every call reads live submissions.
type LeaderboardService struct {
	teams       repository.TeamRepository
	sessions    repository.SessionRepository
	submissions repository.SubmissionRepository
}

func NewLeaderboardService(teams repository.TeamRepository, sessions repository.SessionRepository, submissions repository.SubmissionRepository) *LeaderboardService {
	return &LeaderboardService{teams: teams, sessions: sessions, submissions: submissions}
}

func (s *LeaderboardService) Rank(ctx context.Context) ([]model.LeaderboardEntry, error) {
	teams, err := s.teams.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}

	entries := make([]model.LeaderboardEntry, 0, len(teams))
	for _, t := range teams {
		entry := model.LeaderboardEntry{
			TeamID:       t.ID,
			TeamName:     t.Name,
			TeamLeaderID: t.LeaderID,
		}
		session, err := s.sessions.FindLatestByTeam(ctx, t.ID)
		switch {
		case errors.Is(err, common.ErrNotFound):
		case err != nil:
			return nil, fmt.Errorf("failed to load latest session for team %d: %w", t.ID, err)
		default:
			id := session.ID
			entry.SessionID = &id
			entry.Score, entry.Solved, err = s.submissions.SessionScore(ctx, session.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to score session %d: %w", session.ID, err)
			}
		}
		entries = append(entries, entry)
	}

	SortLeaderboard(entries)
	return entries, nil
}

// SortLeaderboard orders by score desc, solved desc, team id asc and assigns
// 1-based ranks.
func SortLeaderboard(entries []model.LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Solved != b.Solved {
			return a.Solved > b.Solved
		}
		return a.TeamID < b.TeamID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
}
