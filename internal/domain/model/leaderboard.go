package model

type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	TeamID       int64  `json:"team_id"`
	TeamName     string `json:"team_name"`
	TeamLeaderID string `json:"team_leader_id"`
	SessionID    *int64 `json:"session_id"`
	Score        int    `json:"score"`
	Solved       int    `json:"solved"`
}
