package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"
)

type TeamRepository interface {
	FindByLeaderID(ctx context.Context, leaderID string) (*model.Team, error)
	FindByID(ctx context.Context, id int64) (*model.Team, error)
	ListActive(ctx context.Context) ([]model.Team, error)
}

type pgTeamRepository struct {
	db *sql.DB
}

func NewPgTeamRepository(db *sql.DB) TeamRepository {
	return &pgTeamRepository{db: db}
}

const teamColumns = `id, team_leader_id, team_name, password_hash, is_active, created_at`

func (r *pgTeamRepository) FindByLeaderID(ctx context.Context, leaderID string) (*model.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE team_leader_id = $1`
	team := &model.Team{}
	err := r.db.QueryRowContext(ctx, query, leaderID).Scan(
		&team.ID, &team.LeaderID, &team.Name, &team.PasswordHash, &team.IsActive, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTeamRepository.FindByLeaderID: %w", err)
	}
	return team, nil
}

func (r *pgTeamRepository) FindByID(ctx context.Context, id int64) (*model.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	team := &model.Team{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&team.ID, &team.LeaderID, &team.Name, &team.PasswordHash, &team.IsActive, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTeamRepository.FindByID: %w", err)
	}
	return team, nil
}

func (r *pgTeamRepository) ListActive(ctx context.Context) ([]model.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE is_active = TRUE ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgTeamRepository.ListActive: %w", err)
	}
	defer rows.Close()

	var teams []model.Team
	for rows.Next() {
		var t model.Team
		if err := rows.Scan(&t.ID, &t.LeaderID, &t.Name, &t.PasswordHash, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgTeamRepository.ListActive scan: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
