package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"brocode_arena/internal/common"
	"brocode_arena/internal/common/security"
	"brocode_arena/internal/domain/model"
	"brocode_arena/internal/domain/repository"
)

type AuthService struct {
	teamRepo repository.TeamRepository
	tokens   *security.TokenIssuer
}

func NewAuthService(teamRepo repository.TeamRepository, tokens *security.TokenIssuer) *AuthService {
	return &AuthService{teamRepo: teamRepo, tokens: tokens}
}

type LoginRequest struct {
	TeamLeaderID string `json:"team_leader_id"`
	Password     string `json:"password"`
}

type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	Team        *model.Team `json:"team"`
}

// Login checks the team leader's credentials. Leader ids are stored upper-case.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	leaderID := strings.ToUpper(strings.TrimSpace(req.TeamLeaderID))
	if leaderID == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	team, err := s.teamRepo.FindByLeaderID(ctx, leaderID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, team.PasswordHash) {
		return nil, common.ErrUnauthorized
	}

	token, err := s.tokens.GenerateToken(team.ID, team.LeaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{AccessToken: token, TokenType: "bearer", Team: team}, nil
}

// Me returns the team behind an authenticated request.
func (s *AuthService) Me(ctx context.Context, teamID int64) (*model.Team, error) {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}
	return team, nil
}
