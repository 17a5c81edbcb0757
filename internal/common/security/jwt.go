package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer signs and verifies team bearer tokens.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", secret, nil),
		ttl:  ttl,
	}
}

// JWTAuth exposes the verifier used by jwtauth.Verifier.
func (t *TokenIssuer) JWTAuth() *jwtauth.JWTAuth {
	return t.auth
}

func (t *TokenIssuer) GenerateToken(teamID int64, leaderID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"team_id":   teamID,
		"leader_id": leaderID,
		"exp":       now.Add(t.ttl).Unix(),
		"iat":       now.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	return tokenString, err
}

// GetTeamIDFromClaims reads the numeric team_id claim. JSON numbers decode
// as float64, tokens built in-process keep int64.
func GetTeamIDFromClaims(claims map[string]interface{}) (int64, error) {
	switch v := claims["team_id"].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	}
	return 0, errors.New("team_id claim is missing or not a number")
}

func GetLeaderIDFromClaims(claims map[string]interface{}) (string, error) {
	id, ok := claims["leader_id"].(string)
	if !ok {
		return "", errors.New("leader_id claim is missing or not a string")
	}
	return id, nil
}
