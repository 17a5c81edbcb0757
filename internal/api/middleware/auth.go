package middleware

import (
	"context"
	"net/http"
	"strings"

	"brocode_arena/internal/common"
	"brocode_arena/internal/common/security"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	TeamIDCtxKey   contextKey = "teamID"
	LeaderIDCtxKey contextKey = "leaderID"
)

func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context()) // Extracts token from Authorization header

		if err != nil {
			if strings.Contains(err.Error(), "token not found") || token == nil {
				common.RespondWithError(w, http.StatusUnauthorized, "Authorization token required")
			} else {
				common.RespondWithError(w, http.StatusUnauthorized, "Invalid token: "+err.Error())
			}
			return
		}

		if token == nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		teamID, err := security.GetTeamIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}
		leaderID, err := security.GetLeaderIDFromClaims(claims)
		if err != nil {
			common.RespondWithError(w, http.StatusUnauthorized, "Invalid token claims: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), TeamIDCtxKey, teamID)
		ctx = context.WithValue(ctx, LeaderIDCtxKey, leaderID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Helper to get team ID from context
func GetTeamIDFromContext(ctx context.Context) (int64, bool) {
	teamID, ok := ctx.Value(TeamIDCtxKey).(int64)
	return teamID, ok
}

func GetLeaderIDFromContext(ctx context.Context) (string, bool) {
	leaderID, ok := ctx.Value(LeaderIDCtxKey).(string)
	return leaderID, ok
}
