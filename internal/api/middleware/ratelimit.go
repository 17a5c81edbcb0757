package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"brocode_arena/internal/common"
	"brocode_arena/internal/platform/metrics"

	"golang.org/x/time/rate"
)

// TeamRateLimiter throttles judge calls per authenticated team.
type TeamRateLimiter struct {
	limiters sync.Map
	limit    rate.Limit
	burst    int
}

// NewTeamRateLimiter allows perMinute requests per team with a burst of the
// same size. perMinute <= 0 disables limiting.
func NewTeamRateLimiter(perMinute int) *TeamRateLimiter {
	if perMinute <= 0 {
		return &TeamRateLimiter{limit: rate.Inf}
	}
	return &TeamRateLimiter{
		limit: rate.Limit(float64(perMinute) / 60.0),
		burst: perMinute,
	}
}

func (rl *TeamRateLimiter) limiterFor(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}
	limiter, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.limit, rl.burst))
	return limiter.(*rate.Limiter)
}

func (rl *TeamRateLimiter) Allow(key string) bool {
	if rl.limit == rate.Inf {
		return true
	}
	return rl.limiterFor(key).Allow()
}

// Middleware must run after Authenticator.
func (rl *TeamRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if teamID, ok := GetTeamIDFromContext(r.Context()); ok {
			key = "team:" + strconv.FormatInt(teamID, 10)
		}
		if !rl.Allow(key) {
			metrics.ExecutionsRejected.WithLabelValues("rate_limited").Inc()
			common.RespondWithError(w, http.StatusTooManyRequests, common.ErrRateLimited.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}
