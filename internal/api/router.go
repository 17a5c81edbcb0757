package api

import (
	"net/http"
	"time"

	"brocode_arena/internal/api/handler"
	"brocode_arena/internal/api/middleware"
	"brocode_arena/internal/app/service"
	"brocode_arena/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	CORSOrigins             []string
	LeaderboardAllowedHosts []string
	ExecuteRatePerMinute    int
	UploadMaxBytes          int64
	RequestTimeout          time.Duration
}

type Services struct {
	Auth        *service.AuthService
	Sessions    *service.SessionService
	Submissions *service.SubmissionService
	Leaderboard *service.LeaderboardService
	Questions   *service.QuestionService
}

func NewRouter(cfg RouterConfig, svc Services, tokens *security.TokenIssuer, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares. RealIP is left out: the leaderboard allow-list
	// trusts only the socket address.
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Verifies "Authorization: Bearer T" and puts claims in context.
	r.Use(jwtauth.Verifier(tokens.JWTAuth()))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(svc.Auth)
		v1.Route("/auth", authHandler.RegisterRoutes)

		challengeHandler := handler.NewChallengeHandler(
			svc.Sessions,
			svc.Submissions,
			middleware.NewTeamRateLimiter(cfg.ExecuteRatePerMinute),
			cfg.UploadMaxBytes,
			log,
		)
		v1.Route("/challenge", challengeHandler.RegisterRoutes)

		questionHandler := handler.NewQuestionHandler(svc.Questions, log)
		v1.Route("/questions", questionHandler.RegisterRoutes)

		leaderboardHandler := handler.NewLeaderboardHandler(svc.Leaderboard, log)
		v1.Route("/leaderboard", func(lr chi.Router) {
			lr.Use(middleware.AllowHosts(cfg.LeaderboardAllowedHosts))
			leaderboardHandler.RegisterRoutes(lr)
		})
	})

	return r
}
