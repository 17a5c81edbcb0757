package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brocode_arena/internal/api"
	"brocode_arena/internal/app/judge"
	"brocode_arena/internal/app/service"
	"brocode_arena/internal/common/security"
	"brocode_arena/internal/domain/repository"
	"brocode_arena/internal/platform/cache"
	"brocode_arena/internal/platform/config"
	"brocode_arena/internal/platform/database"
	"brocode_arena/internal/platform/logger"

	"go.uber.org/zap"
)

type repositories struct {
	teams       repository.TeamRepository
	questions   repository.QuestionRepository
	sessions    repository.SessionRepository
	submissions repository.SubmissionRepository
	close       func()
}

func main() {
	// 1. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("configuration loaded",
		zap.String("execution_mode", string(cfg.ExecutionMode)),
		zap.String("db_driver", cfg.DBDriver),
		zap.String("judge_backend", cfg.JudgeBackend))

	// 2. Initialize JWT
	tokens := security.NewTokenIssuer(cfg.JWTKey, cfg.JWTExp)

	// 3. Initialize storage
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer repos.close()

	// 4. Initialize Redis
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	if err != nil {
		return err
	}
	defer cache.CloseRedis(rdb, log)

	var locker service.ExecutionLocker = service.NewLocalLocker()
	if rdb != nil {
		locker = service.NewRedisLocker(rdb, cfg.ExecutionLockTTL, cfg.ExecutionLockRetry, log)
	}

	// 5. Judge backend, chosen once
	gateway, err := judge.New(cfg, log)
	if err != nil {
		return fmt.Errorf("judge: %w", err)
	}
	gateway = judge.Instrumented(gateway)

	// 6. Initialize Services
	sessionService := service.NewSessionService(repos.teams, repos.questions, repos.sessions, repos.submissions, locker, service.SessionConfig{
		Duration:     cfg.ChallengeDuration,
		MaxQuestions: cfg.MaxQuestions,
		Mode:         cfg.ExecutionMode,
	}, log)
	submissionService := service.NewSubmissionService(sessionService, repos.questions, repos.submissions, gateway,
		service.UploadConfig{Dir: cfg.UploadDir, AllowedExtensions: cfg.AllowedExtensions}, log)
	authService := service.NewAuthService(repos.teams, tokens)
	leaderboardService := service.NewLeaderboardService(repos.teams, repos.sessions, repos.submissions)
	questionService := service.NewQuestionService(repos.questions, cfg.MaxQuestions)

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(api.RouterConfig{
		CORSOrigins:             cfg.CORSOrigins,
		LeaderboardAllowedHosts: cfg.LeaderboardAllowedHosts,
		ExecuteRatePerMinute:    cfg.ExecuteRatePerMinute,
		UploadMaxBytes:          cfg.UploadMaxBytes,
		RequestTimeout:          cfg.JudgeAPITimeout + cfg.ExecutionLockTTL,
	}, api.Services{
		Auth:        authService,
		Sessions:    sessionService,
		Submissions: submissionService,
		Leaderboard: leaderboardService,
		Questions:   questionService,
	}, tokens, log)

	writeTimeout := cfg.JudgeAPITimeout + cfg.ExecutionLockTTL + 10*time.Second
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// 8. Graceful Shutdown
	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("could not listen on %s: %w", cfg.APIPort, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, log *zap.Logger) (*repositories, error) {
	var seed *repository.Seed
	if cfg.SeedFile != "" {
		s, err := repository.LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = s
	}

	if cfg.DBDriver == config.DBDriverMemory {
		store := repository.NewMemoryStore()
		if seed != nil {
			if err := store.ApplySeed(seed); err != nil {
				return nil, err
			}
		}
		log.Warn("using in-memory store, data is lost on restart")
		return &repositories{
			teams:       store.Teams(),
			questions:   store.Questions(),
			sessions:    store.Sessions(),
			submissions: store.Submissions(),
			close:       func() {},
		}, nil
	}

	db, err := database.Connect(ctx, cfg.DBConnStr, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		database.Close(db, log)
		return nil, err
	}
	if seed != nil {
		if err := repository.SeedPostgres(ctx, db, seed); err != nil {
			database.Close(db, log)
			return nil, err
		}
	}
	return &repositories{
		teams:       repository.NewPgTeamRepository(db),
		questions:   repository.NewPgQuestionRepository(db),
		sessions:    repository.NewPgSessionRepository(db),
		submissions: repository.NewPgSubmissionRepository(db),
		close:       func() { database.Close(db, log) },
	}, nil
}
