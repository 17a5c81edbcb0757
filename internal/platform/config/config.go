package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"brocode_arena/internal/domain/model"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort       string
	ExecutionMode model.ExecutionMode
	LogLevel      string
	LogFormat     string
	JWTKey        []byte
	JWTExp        time.Duration

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string
	SeedFile   string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	ExecutionLockTTL   time.Duration
	ExecutionLockRetry time.Duration

	ChallengeDuration time.Duration
	MaxQuestions      int

	JudgeBackend    string
	JudgeAPIURL     string
	JudgeAPIToken   string
	JudgeAPITimeout time.Duration
	TestCasesFile   string

	SandboxCommand        string
	SandboxTimeout        time.Duration
	SandboxScratchDir     string
	SandboxFileSuffix     string
	SandboxMaxConcurrency int

	UploadDir         string
	UploadMaxBytes    int64
	AllowedExtensions []string

	CORSOrigins             []string
	LeaderboardAllowedHosts []string
	ExecuteRatePerMinute    int
}

const (
	JudgeBackendLocal  = "local"
	JudgeBackendRemote = "remote"

	DBDriverPostgres = "postgres"
	DBDriverMemory   = "memory"
)

// Load reads the environment (and an optional .env file) into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional; the process environment wins

	mode, err := model.ParseExecutionMode(getEnv("EXECUTION_MODE", string(model.ModeStrict)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		APIPort:       getEnv("API_PORT", "8000"),
		ExecutionMode: mode,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		JWTKey:        []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:        time.Duration(getEnvAsInt("JWT_EXPIRATION_MINUTES", 300)) * time.Minute,

		DBDriver:   getEnv("DB_DRIVER", DBDriverPostgres),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "brocode_arena"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),
		SeedFile:   getEnv("SEED_FILE", ""),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		ExecutionLockTTL:   time.Duration(getEnvAsInt("EXECUTION_LOCK_TTL_SECONDS", 120)) * time.Second,
		ExecutionLockRetry: time.Duration(getEnvAsInt("EXECUTION_LOCK_RETRY_MS", 50)) * time.Millisecond,

		ChallengeDuration: time.Duration(getEnvAsInt("CHALLENGE_DURATION_MINUTES", 180)) * time.Minute,
		MaxQuestions:      getEnvAsInt("MAX_QUESTIONS", 30),

		JudgeBackend:    strings.ToLower(getEnv("JUDGE_BACKEND", JudgeBackendLocal)),
		JudgeAPIURL:     getEnv("JUDGE_API_URL", "http://localhost:9000/judge"),
		JudgeAPIToken:   getEnv("JUDGE_API_TOKEN", ""),
		JudgeAPITimeout: time.Duration(getEnvAsInt("JUDGE_API_TIMEOUT_SECONDS", 30)) * time.Second,
		TestCasesFile:   getEnv("TEST_CASES_FILE", "test_cases.yaml"),

		SandboxCommand:        getEnv("SANDBOX_COMMAND", "brocode"),
		SandboxTimeout:        time.Duration(getEnvAsInt("SANDBOX_TIMEOUT_SECONDS", 5)) * time.Second,
		SandboxScratchDir:     getEnv("SANDBOX_SCRATCH_DIR", os.TempDir()),
		SandboxFileSuffix:     getEnv("SANDBOX_FILE_SUFFIX", ".homie"),
		SandboxMaxConcurrency: getEnvAsInt("SANDBOX_MAX_CONCURRENCY", 8),

		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes:    int64(getEnvAsInt("UPLOAD_MAX_BYTES", 1<<20)),
		AllowedExtensions: getEnvAsList("ALLOWED_EXTENSIONS", []string{".homie"}),

		CORSOrigins:             getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		LeaderboardAllowedHosts: getEnvAsList("LEADERBOARD_ALLOWED_HOSTS", []string{"127.0.0.1", "::1"}),
		ExecuteRatePerMinute:    getEnvAsInt("EXECUTE_RATE_PER_MINUTE", 30),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.JudgeBackend {
	case JudgeBackendLocal, JudgeBackendRemote:
	default:
		return fmt.Errorf("JUDGE_BACKEND must be %q or %q, got %q", JudgeBackendLocal, JudgeBackendRemote, c.JudgeBackend)
	}
	switch c.DBDriver {
	case DBDriverPostgres, DBDriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DBDriverPostgres, DBDriverMemory, c.DBDriver)
	}
	if c.ChallengeDuration <= 0 {
		return fmt.Errorf("CHALLENGE_DURATION_MINUTES must be positive")
	}
	if c.MaxQuestions <= 0 {
		return fmt.Errorf("MAX_QUESTIONS must be positive")
	}
	if c.SandboxMaxConcurrency <= 0 {
		c.SandboxMaxConcurrency = 1
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
