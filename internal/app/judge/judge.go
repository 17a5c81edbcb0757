// Package judge decides whether submitted code answers a question.
package judge

import (
	"context"
	"fmt"
	"time"

	"brocode_arena/internal/app/sandbox"
	"brocode_arena/internal/domain/model"
	"brocode_arena/internal/platform/config"
	"brocode_arena/internal/platform/metrics"

	"go.uber.org/zap"
)

// Verdict is the normalized judge answer. Result is 1 when every hidden test
// case passed and 0 otherwise.
type Verdict struct {
	Result int
	Cases  []model.CaseReport
}

func (v Verdict) Correct() bool { return v.Result == 1 }

// Gateway judges code for a question identified by its external id ("E01").
type Gateway interface {
	Judge(ctx context.Context, questionID, code string) (Verdict, error)
	Name() string
}

// New builds the backend named by cfg.JudgeBackend.
func New(cfg *config.Config, log *zap.Logger) (Gateway, error) {
	switch cfg.JudgeBackend {
	case config.JudgeBackendRemote:
		return NewRemote(cfg.JudgeAPIURL, cfg.JudgeAPIToken, cfg.JudgeAPITimeout, log), nil
	case config.JudgeBackendLocal:
		catalog, err := LoadCatalog(cfg.TestCasesFile)
		if err != nil {
			return nil, err
		}
		runner, err := sandbox.NewRunner(sandbox.Options{
			Command:        cfg.SandboxCommand,
			ScratchDir:     cfg.SandboxScratchDir,
			FileSuffix:     cfg.SandboxFileSuffix,
			DefaultTimeout: cfg.SandboxTimeout,
			MaxConcurrency: cfg.SandboxMaxConcurrency,
		}, log)
		if err != nil {
			return nil, err
		}
		return NewLocal(catalog, runner, cfg.SandboxTimeout, log), nil
	}
	return nil, fmt.Errorf("unknown judge backend %q", cfg.JudgeBackend)
}

// Instrumented wraps a Gateway with verdict and latency metrics.
func Instrumented(g Gateway) Gateway {
	return instrumented{next: g}
}

type instrumented struct {
	next Gateway
}

func (i instrumented) Name() string { return i.next.Name() }

func (i instrumented) Judge(ctx context.Context, questionID, code string) (Verdict, error) {
	start := time.Now()
	v, err := i.next.Judge(ctx, questionID, code)
	metrics.JudgeDuration.WithLabelValues(i.next.Name()).Observe(float64(time.Since(start).Milliseconds()))

	outcome := "wrong"
	switch {
	case err != nil:
		outcome = "error"
	case v.Correct():
		outcome = "correct"
	}
	metrics.JudgeVerdicts.WithLabelValues(i.next.Name(), outcome).Inc()
	return v, err
}
