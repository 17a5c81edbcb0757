package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"brocode_arena/internal/common"
	"brocode_arena/internal/platform/metrics"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

type Status string

const (
	StatusOK                Status = "ok"
	StatusRuntimeError      Status = "runtime_error"
	StatusTimeLimitExceeded Status = "time_limit_exceeded"
)

// Outcome is the result of one interpreter run. Wrong answers, crashes and
// timeouts are outcomes; only infrastructure failures come back as errors.
type Outcome struct {
	Status   Status
	Stdout   string // trimmed
	Stderr   string // trimmed
	Duration time.Duration
}

func (o Outcome) Succeeded() bool { return o.Status == StatusOK }

type Options struct {
	Command        string // interpreter, shell-split; the scratch path is appended
	ScratchDir     string
	FileSuffix     string
	DefaultTimeout time.Duration
	MaxConcurrency int
}

type Runner struct {
	program        string
	args           []string
	scratchDir     string
	suffix         string
	defaultTimeout time.Duration
	slots          *semaphore.Weighted
	log            *zap.Logger
}

func NewRunner(opts Options, log *zap.Logger) (*Runner, error) {
	parts, err := shlex.Split(opts.Command)
	if err != nil {
		return nil, fmt.Errorf("parse sandbox command %q: %w", opts.Command, err)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("sandbox command is empty: %w", common.ErrSandboxConfiguration)
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = 5 * time.Second
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.ScratchDir == "" {
		opts.ScratchDir = os.TempDir()
	}
	return &Runner{
		program:        parts[0],
		args:           parts[1:],
		scratchDir:     opts.ScratchDir,
		suffix:         opts.FileSuffix,
		defaultTimeout: opts.DefaultTimeout,
		slots:          semaphore.NewWeighted(int64(opts.MaxConcurrency)),
		log:            log,
	}, nil
}

// Run executes code with stdin piped in. A non-positive timeout uses the
// runner default. The scratch file is removed before Run returns.
func (r *Runner) Run(ctx context.Context, code, stdin string, timeout time.Duration) (Outcome, error) {
	if timeout <= 0 {
		timeout = r.defaultTimeout
	}
	if err := r.slots.Acquire(ctx, 1); err != nil {
		return Outcome{}, err
	}
	defer r.slots.Release(1)

	path, err := r.writeScratch(code)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			r.log.Warn("failed to remove scratch file", zap.String("path", path), zap.Error(rmErr))
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string(nil), r.args...), path)
	cmd := exec.CommandContext(runCtx, r.program, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	isolate(cmd)
	cmd.WaitDelay = time.Second

	metrics.SandboxInFlight.Inc()
	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)
	metrics.SandboxInFlight.Dec()

	out := Outcome{
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: elapsed,
	}

	switch {
	case err == nil:
		out.Status = StatusOK
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		out.Status = StatusTimeLimitExceeded
	case ctx.Err() != nil:
		return Outcome{}, ctx.Err()
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
		r.log.Error("sandbox interpreter unavailable", zap.String("program", r.program), zap.Error(err))
		return Outcome{}, fmt.Errorf("interpreter %q: %w", r.program, common.ErrSandboxConfiguration)
	default:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return Outcome{}, fmt.Errorf("run interpreter: %w", err)
		}
		out.Status = StatusRuntimeError
	}

	metrics.SandboxRuns.WithLabelValues(string(out.Status)).Inc()
	return out, nil
}

func (r *Runner) writeScratch(code string) (string, error) {
	path := filepath.Join(r.scratchDir, "submission_"+uuid.NewString()+r.suffix)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	if _, err := f.WriteString(code); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close scratch file: %w", err)
	}
	return path, nil
}
