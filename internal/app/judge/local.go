package judge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brocode_arena/internal/app/sandbox"
	"brocode_arena/internal/common"
	"brocode_arena/internal/domain/model"

	"go.uber.org/zap"
)

// CodeRunner is the part of the sandbox the local judge needs.
type CodeRunner interface {
	Run(ctx context.Context, code, stdin string, timeout time.Duration) (sandbox.Outcome, error)
}

// Local judges code by running it against every catalog test case in order.
type Local struct {
	catalog Catalog
	runner  CodeRunner
	timeout time.Duration
	log     *zap.Logger
}

func NewLocal(catalog Catalog, runner CodeRunner, timeout time.Duration, log *zap.Logger) *Local {
	return &Local{catalog: catalog, runner: runner, timeout: timeout, log: log}
}

func (l *Local) Name() string { return "local" }

func (l *Local) Judge(ctx context.Context, questionID, code string) (Verdict, error) {
	entry, ok := l.catalog.Lookup(questionID)
	if !ok {
		return Verdict{}, fmt.Errorf("no test cases for %q: %w", questionID, common.ErrQuestionNotFound)
	}
	if len(entry.TestCases) == 0 {
		return Verdict{}, fmt.Errorf("question %q has an empty test case list: %w", questionID, common.ErrJudgeUnavailable)
	}

	verdict := Verdict{Result: 1}
	for i, tc := range entry.TestCases {
		out, err := l.runner.Run(ctx, code, tc.Input, l.timeout)
		if err != nil {
			return Verdict{}, err
		}

		expected := strings.TrimSpace(tc.Expected)
		report := model.CaseReport{
			Case:     i + 1,
			Outcome:  string(out.Status),
			Expected: expected,
			Actual:   out.Stdout,
		}
		switch out.Status {
		case sandbox.StatusOK:
			report.Passed = out.Stdout == expected
			if !report.Passed {
				report.Outcome = "wrong_answer"
			}
		case sandbox.StatusRuntimeError:
			report.Error = "Runtime Error: " + out.Stderr
		case sandbox.StatusTimeLimitExceeded:
			report.Error = "Time Limit Exceeded"
		}
		if !report.Passed {
			verdict.Result = 0
		}
		verdict.Cases = append(verdict.Cases, report)
	}

	l.log.Debug("local judge finished",
		zap.String("question_id", questionID),
		zap.Int("result", verdict.Result),
		zap.Int("cases", len(verdict.Cases)))
	return verdict, nil
}
