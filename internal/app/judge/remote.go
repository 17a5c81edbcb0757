package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"brocode_arena/internal/common"

	"go.uber.org/zap"
)

type remoteRequest struct {
	QuestionID string `json:"question_id"`
	CodeAnswer string `json:"code_answer"`
}

type remoteResponse struct {
	Result *int `json:"result"`
}

// Remote posts code to an external judge service.
type Remote struct {
	url    string
	token  string
	client *http.Client
	log    *zap.Logger
}

func NewRemote(url, token string, timeout time.Duration, log *zap.Logger) *Remote {
	return &Remote{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

func (r *Remote) Name() string { return "remote" }

func (r *Remote) Judge(ctx context.Context, questionID, code string) (Verdict, error) {
	body, err := json.Marshal(remoteRequest{QuestionID: questionID, CodeAnswer: code})
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to marshal judge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("judge request failed", zap.String("url", r.url), zap.Error(err))
		return Verdict{}, fmt.Errorf("%w: %v", common.ErrJudgeUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		r.log.Warn("judge returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return Verdict{}, fmt.Errorf("%w: status %d", common.ErrJudgeUnavailable, resp.StatusCode)
	}

	var parsed remoteResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return Verdict{}, fmt.Errorf("%w: malformed response: %v", common.ErrJudgeUnavailable, err)
	}
	if parsed.Result == nil || (*parsed.Result != 0 && *parsed.Result != 1) {
		return Verdict{}, fmt.Errorf("%w: response has no valid result", common.ErrJudgeUnavailable)
	}
	return Verdict{Result: *parsed.Result}, nil
}
