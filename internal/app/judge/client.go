package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"algoarena/internal/common"
	"algoarena/internal/platform/logger"
	"algoarena/internal/platform/metrics"

	"go.uber.org/zap"
)

var (
	// ErrInfrastructure covers transport failures and responses we cannot use.
	ErrInfrastructure = fmt.Errorf("judge unavailable: %w", common.ErrServiceUnavailable)
	// ErrTimeout means the judge accepted the batch but did not finish within the poll bounds.
	ErrTimeout = fmt.Errorf("judge did not finish in time: %w", common.ErrGatewayTimeout)
)

const (
	defaultPollInterval    = time.Second
	defaultMaxWait         = 60 * time.Second
	defaultMaxPollAttempts = 60
	defaultRequestTimeout  = 10 * time.Second
)

type Config struct {
	BaseURL         string
	APIKey          string // sent as X-RapidAPI-Key when set
	APIHost         string // sent as X-RapidAPI-Host when set
	PollInterval    time.Duration
	MaxWait         time.Duration
	MaxPollAttempts int
	RequestTimeout  time.Duration
}

// Client talks to a Judge0-compatible batch API.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("judge base url is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = defaultMaxWait
	}
	if cfg.MaxPollAttempts <= 0 {
		cfg.MaxPollAttempts = defaultMaxPollAttempts
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.RequestTimeout}}, nil
}

// SubmitBatch sends all cases in one request and returns one token per case, in order.
func (c *Client) SubmitBatch(ctx context.Context, subs []Submission) ([]string, error) {
	if len(subs) == 0 {
		return nil, fmt.Errorf("empty batch: %w", common.ErrValidation)
	}
	body, err := json.Marshal(batchRequest{Submissions: subs})
	if err != nil {
		return nil, fmt.Errorf("marshal batch: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/submissions/batch?base64_encoded=false", body)
	if err != nil {
		metrics.JudgeErrors.WithLabelValues("submit").Inc()
		return nil, err
	}

	var tokens []tokenResponse
	if err := json.Unmarshal(raw, &tokens); err != nil {
		metrics.JudgeErrors.WithLabelValues("submit_decode").Inc()
		return nil, fmt.Errorf("decode batch tokens: %v: %w", err, ErrInfrastructure)
	}
	if len(tokens) != len(subs) {
		metrics.JudgeErrors.WithLabelValues("submit_decode").Inc()
		return nil, fmt.Errorf("expected %d tokens, got %d: %w", len(subs), len(tokens), ErrInfrastructure)
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		if t.Token == "" {
			metrics.JudgeErrors.WithLabelValues("submit_decode").Inc()
			return nil, fmt.Errorf("missing token at index %d: %w", i, ErrInfrastructure)
		}
		out[i] = t.Token
	}
	return out, nil
}

// PollUntilReady queries every token in one request per round until none is
// queued or processing. It gives up with ErrTimeout after MaxPollAttempts
// rounds or MaxWait, whichever comes first.
func (c *Client) PollUntilReady(ctx context.Context, tokens []string) ([]Result, error) {
	if len(tokens) == 0 {
		return nil, nil
	}
	path := "/submissions/batch?" + url.Values{
		"tokens":         {strings.Join(tokens, ",")},
		"base64_encoded": {"false"},
		"fields":         {"*"},
	}.Encode()

	deadline := time.Now().Add(c.cfg.MaxWait)
	for round := 1; ; round++ {
		results, err := c.fetch(ctx, path, tokens)
		if err != nil {
			metrics.JudgeErrors.WithLabelValues("poll").Inc()
			return nil, err
		}
		if allFinished(results) {
			metrics.JudgePollRounds.Observe(float64(round))
			return results, nil
		}

		if round >= c.cfg.MaxPollAttempts || !time.Now().Add(c.cfg.PollInterval).Before(deadline) {
			metrics.JudgeErrors.WithLabelValues("timeout").Inc()
			logger.Warn(ctx, "judge poll exhausted",
				zap.Int("rounds", round),
				zap.Int("tokens", len(tokens)),
			)
			return nil, ErrTimeout
		}

		timer := time.NewTimer(c.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) fetch(ctx context.Context, path string, tokens []string) ([]Result, error) {
	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp batchResultResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode batch results: %v: %w", err, ErrInfrastructure)
	}
	if resp.Submissions == nil {
		return nil, fmt.Errorf("batch results missing submissions: %w", ErrInfrastructure)
	}

	byToken := make(map[string]*Result, len(resp.Submissions))
	for _, r := range resp.Submissions {
		if r != nil && r.Token != "" {
			byToken[r.Token] = r
		}
	}
	out := make([]Result, len(tokens))
	for i, tok := range tokens {
		if r, ok := byToken[tok]; ok {
			out[i] = *r
			continue
		}
		// Some deployments omit the token field; fall back to position.
		if len(resp.Submissions) == len(tokens) && resp.Submissions[i] != nil && resp.Submissions[i].Token == "" {
			out[i] = *resp.Submissions[i]
			out[i].Token = tok
			continue
		}
		return nil, fmt.Errorf("no result for token %s: %w", tok, ErrInfrastructure)
	}
	for i := range out {
		if out[i].Code() == 0 {
			return nil, fmt.Errorf("result for token %s has no status: %w", out[i].Token, ErrInfrastructure)
		}
	}
	return out, nil
}

func allFinished(results []Result) bool {
	for _, r := range results {
		if r.Code().IsPending() {
			return false
		}
	}
	return true
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build judge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.cfg.APIKey)
	}
	if c.cfg.APIHost != "" {
		req.Header.Set("X-RapidAPI-Host", c.cfg.APIHost)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("judge request failed: %v: %w", err, ErrInfrastructure)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read judge response: %v: %w", err, ErrInfrastructure)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("judge returned status %d: %w", resp.StatusCode, ErrInfrastructure)
	}
	return raw, nil
}
