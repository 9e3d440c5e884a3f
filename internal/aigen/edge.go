package aigen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// EdgeConfig points at the hosted generate-comment function.
type EdgeConfig struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// EdgeClient calls the hosted generate-comment function, which generates the
// texts and stores them itself.
type EdgeClient struct {
	logger *slog.Logger
	url    string
	key    string
	http   *http.Client
}

type edgeResponse struct {
	Count   int    `json:"count"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewEdgeClient builds a client for cfg.
func NewEdgeClient(cfg EdgeConfig, logger *slog.Logger) *EdgeClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &EdgeClient{
		logger: logger.With("component", "ai_edge"),
		url:    strings.TrimRight(cfg.URL, "/"),
		key:    cfg.Key,
		http:   &http.Client{Timeout: timeout},
	}
}

// GenerateComments posts req to the function and returns the stored count.
func (c *EdgeClient) GenerateComments(ctx context.Context, req Request) (Result, error) {
	if err := validate(req); err != nil {
		return Result{}, err
	}
	if req.Platform == "" {
		req.Platform = "Other"
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal edge request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "misicuan-admin/edge-client")
	if c.key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.key)
		httpReq.Header.Set("apikey", c.key)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("edge request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var out edgeResponse
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &out); err != nil && res.StatusCode < 400 {
			return Result{}, fmt.Errorf("decode edge response: %w", err)
		}
	}
	if res.StatusCode >= 400 {
		msg := firstNonEmpty(out.Error, out.Message, strings.TrimSpace(string(body)))
		return Result{}, fmt.Errorf("edge function status %d: %s", res.StatusCode, msg)
	}
	if out.Error != "" {
		return Result{}, fmt.Errorf("edge function: %s", out.Error)
	}

	c.logger.Debug("edge generation done", "mission_id", req.MissionID, "count", out.Count)
	return Result{Count: out.Count}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "unknown error"
}
