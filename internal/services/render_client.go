package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storyreel/backend/internal/apperrors"
	"go.uber.org/zap"
)

// RenderClient talks to the external video-rendering worker. Each call is a
// single best-effort attempt; retry policy belongs to the batch layer, which
// deliberately has none.
type RenderClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewRenderClient(baseURL string, timeout time.Duration, log *zap.Logger) *RenderClient {
	if timeout <= 0 {
		timeout = 4 * time.Minute
	}
	return &RenderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type CustomStory struct {
	Title     string `json:"title"`
	Story     string `json:"story"`
	Subreddit string `json:"subreddit"`
	Author    string `json:"author"`
}

type GenerateRequest struct {
	Subreddit     string       `json:"subreddit"`
	IsCliffhanger bool         `json:"isCliffhanger"`
	Voice         string       `json:"voice"`
	Background    string       `json:"background"`
	CustomStory   *CustomStory `json:"customStory,omitempty"`
}

type generateResponse struct {
	Success bool   `json:"success"`
	VideoID string `json:"videoId"`
	Error   string `json:"error"`
}

// GenerateVideo dispatches one generation request and returns the worker's
// video id. Non-2xx statuses and success:false both come back as upstream
// errors.
func (c *RenderClient) GenerateVideo(ctx context.Context, req GenerateRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/generate-video", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", apperrors.Upstream(err, "render worker unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", apperrors.Upstream(nil, "render worker returned %d: %s", resp.StatusCode, string(b))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", apperrors.Upstream(err, "invalid render worker response")
	}
	if !result.Success || result.VideoID == "" {
		msg := result.Error
		if msg == "" {
			msg = "generation rejected"
		}
		return "", apperrors.Upstream(nil, "%s", msg)
	}
	return result.VideoID, nil
}
