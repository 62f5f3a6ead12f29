package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/storyreel/backend/internal/apperrors"
	"go.uber.org/zap"
)

const tiktokTokenURL = "https://open.tiktokapis.com/v2/oauth/token/"

// RefreshedToken is a provider's answer to a refresh grant.
type RefreshedToken struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// TokenRefresher is the provider collaborator the credential sweep calls.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*RefreshedToken, error)
}

// TikTokClient exchanges refresh tokens against the TikTok OAuth endpoint.
type TikTokClient struct {
	clientKey    string
	clientSecret string
	tokenURL     string
	httpClient   *http.Client
	log          *zap.Logger
}

func NewTikTokClient(clientKey, clientSecret string, timeout time.Duration, log *zap.Logger) *TikTokClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TikTokClient{
		clientKey:    clientKey,
		clientSecret: clientSecret,
		tokenURL:     tiktokTokenURL,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

type tiktokTokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *TikTokClient) Refresh(ctx context.Context, refreshToken string) (*RefreshedToken, error) {
	form := url.Values{}
	form.Set("client_key", c.clientKey)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Upstream(err, "tiktok token endpoint unavailable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperrors.Upstream(nil, "tiktok token endpoint returned %d: %s", resp.StatusCode, string(b))
	}

	var result tiktokTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Upstream(err, "invalid tiktok token response")
	}
	if result.Error != "" || result.AccessToken == "" {
		return nil, apperrors.Upstream(nil, "tiktok refresh rejected: %s %s", result.Error, result.ErrorDescription)
	}

	return &RefreshedToken{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}
