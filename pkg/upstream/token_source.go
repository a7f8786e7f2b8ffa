package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HTTPTokenSource refreshes credentials against the renderer's auth endpoint.
type HTTPTokenSource struct {
	baseURL    string
	httpClient Doer
}

// NewHTTPTokenSource points the source at the renderer base URL.
func NewHTTPTokenSource(baseURL string, httpClient Doer) (*HTTPTokenSource, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("token source base url is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPTokenSource{baseURL: trimmed, httpClient: httpClient}, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken string `json:"access_token"`
}

// Refresh exchanges the refresh token for a new access token.
func (s *HTTPTokenSource) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", errors.New("refresh token is required")
	}

	payload, err := json.Marshal(refreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", fmt.Errorf("encoding refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling refresh endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("refresh endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading refresh response: %w", err)
	}

	var decoded refreshResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return "", fmt.Errorf("decoding refresh response: %w", err)
	}
	if decoded.AccessToken == "" {
		return "", errors.New("refresh response missing access token")
	}
	return decoded.AccessToken, nil
}
