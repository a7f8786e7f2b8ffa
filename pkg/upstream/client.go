package upstream

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

	"github.com/restockhq/restock-backend/pkg/config"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"
	"github.com/restockhq/restock-backend/pkg/metrics"
)

// Doer abstracts the HTTP transport so tests can fake the renderer.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// TokenSource exchanges the long-lived refresh token for an access token.
type TokenSource interface {
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// SessionInvalidator is called when a refresh fails: the stored credential is
// useless and the operator has to re-authenticate.
type SessionInvalidator func(ctx context.Context)

// Request describes one outbound call to the document renderer.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response carries the decoded outcome of a successful call.
type Response struct {
	StatusCode int
	Body       []byte
}

// Options collects the client collaborators.
type Options struct {
	HTTPClient  Doer
	TokenSource TokenSource
	Invalidate  SessionInvalidator
	Metrics     *metrics.UpstreamMetrics
	Logger      *logger.Logger
	// AccessToken seeds the bearer credential; empty forces a refresh on the
	// first rejected call.
	AccessToken string
}

// Client wraps all outbound document renderer calls. Every call carries the
// current bearer credential; the first auth rejection of a call joins or
// starts the shared single-flight refresh and the call is replayed exactly
// once with the new credential.
type Client struct {
	httpClient     Doer
	baseURL        string
	requestTimeout time.Duration
	logger         *logger.Logger
	metrics        *metrics.UpstreamMetrics
	coordinator    *refreshCoordinator
}

// New validates configuration and assembles the client.
func New(cfg config.UpstreamConfig, opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("upstream base url is required")
	}
	if opts.TokenSource == nil {
		return nil, errors.New("upstream token source is required")
	}
	if opts.Logger == nil {
		return nil, errors.New("upstream logger is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	coordinator := newRefreshCoordinator(
		opts.TokenSource,
		cfg.RefreshToken,
		opts.AccessToken,
		cfg.RefreshTimeout,
		opts.Invalidate,
		opts.Metrics,
	)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		requestTimeout: cfg.RequestTimeout,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		coordinator:    coordinator,
	}, nil
}

// Do executes one call against the renderer. On the first 401 it resolves a
// fresh credential through the refresh coordinator and replays the call once;
// a second 401 is surfaced as an auth failure, never retried again.
func (c *Client) Do(ctx context.Context, operation string, req Request) (*Response, error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRequest(operation, time.Since(start))
	}()

	token := c.coordinator.Token()
	resp, err := c.execute(ctx, req, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("calling renderer %s", operation))
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return c.finish(ctx, operation, resp)
	}

	token, refreshErr := c.coordinator.Refresh(ctx, token)
	if refreshErr != nil {
		c.logger.Error(ctx, "credential refresh failed, session terminated", refreshErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, refreshErr, "credential refresh failed")
	}

	c.metrics.IncReplayedCall()
	resp, err = c.execute(ctx, req, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("replaying renderer %s", operation))
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "renderer rejected refreshed credential")
	}
	return c.finish(ctx, operation, resp)
}

func (c *Client) execute(ctx context.Context, req Request, token string) (*Response, error) {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &Response{StatusCode: httpResp.StatusCode, Body: data}, nil
}

func (c *Client) finish(ctx context.Context, operation string, resp *Response) (*Response, error) {
	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		c.logger.Warn(ctx, fmt.Sprintf("renderer %s returned %d", operation, resp.StatusCode))
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("renderer %s failed with status %d", operation, resp.StatusCode))
	case resp.StatusCode >= http.StatusBadRequest:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("renderer %s rejected request with status %d", operation, resp.StatusCode))
	default:
		return resp, nil
	}
}
