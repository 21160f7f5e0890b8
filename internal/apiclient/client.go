package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arbitrage-pro/dashboard/pkg/types"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Authenticator supplies bearer tokens and recovers from expired ones.
// auth.Session implements it.
type Authenticator interface {
	// AccessToken returns the current bearer token, or "" when logged out.
	AccessToken() string

	// Refresh obtains a new access token. A *types.APIError with status 429
	// means the session is still valid and must be kept.
	Refresh(ctx context.Context) error

	// Expire drops the session after an unrecoverable auth failure.
	// Must be idempotent.
	Expire(ctx context.Context)
}

// Client is an HTTP client for the ArbiTrage Pro REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger

	mu             sync.RWMutex
	auth           Authenticator
	refreshGroup   singleflight.Group
	refreshTimeout time.Duration
}

// Config holds API client configuration.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	RateLimitRPS   float64 // 0 disables pacing
	RateLimitBurst int
	Jar            http.CookieJar // Carries the refresh_token and csrf_token cookies
	Logger         *zap.Logger
}

const userAgent = "arbitrage-pro-dashboard/1.0"

// maxErrorMessageRunes caps raw (non-JSON) error bodies in APIError.Message.
const maxErrorMessageRunes = 200

// New creates a new API client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     cfg.Jar,
		},
		limiter:        limiter,
		logger:         cfg.Logger,
		refreshTimeout: timeout,
	}
}

// SetAuthenticator attaches the session used for bearer tokens and refresh.
func (c *Client) SetAuthenticator(auth Authenticator) {
	c.mu.Lock()
	c.auth = auth
	c.mu.Unlock()
}

func (c *Client) authenticator() Authenticator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.auth
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CookieJar returns the jar shared by all requests, or nil.
func (c *Client) CookieJar() http.CookieJar {
	return c.httpClient.Jar
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Do sends an authenticated request. A 401 triggers one token refresh and one
// retry; a second 401 expires the session and returns types.ErrSessionExpired.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	return c.DoWithHeaders(ctx, method, path, query, nil, body, out)
}

// DoWithHeaders is Do with extra request headers.
func (c *Client) DoWithHeaders(
	ctx context.Context,
	method, path string,
	query url.Values,
	headers http.Header,
	body interface{},
	out interface{},
) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
	}

	auth := c.authenticator()

	err := c.send(ctx, method, path, query, headers, payload, out, auth)
	if !errors.Is(err, types.ErrUnauthorized) || auth == nil || isAuthPath(path) {
		return err
	}

	c.logger.Debug("access-token-rejected",
		zap.String("method", method),
		zap.String("path", path))

	err = c.refresh(ctx, auth)
	if err != nil {
		return err
	}

	err = c.send(ctx, method, path, query, headers, payload, out, auth)
	if errors.Is(err, types.ErrUnauthorized) {
		c.logger.Warn("retry-after-refresh-unauthorized",
			zap.String("method", method),
			zap.String("path", path))
		auth.Expire(ctx)
		return fmt.Errorf("%w: %w", types.ErrSessionExpired, err)
	}

	return err
}

// refresh runs at most one Refresh at a time; concurrent callers share its
// result. The shared refresh is detached from the caller's context, so a
// caller that gives up stops waiting but neither cancels the refresh nor
// expires the session.
func (c *Client) refresh(ctx context.Context, auth Authenticator) error {
	ch := c.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.refreshTimeout)
		defer cancel()
		return nil, auth.Refresh(refreshCtx)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return fmt.Errorf("refresh access token: %w", ctx.Err())
	}

	err := res.Err
	if err == nil {
		RefreshTotal.WithLabelValues("ok").Inc()
		c.logger.Debug("access-token-refreshed", zap.Bool("shared", res.Shared))
		return nil
	}

	if errors.Is(err, types.ErrRateLimited) {
		RefreshTotal.WithLabelValues("rate_limited").Inc()
		c.logger.Warn("refresh-rate-limited-keeping-session", zap.Error(err))
		return fmt.Errorf("refresh access token: %w", err)
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		RefreshTotal.WithLabelValues("timeout").Inc()
		c.logger.Warn("refresh-timed-out-keeping-session", zap.Error(err))
		return fmt.Errorf("refresh access token: %w", err)
	}

	RefreshTotal.WithLabelValues("failed").Inc()
	c.logger.Warn("refresh-failed-expiring-session", zap.Error(err))
	auth.Expire(ctx)

	return fmt.Errorf("%w: %w", types.ErrSessionExpired, err)
}

func (c *Client) send(
	ctx context.Context,
	method, path string,
	query url.Values,
	headers http.Header,
	payload []byte,
	out interface{},
	auth Authenticator,
) error {
	err := c.limiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		if token := auth.AccessToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	c.logger.Debug("api-request",
		zap.String("method", method),
		zap.String("url", requestURL))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	RequestDurationSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		RequestsTotal.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	RequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &types.APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(respBody),
			Method:     method,
			Path:       path,
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	err = json.Unmarshal(respBody, out)
	if err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	return nil
}

// errorMessage extracts {"message"} or {"error"} from an error body, falling
// back to the trimmed raw body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	msg := strings.TrimSpace(string(body))
	if runes := []rune(msg); len(runes) > maxErrorMessageRunes {
		msg = string(runes[:maxErrorMessageRunes])
	}
	return msg
}

func isAuthPath(path string) bool {
	switch path {
	case "/auth/login", "/auth/register", "/auth/refresh", "/auth/logout":
		return true
	}
	return false
}
