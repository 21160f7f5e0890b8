package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/arbitrage-pro/dashboard/internal/apiclient"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	// CSRFCookieName is the readable cookie echoed back on refresh.
	CSRFCookieName = "csrf_token"
	// CSRFHeaderName carries the CSRF token on POST /auth/refresh.
	CSRFHeaderName = "X-CSRF-Token"
	// RefreshCookieName is the HTTP-only cookie holding the refresh token.
	RefreshCookieName = "refresh_token"
)

// Session is the process-wide authentication state: the current user and
// access token. It is the Authenticator of the API client.
type Session struct {
	client *apiclient.Client
	store  TokenStore
	logger *zap.Logger

	mu          sync.RWMutex
	user        *types.User
	accessToken string

	hooksMu  sync.Mutex
	onLogout []func()
}

// Config holds session configuration.
type Config struct {
	Client *apiclient.Client
	Store  TokenStore
	Logger *zap.Logger
}

// NewSession creates a logged-out session and registers it with the client.
func NewSession(cfg *Config) *Session {
	store := cfg.Store
	if store == nil {
		store = &MemoryTokenStore{}
	}

	s := &Session{
		client: cfg.Client,
		store:  store,
		logger: cfg.Logger,
	}
	cfg.Client.SetAuthenticator(s)

	return s
}

// OnLogout registers fn to run after every logout or session expiry.
func (s *Session) OnLogout(fn func()) {
	s.hooksMu.Lock()
	s.onLogout = append(s.onLogout, fn)
	s.hooksMu.Unlock()
}

// AccessToken returns the current bearer token.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// User returns a copy of the current user, or nil when logged out.
func (s *Session) User() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// IsAuthenticated reports whether an access token is held.
func (s *Session) IsAuthenticated() bool {
	return s.AccessToken() != ""
}

// Restore loads a persisted session and validates it with GET /auth/me.
// A missing session is not an error.
func (s *Session) Restore(ctx context.Context) error {
	stored, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if stored == nil || stored.AccessToken == "" {
		return nil
	}

	s.restoreCookies(stored.Cookies)

	s.mu.Lock()
	s.accessToken = stored.AccessToken
	s.user = stored.User
	s.mu.Unlock()

	user, err := s.Me(ctx)
	if err != nil {
		return fmt.Errorf("validate restored session: %w", err)
	}

	s.logger.Info("session-restored", zap.String("email", user.Email))
	return nil
}

// Login authenticates with email and password.
func (s *Session) Login(ctx context.Context, email, password string) (*types.User, error) {
	var resp types.AuthResponse
	err := s.client.Post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	err = s.establish(&resp)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	s.logger.Info("logged-in", zap.String("email", email))
	return s.User(), nil
}

// Register creates an account and logs it in.
func (s *Session) Register(ctx context.Context, name, email, password string) (*types.User, error) {
	var resp types.AuthResponse
	err := s.client.Post(ctx, "/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	err = s.establish(&resp)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.Info("registered", zap.String("email", email))
	return s.User(), nil
}

// Refresh exchanges the refresh-token cookie for a new access token.
func (s *Session) Refresh(ctx context.Context) error {
	headers := http.Header{}
	if csrf := s.cookie(CSRFCookieName); csrf != "" {
		headers.Set(CSRFHeaderName, csrf)
	}

	var resp types.AuthResponse
	err := s.client.DoWithHeaders(ctx, http.MethodPost, "/auth/refresh", nil, headers, struct{}{}, &resp)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	if resp.User == nil {
		resp.User = s.User()
	}

	err = s.establish(&resp)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	s.logger.Debug("session-refreshed")
	return nil
}

// Me fetches the current user. The backend answers either with the user
// object itself or with {"user": {...}}.
func (s *Session) Me(ctx context.Context) (*types.User, error) {
	var raw json.RawMessage
	err := s.client.Get(ctx, "/auth/me", nil, &raw)
	if err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}

	user, err := decodeUser(raw)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	return user, nil
}

// Logout tells the backend to revoke the refresh token, then clears local
// state regardless of the backend's answer.
func (s *Session) Logout(ctx context.Context) error {
	err := s.client.Post(ctx, "/auth/logout", nil, nil)
	if err != nil {
		s.logger.Warn("logout-request-failed", zap.Error(err))
	}

	s.clear()
	s.logger.Info("logged-out")
	return nil
}

// Expire drops the session after the API client gave up on it.
func (s *Session) Expire(ctx context.Context) {
	if !s.IsAuthenticated() {
		return
	}
	s.clear()
	s.logger.Warn("session-expired")
}

func (s *Session) establish(resp *types.AuthResponse) error {
	if resp.AccessToken == "" {
		return errors.New("response carried no access token")
	}

	s.mu.Lock()
	s.accessToken = resp.AccessToken
	if resp.User != nil {
		s.user = resp.User
	}
	stored := &StoredSession{
		AccessToken: s.accessToken,
		User:        s.user,
		Cookies:     s.backendCookies(),
	}
	s.mu.Unlock()

	err := s.store.Save(stored)
	if err != nil {
		s.logger.Warn("persist-session-failed", zap.Error(err))
	}

	return nil
}

func (s *Session) clear() {
	s.mu.Lock()
	s.accessToken = ""
	s.user = nil
	s.mu.Unlock()

	err := s.store.Clear()
	if err != nil {
		s.logger.Warn("clear-session-failed", zap.Error(err))
	}

	s.hooksMu.Lock()
	hooks := append([]func(){}, s.onLogout...)
	s.hooksMu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (s *Session) baseURL() *url.URL {
	u, err := url.Parse(s.client.BaseURL())
	if err != nil {
		return nil
	}
	return u
}

func (s *Session) cookie(name string) string {
	jar := s.client.CookieJar()
	base := s.baseURL()
	if jar == nil || base == nil {
		return ""
	}
	for _, c := range jar.Cookies(base) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (s *Session) backendCookies() map[string]string {
	cookies := make(map[string]string)
	for _, name := range []string{RefreshCookieName, CSRFCookieName} {
		if v := s.cookie(name); v != "" {
			cookies[name] = v
		}
	}
	if len(cookies) == 0 {
		return nil
	}
	return cookies
}

func (s *Session) restoreCookies(cookies map[string]string) {
	jar := s.client.CookieJar()
	base := s.baseURL()
	if jar == nil || base == nil || len(cookies) == 0 {
		return
	}

	list := make([]*http.Cookie, 0, len(cookies))
	for name, value := range cookies {
		list = append(list, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	jar.SetCookies(base, list)
}

func decodeUser(raw json.RawMessage) (*types.User, error) {
	var wrapped struct {
		User *types.User `json:"user"`
	}
	err := json.Unmarshal(raw, &wrapped)
	if err == nil && wrapped.User != nil {
		return wrapped.User, nil
	}

	var user types.User
	err = json.Unmarshal(raw, &user)
	if err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	if user.Email == "" && user.ID == "" {
		return nil, errors.New("unmarshal user: empty user object")
	}

	return &user, nil
}
