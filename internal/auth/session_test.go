package auth

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/arbitrage-pro/dashboard/internal/apiclient"
	"github.com/arbitrage-pro/dashboard/pkg/types"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockAuthAPI simulates the backend's auth endpoints. Access tokens are
// "access-N"; only the latest one is accepted.
type mockAuthAPI struct {
	*httptest.Server
	mu            sync.Mutex
	currentToken  string
	issued        int
	refreshCalls  int
	logoutCalls   int
	refreshStatus int // forced status for /auth/refresh, 0 = normal
	lastCSRF      string
}

func newMockAuthAPI(t *testing.T) *mockAuthAPI {
	t.Helper()
	m := &mockAuthAPI{}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		m.issue(w, &types.User{ID: "u1", Name: "Ada", Email: body["email"]})
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		m.issue(w, &types.User{ID: "u2", Name: body["name"], Email: body["email"]})
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.refreshCalls++
		m.lastCSRF = r.Header.Get(CSRFHeaderName)
		forced := m.refreshStatus
		m.mu.Unlock()

		if forced != 0 {
			w.WriteHeader(forced)
			return
		}
		if _, err := r.Cookie(RefreshCookieName); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		m.issue(w, nil)
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if !m.authorized(r) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user":{"_id":"u1","name":"Ada","email":"ada@example.com"}}`))
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.logoutCalls++
		m.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	m.Server = httptest.NewServer(mux)
	t.Cleanup(m.Close)
	return m
}

func (m *mockAuthAPI) issue(w http.ResponseWriter, user *types.User) {
	m.mu.Lock()
	m.issued++
	m.currentToken = "access-" + strings.Repeat("x", m.issued)
	token := m.currentToken
	m.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: RefreshCookieName, Value: "refresh-1", Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: CSRFCookieName, Value: "csrf-1", Path: "/"})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(types.AuthResponse{AccessToken: token, User: user})
}

func (m *mockAuthAPI) authorized(r *http.Request) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return r.Header.Get("Authorization") == "Bearer "+m.currentToken
}

// rotate invalidates the current access token without touching the refresh cookie.
func (m *mockAuthAPI) rotate() {
	m.mu.Lock()
	m.currentToken = "revoked"
	m.mu.Unlock()
}

func (m *mockAuthAPI) forceRefreshStatus(status int) {
	m.mu.Lock()
	m.refreshStatus = status
	m.mu.Unlock()
}

func (m *mockAuthAPI) csrf() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastCSRF
}

func (m *mockAuthAPI) refreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshCalls
}

func (m *mockAuthAPI) logoutCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logoutCalls
}

func newTestSession(t *testing.T, baseURL string, store TokenStore) *Session {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	client := apiclient.New(&apiclient.Config{
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
		Jar:     jar,
		Logger:  zap.NewNop(),
	})
	return NewSession(&Config{Client: client, Store: store, Logger: zap.NewNop()})
}

func TestSession_Login(t *testing.T) {
	api := newMockAuthAPI(t)
	store := &MemoryTokenStore{}
	session := newTestSession(t, api.URL, store)

	user, err := session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "ada@example.com", user.Email)
	assert.True(t, session.IsAuthenticated())

	stored, _ := store.Load()
	require.NotNil(t, stored)
	assert.Equal(t, session.AccessToken(), stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.Cookies[RefreshCookieName])
	assert.Equal(t, "csrf-1", stored.Cookies[CSRFCookieName])
}

func TestSession_LoginWrongPassword(t *testing.T) {
	api := newMockAuthAPI(t)
	session := newTestSession(t, api.URL, nil)

	_, err := session.Login(context.Background(), "ada@example.com", "nope")

	var apiErr *types.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
	assert.False(t, session.IsAuthenticated())
}

func TestSession_Register(t *testing.T) {
	api := newMockAuthAPI(t)
	session := newTestSession(t, api.URL, nil)

	user, err := session.Register(context.Background(), "Grace", "grace@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "Grace", user.Name)
	assert.True(t, session.IsAuthenticated())
}

func TestSession_RefreshSendsCSRF(t *testing.T) {
	api := newMockAuthAPI(t)
	session := newTestSession(t, api.URL, nil)

	_, err := session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	before := session.AccessToken()

	err = session.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, before, session.AccessToken())
	assert.Equal(t, "csrf-1", api.csrf())
	assert.Equal(t, "ada@example.com", session.User().Email, "user kept when refresh omits it")
}

func TestSession_ExpiredAccessTokenRefreshedTransparently(t *testing.T) {
	api := newMockAuthAPI(t)
	session := newTestSession(t, api.URL, nil)

	_, err := session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	api.rotate()

	user, err := session.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, 1, api.refreshCount())
	assert.True(t, session.IsAuthenticated())
}

func TestSession_RefreshRejectedLogsOut(t *testing.T) {
	api := newMockAuthAPI(t)
	session := newTestSession(t, api.URL, nil)

	loggedOut := 0
	session.OnLogout(func() { loggedOut++ })

	_, err := session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	api.rotate()
	api.forceRefreshStatus(http.StatusForbidden)

	_, err = session.Me(context.Background())
	assert.ErrorIs(t, err, types.ErrSessionExpired)
	assert.False(t, session.IsAuthenticated())
	assert.Equal(t, 1, loggedOut)
}

func TestSession_RefreshRateLimitedKeepsSession(t *testing.T) {
	api := newMockAuthAPI(t)
	session := newTestSession(t, api.URL, nil)

	loggedOut := 0
	session.OnLogout(func() { loggedOut++ })

	_, err := session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	token := session.AccessToken()

	api.rotate()
	api.forceRefreshStatus(http.StatusTooManyRequests)

	_, err = session.Me(context.Background())
	assert.ErrorIs(t, err, types.ErrRateLimited)
	assert.True(t, session.IsAuthenticated())
	assert.Equal(t, token, session.AccessToken())
	assert.Equal(t, 0, loggedOut)
}

func TestSession_Logout(t *testing.T) {
	api := newMockAuthAPI(t)
	store := &MemoryTokenStore{}
	session := newTestSession(t, api.URL, store)

	hookRan := false
	session.OnLogout(func() { hookRan = true })

	_, err := session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	err = session.Logout(context.Background())
	require.NoError(t, err)

	assert.False(t, session.IsAuthenticated())
	assert.Nil(t, session.User())
	assert.True(t, hookRan)
	assert.Equal(t, 1, api.logoutCount())

	stored, _ := store.Load()
	assert.Nil(t, stored)
}

func TestSession_RestoreFromFile(t *testing.T) {
	api := newMockAuthAPI(t)
	dir := t.TempDir()

	first := newTestSession(t, api.URL, NewFileTokenStore(dir))
	_, err := first.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	// New process: fresh jar, same state dir.
	second := newTestSession(t, api.URL, NewFileTokenStore(dir))
	err = second.Restore(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.AccessToken(), second.AccessToken())
	assert.Equal(t, "ada@example.com", second.User().Email)

	// The restored refresh cookie still works.
	api.rotate()
	_, err = second.Me(context.Background())
	assert.NoError(t, err)
}

func TestSession_RestoreNothingStored(t *testing.T) {
	api := newMockAuthAPI(t)
	session := newTestSession(t, api.URL, NewFileTokenStore(t.TempDir()))

	err := session.Restore(context.Background())
	assert.NoError(t, err)
	assert.False(t, session.IsAuthenticated())
}

func TestDecodeUser(t *testing.T) {
	t.Run("wrapped", func(t *testing.T) {
		u, err := decodeUser([]byte(`{"user":{"_id":"1","name":"A","email":"a@x.io"}}`))
		require.NoError(t, err)
		assert.Equal(t, "1", u.ID)
	})

	t.Run("bare", func(t *testing.T) {
		u, err := decodeUser([]byte(`{"_id":"2","name":"B","email":"b@x.io"}`))
		require.NoError(t, err)
		assert.Equal(t, "b@x.io", u.Email)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := decodeUser([]byte(`{}`))
		assert.Error(t, err)
	})
}
