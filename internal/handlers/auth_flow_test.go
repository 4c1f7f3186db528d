package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blognest/api/internal/config"
	"blognest/api/internal/security"
	"blognest/api/internal/service"
	"blognest/api/internal/testutil"
)

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
}

func newTestServer() (*gin.Engine, *testutil.FakeStore) {
	gin.SetMode(gin.TestMode)

	store := testutil.NewFakeStore()
	media := &testutil.FakeMedia{}
	logger := zerolog.Nop()
	cfg := &config.AppConfig{Environment: "test"}
	tokens := security.NewTokenIssuer("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	hs := HandlerSet{
		log:     logger,
		cfg:     cfg,
		auth:    service.NewAuthService(store, media, tokens, logger),
		profile: service.NewProfileService(store, store.Subscriptions(), media, nil, logger),
		blog:    service.NewBlogService(store.Posts(), store.Categories()),
		tokens:  tokens,
		users:   store,
	}

	engine := gin.New()
	hs.Routes(engine.Group("/api"))
	return engine, store
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func registerAmy(t *testing.T, engine *gin.Engine) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"userName": "amy",
		"email":    "a@x.com",
		"fullName": "Amy",
		"password": "pw1",
	} {
		require.NoError(t, writer.WriteField(field, value))
	}
	part, err := writer.CreateFormFile("avatar", "avatar.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("avatar-bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func cookieByName(t *testing.T, res *http.Response, name string) *http.Cookie {
	t.Helper()

	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// Full session lifecycle: register, login, rotate, replay a stale token.
func TestSessionLifecycle(t *testing.T) {
	engine, _ := newTestServer()

	// Register: 201, sanitized body.
	w := registerAmy(t, engine)
	require.Equal(t, http.StatusCreated, w.Code)
	env := decodeEnvelope(t, w)
	assert.True(t, env.Success)
	assert.Equal(t, http.StatusCreated, env.StatusCode)
	body := w.Body.String()
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "refreshToken")

	// Login: 200, both cookies, user plus tokens in the body.
	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/login", gin.H{
		"userName": "amy",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	res := w.Result()
	accessCookie := cookieByName(t, res, "accessToken")
	refreshCookie := cookieByName(t, res, "refreshToken")
	assert.True(t, accessCookie.HttpOnly)
	assert.True(t, accessCookie.Secure)
	assert.True(t, refreshCookie.HttpOnly)
	assert.True(t, refreshCookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, refreshCookie.SameSite)
	assert.Positive(t, refreshCookie.MaxAge)

	var loginData struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		User         struct {
			UserName string `json:"userName"`
		} `json:"user"`
	}
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &loginData))
	assert.Equal(t, "amy", loginData.User.UserName)
	assert.NotEmpty(t, loginData.AccessToken)
	assert.Equal(t, refreshCookie.Value, loginData.RefreshToken)

	// Refresh with the cookie: 200 and a new, distinct pair.
	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/refresh-token", nil, refreshCookie)
	require.Equal(t, http.StatusOK, w.Code)

	var refreshData struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &refreshData))
	assert.NotEqual(t, loginData.RefreshToken, refreshData.RefreshToken)
	assert.NotEmpty(t, refreshData.AccessToken)

	// Replaying the original, already-rotated token: 401.
	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/refresh-token", nil, refreshCookie)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	env = decodeEnvelope(t, w)
	assert.False(t, env.Success)
}

func TestLoginFailures(t *testing.T) {
	engine, _ := newTestServer()
	registerAmy(t, engine)

	tests := []struct {
		name       string
		body       gin.H
		wantStatus int
	}{
		{
			name:       "unknown identifier",
			body:       gin.H{"userName": "ghost", "password": "pw1"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "wrong password",
			body:       gin.H{"userName": "amy", "password": "nope"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing password",
			body:       gin.H{"userName": "amy"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, engine, http.MethodPost, "/api/v1/users/login", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			env := decodeEnvelope(t, w)
			assert.False(t, env.Success)
			assert.Equal(t, tt.wantStatus, env.StatusCode)
			// No tokens on any failure path.
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	engine, _ := newTestServer()

	w := registerAmy(t, engine)
	require.Equal(t, http.StatusCreated, w.Code)

	w = registerAmy(t, engine)
	assert.Equal(t, http.StatusConflict, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
}

func TestRefreshFromBodyFallback(t *testing.T) {
	engine, _ := newTestServer()
	registerAmy(t, engine)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/users/login", gin.H{
		"userName": "amy",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	refreshCookie := cookieByName(t, w.Result(), "refreshToken")

	// No cookie attached: the handler falls back to the body field.
	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/refresh-token", gin.H{
		"refreshToken": refreshCookie.Value,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshWithoutToken(t *testing.T) {
	engine, _ := newTestServer()

	w := doJSON(t, engine, http.MethodPost, "/api/v1/users/refresh-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutes(t *testing.T) {
	engine, _ := newTestServer()
	registerAmy(t, engine)

	w := doJSON(t, engine, http.MethodGet, "/api/v1/users/current-user", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	login := doJSON(t, engine, http.MethodPost, "/api/v1/users/login", gin.H{
		"userName": "amy",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, login.Code)
	accessCookie := cookieByName(t, login.Result(), "accessToken")

	// Access token via cookie.
	w = doJSON(t, engine, http.MethodGet, "/api/v1/users/current-user", nil, accessCookie)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userName":"amy"`)

	// Access token via Authorization header.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+accessCookie.Value)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Garbage token.
	w = doJSON(t, engine, http.MethodGet, "/api/v1/users/current-user", nil, &http.Cookie{
		Name:  "accessToken",
		Value: "garbage",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsCookiesAndRevokes(t *testing.T) {
	engine, _ := newTestServer()
	registerAmy(t, engine)

	login := doJSON(t, engine, http.MethodPost, "/api/v1/users/login", gin.H{
		"userName": "amy",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, login.Code)
	accessCookie := cookieByName(t, login.Result(), "accessToken")
	refreshCookie := cookieByName(t, login.Result(), "refreshToken")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/users/logout", nil, accessCookie)
	require.Equal(t, http.StatusOK, w.Code)

	for _, cookie := range w.Result().Cookies() {
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}

	// The pre-logout refresh token is revoked.
	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/refresh-token", nil, refreshCookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	engine, _ := newTestServer()
	registerAmy(t, engine)

	login := doJSON(t, engine, http.MethodPost, "/api/v1/users/login", gin.H{
		"userName": "amy",
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, login.Code)
	accessCookie := cookieByName(t, login.Result(), "accessToken")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/users/change-password", gin.H{
		"oldPassword": "wrong",
		"newPassword": "pw2",
	}, accessCookie)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/change-password", gin.H{
		"oldPassword": "pw1",
		"newPassword": "pw2",
	}, accessCookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/login", gin.H{
		"userName": "amy",
		"password": "pw2",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	engine, _ := newTestServer()

	// Multipart with fields but no avatar file.
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("userName", "amy"))
	require.NoError(t, writer.WriteField("email", "a@x.com"))
	require.NoError(t, writer.WriteField("fullName", "Amy"))
	require.NoError(t, writer.WriteField("password", "pw1"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "avatar"))
}
