package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// registerAndLogin creates a user through the public API and returns the
// access token cookie of a fresh session.
func registerAndLogin(t *testing.T, engine *gin.Engine, userName, email string) *http.Cookie {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"userName": userName,
		"email":    email,
		"fullName": "User " + userName,
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
	require.Equal(t, http.StatusCreated, w.Code)

	login := doJSON(t, engine, http.MethodPost, "/api/v1/users/login", gin.H{
		"userName": userName,
		"password": "pw1",
	})
	require.Equal(t, http.StatusOK, login.Code)
	return cookieByName(t, login.Result(), "accessToken")
}

func TestUpdateProfileEndpoint(t *testing.T) {
	engine, _ := newTestServer()
	amy := registerAndLogin(t, engine, "amy", "a@x.com")
	registerAndLogin(t, engine, "bob", "b@x.com")

	w := doJSON(t, engine, http.MethodPatch, "/api/v1/users/update-profile", gin.H{
		"userName": "amy2",
		"fullName": "Amy Two",
		"email":    "a2@x.com",
	}, amy)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"userName":"amy2"`)

	// Taking bob's username conflicts.
	w = doJSON(t, engine, http.MethodPatch, "/api/v1/users/update-profile", gin.H{
		"userName": "bob",
		"fullName": "Amy Two",
		"email":    "a2@x.com",
	}, amy)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Invalid email fails binding.
	w = doJSON(t, engine, http.MethodPatch, "/api/v1/users/update-profile", gin.H{
		"userName": "amy2",
		"fullName": "Amy Two",
		"email":    "not-an-email",
	}, amy)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChannelEndpoints(t *testing.T) {
	engine, _ := newTestServer()
	amy := registerAndLogin(t, engine, "amy", "a@x.com")
	bob := registerAndLogin(t, engine, "bob", "b@x.com")

	w := doJSON(t, engine, http.MethodPost, "/api/v1/users/channel/bob/subscribe", nil, amy)
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate subscription conflicts, self-subscription is rejected.
	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/channel/bob/subscribe", nil, amy)
	assert.Equal(t, http.StatusConflict, w.Code)
	w = doJSON(t, engine, http.MethodPost, "/api/v1/users/channel/amy/subscribe", nil, amy)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var profile struct {
		UserName               string `json:"userName"`
		SubscriberCount        int    `json:"subscriberCount"`
		SubscribedChannelCount int    `json:"subscribedChannelCount"`
		IsSubscribed           bool   `json:"isSubscribed"`
	}

	// Amy's view of bob: subscribed, one subscriber.
	w = doJSON(t, engine, http.MethodGet, "/api/v1/users/channel/bob", nil, amy)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "bob", profile.UserName)
	assert.Equal(t, 1, profile.SubscriberCount)
	assert.Equal(t, 0, profile.SubscribedChannelCount)
	assert.True(t, profile.IsSubscribed)

	// Bob's view of his own channel: not subscribed to himself.
	w = doJSON(t, engine, http.MethodGet, "/api/v1/users/channel/bob", nil, bob)
	require.Equal(t, http.StatusOK, w.Code)
	env = decodeEnvelope(t, w)
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.False(t, profile.IsSubscribed)

	w = doJSON(t, engine, http.MethodGet, "/api/v1/users/channel/ghost", nil, amy)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, engine, http.MethodDelete, "/api/v1/users/channel/bob/subscribe", nil, amy)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, engine, http.MethodDelete, "/api/v1/users/channel/bob/subscribe", nil, amy)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAvatarEndpoint(t *testing.T) {
	engine, _ := newTestServer()
	amy := registerAndLogin(t, engine, "amy", "a@x.com")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("avatar", "new.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("new-avatar"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(amy)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "new.png")

	// Missing file.
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/users/avatar", nil)
	req.AddCookie(amy)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
