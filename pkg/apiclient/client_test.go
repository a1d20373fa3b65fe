package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves canned handlers and records the last Authorization
// header seen.
func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *string) {
	t.Helper()

	var lastAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastAuth = r.Header.Get("Authorization")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return New(srv.URL), &lastAuth
}

func writeEnvelope(w http.ResponseWriter, data any) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": "ok",
		"data":   data,
	})
}

func TestClient_Login(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "admin", req.Username)

		_ = json.NewEncoder(w).Encode(TokenResponse{
			AccessToken: "tok-123",
			TokenType:   "Bearer",
			ExpiresIn:   900,
		})
	})

	resp, err := client.Login("admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", resp.AccessToken)

	// The token is installed for subsequent requests.
	assert.Equal(t, "tok-123", client.token)
}

func TestClient_LoginRejected(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"code":    "UNAUTHORIZED",
			"message": "invalid credentials",
		})
	})

	_, err := client.Login("admin", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsAuthError())
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_ListUsers(t *testing.T) {
	client, lastAuth := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users", r.URL.Path)
		writeEnvelope(w, []User{
			{Name: "alice", Online: true},
			{Name: "bob", Online: false},
		})
	})
	client.WithToken("tok-123")

	users, err := client.ListUsers()
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", *lastAuth)
	assert.Equal(t, []User{
		{Name: "alice", Online: true},
		{Name: "bob", Online: false},
	}, users)
}

func TestClient_ListChannels(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/channels", r.URL.Path)
		writeEnvelope(w, []Channel{
			{Name: "lobby", Members: []string{"carol", "alice"}},
		})
	})

	channels, err := client.ListChannels()
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, []string{"carol", "alice"}, channels[0].Members)
}

func TestClient_Status(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/status", r.URL.Path)
		writeEnvelope(w, Status{
			UptimeSeconds:     42,
			ActiveConnections: 2,
			RegisteredUsers:   5,
			Channels:          1,
		})
	})

	status, err := client.Status()
	require.NoError(t, err)
	assert.Equal(t, int64(42), status.UptimeSeconds)
	assert.Equal(t, int32(2), status.ActiveConnections)
}

func TestClient_PlainTextError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	})

	_, err := client.Status()
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "bad gateway")
}
