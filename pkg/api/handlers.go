package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"github.com/marmos91/parley/internal/logger"
	"github.com/marmos91/parley/pkg/api/auth"
	"github.com/marmos91/parley/pkg/channel"
	"github.com/marmos91/parley/pkg/identity"
)

// StatsProvider exposes the live connection counters the status endpoint
// reports. The chat adapter implements it.
type StatsProvider interface {
	// ActiveConnections returns the current number of live chat sessions.
	ActiveConnections() int32
}

// handlers bundles the API endpoints with their dependencies.
type handlers struct {
	users      *identity.Registry
	channels   *channel.Registry
	stats      StatsProvider
	jwtService *auth.JWTService

	adminUsername   string
	adminCredential identity.Credential

	startedAt time.Time
}

// loginRequest is the body of POST /api/v1/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// statusData is the payload of GET /api/v1/status.
type statusData struct {
	UptimeSeconds     int64 `json:"uptime_seconds"`
	ActiveConnections int32 `json:"active_connections"`
	RegisteredUsers   int   `json:"registered_users"`
	Channels          int   `json:"channels"`
}

// health handles GET /health. Unauthenticated liveness probe.
func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthyResponse(map[string]string{
		"service": "parley",
	}))
}

// login handles POST /api/v1/auth/login.
//
// Both failure modes (unknown username, wrong password) produce the same 401
// so the endpoint leaks nothing about the admin username. The username check
// is constant-time for the same reason.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body")
		return
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.adminUsername)) == 1
	passwordOK := h.adminCredential.Verify(req.Password)
	if !usernameOK || !passwordOK {
		logger.Warn("Admin login rejected", "remote_addr", r.RemoteAddr)
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
		return
	}

	token, err := h.jwtService.Issue(h.adminUsername)
	if err != nil {
		logger.Error("Failed to issue admin token", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "failed to issue token")
		return
	}

	logger.Info("Admin login", "username", h.adminUsername, "remote_addr", r.RemoteAddr)
	writeJSON(w, http.StatusOK, token)
}

// listUsers handles GET /api/v1/users. Returns all registered users sorted by
// name with their online flag.
func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(h.users.List()))
}

// listChannels handles GET /api/v1/channels. Returns all channels sorted by
// name with member names in join order.
func (h *handlers) listChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse(h.channels.List()))
}

// status handles GET /api/v1/status.
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	var active int32
	if h.stats != nil {
		active = h.stats.ActiveConnections()
	}

	writeJSON(w, http.StatusOK, okResponse(statusData{
		UptimeSeconds:     int64(time.Since(h.startedAt).Seconds()),
		ActiveConnections: active,
		RegisteredUsers:   h.users.Count(),
		Channels:          h.channels.Count(),
	}))
}
