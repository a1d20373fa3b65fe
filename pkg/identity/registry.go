package identity

import (
	"sort"
	"sync"

	"github.com/marmos91/parley/internal/logger"
)

// Registry is the process-wide set of registered users.
//
// All methods are safe for concurrent use. Protocol failures (duplicate name,
// wrong password, user already bound) are reported as false returns rather
// than errors; the dispatcher turns them into the 0-form replies the wire
// protocol requires.
type Registry struct {
	mu    sync.RWMutex
	users map[string]*User
}

// NewRegistry creates an empty user registry.
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[string]*User),
	}
}

// Register creates a new user with the given name and password.
//
// Returns false if the name is already taken. Returns false and logs if the
// credential cannot be derived (secure random failure), so a client sees the
// same 0 reply as for a duplicate rather than a torn-down session.
func (r *Registry) Register(name, password string) bool {
	cred, err := NewCredential(password)
	if err != nil {
		logger.Error("Failed to derive credential", "user", name, "error", err)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[name]; exists {
		return false
	}

	r.users[name] = &User{Name: name, credential: cred}
	return true
}

// Find returns the user with the given name, or nil.
func (r *Registry) Find(name string) *User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.users[name]
}

// Login binds a connection to a user after verifying the password.
//
// Returns false if the user is already bound to another connection or the
// password does not verify. The already-bound case intentionally looks
// identical to a wrong password on the wire, so the reply cannot be used to
// probe who is currently online.
func (r *Registry) Login(u *User, session Pusher, password string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.session != nil {
		return false
	}
	if !u.credential.Verify(password) {
		return false
	}

	u.session = session
	return true
}

// Logout clears the user's session binding. Idempotent: logging out a user
// that is not bound is a no-op.
func (r *Registry) Logout(u *User) {
	if u == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	u.session = nil
}

// Bound returns the connection currently logged in as u, or nil.
func (r *Registry) Bound(u *User) Pusher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return u.session
}

// UserInfo is a point-in-time snapshot of a registered user, safe to hand
// outside the registry (admin API, logging).
type UserInfo struct {
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// List returns a snapshot of all registered users sorted by name.
func (r *Registry) List() []UserInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]UserInfo, 0, len(r.users))
	for _, u := range r.users {
		infos = append(infos, UserInfo{Name: u.Name, Online: u.session != nil})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
