// Package identity provides the in-memory user registry and the salted
// credential primitive used by the chat protocol's REGISTER and LOGIN verbs.
//
// Users live for the whole process; there is no persistence. A user is bound
// to at most one live connection at a time, and a connection to at most one
// user. The registry serializes every mutation, so callers never observe a
// half-updated binding.
package identity

// Pusher delivers a server-initiated line to a live connection.
//
// The chat session type implements this interface. Keeping it abstract here
// breaks the User <-> Session ownership cycle: the registry owns users, each
// session owns itself, and the user's binding is a non-owning back-reference
// cleared on teardown.
type Pusher interface {
	// Push enqueues a single outbound line for delivery. It must not block on
	// socket I/O.
	Push(line string)
}

// User is a registered chat identity.
//
// The zero value is not usable; users are created through Registry.Register
// so the credential is always populated. The session binding is guarded by
// the owning Registry's mutex and must be read via Registry.Bound.
type User struct {
	// Name is the unique identifier for the user. It contains no whitespace
	// because it arrives as a single protocol token.
	Name string

	// credential is the salted PBKDF2 digest of the user's password.
	credential Credential

	// session is the connection currently logged in as this user, or nil.
	session Pusher
}
