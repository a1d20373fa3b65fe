package chat

import (
	"strings"

	"github.com/marmos91/parley/pkg/channel"
	"github.com/marmos91/parley/pkg/identity"
	"github.com/marmos91/parley/pkg/metrics"
)

// Client is the dispatcher's view of a connected session: somewhere to push
// reply lines plus the login binding. Session implements it; tests substitute
// a fake.
type Client interface {
	identity.Pusher

	// User returns the identity the client is logged in as, or nil.
	User() *identity.User

	// SetUser binds the client to a user after a successful LOGIN.
	SetUser(u *identity.User)
}

// unbounded marks a verb with no upper argument limit.
const unbounded = -1

// verbSpec describes one protocol verb: its argument arity, whether it needs
// a logged-in user, and its handler. The dispatcher consults this table
// instead of each handler re-checking arity.
type verbSpec struct {
	minArgs int
	maxArgs int // unbounded means no upper limit

	// requiresAuth gates the handler on a bound user. When the check fails
	// the deniedReply formatter produces the verb's 0-form reply; a nil
	// formatter means the verb fails silently (SAY).
	requiresAuth bool
	deniedReply  func(args []string) string

	// handler runs the verb and returns the reply line, or "" for no reply.
	handler func(d *Dispatcher, c Client, args []string) string
}

// verbs is the protocol descriptor table.
var verbs = map[string]verbSpec{
	"REGISTER": {
		minArgs: 2, maxArgs: 2,
		handler: (*Dispatcher).handleRegister,
	},
	"LOGIN": {
		minArgs: 2, maxArgs: 2,
		handler: (*Dispatcher).handleLogin,
	},
	"CREATE": {
		minArgs: 1, maxArgs: 1,
		requiresAuth: true,
		deniedReply:  func(args []string) string { return "RESULT CREATE " + args[0] + " 0" },
		handler:      (*Dispatcher).handleCreate,
	},
	"JOIN": {
		minArgs: 1, maxArgs: 1,
		requiresAuth: true,
		deniedReply:  func(args []string) string { return "RESULT JOIN " + args[0] + " 0" },
		handler:      (*Dispatcher).handleJoin,
	},
	"SAY": {
		minArgs: 2, maxArgs: unbounded,
		requiresAuth: true,
		handler:      (*Dispatcher).handleSay,
	},
	"CHANNELS": {
		minArgs: 0, maxArgs: 0,
		handler: (*Dispatcher).handleChannels,
	},
}

// Dispatcher routes parsed request lines to verb handlers against the shared
// registries.
//
// Handlers never return Go errors: every protocol failure is a reply line
// (or deliberate silence), and the session stays open.
type Dispatcher struct {
	users    *identity.Registry
	channels *channel.Registry
	metrics  metrics.ChatMetrics
}

// NewDispatcher creates a dispatcher over the given registries.
// Metrics may be nil to disable collection.
func NewDispatcher(users *identity.Registry, channels *channel.Registry, m metrics.ChatMetrics) *Dispatcher {
	return &Dispatcher{
		users:    users,
		channels: channels,
		metrics:  m,
	}
}

// Users returns the user registry the dispatcher serves.
func (d *Dispatcher) Users() *identity.Registry {
	return d.users
}

// Channels returns the channel registry the dispatcher serves.
func (d *Dispatcher) Channels() *channel.Registry {
	return d.channels
}

// Dispatch tokenizes one request line, validates it against the verb table,
// runs the handler, and pushes the reply (if any) to the client.
//
// A blank or whitespace-only line is ignored entirely.
func (d *Dispatcher) Dispatch(c Client, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	verb := fields[0]
	args := fields[1:]

	spec, known := verbs[verb]
	if !known {
		c.Push("RESULT ERROR unknown message type")
		d.record("UNKNOWN", "error")
		return
	}

	if len(args) < spec.minArgs {
		c.Push("RESULT " + verb + " ERROR not enough arguments")
		d.record(verb, "error")
		return
	}
	if spec.maxArgs != unbounded && len(args) > spec.maxArgs {
		c.Push("RESULT " + verb + " ERROR too many arguments")
		d.record(verb, "error")
		return
	}

	if spec.requiresAuth && c.User() == nil {
		if spec.deniedReply != nil {
			c.Push(spec.deniedReply(args))
		}
		d.record(verb, "0")
		return
	}

	reply := spec.handler(d, c, args)
	if reply == "" {
		d.record(verb, "silent")
		return
	}

	c.Push(reply)
	if strings.HasSuffix(reply, " 0") {
		d.record(verb, "0")
	} else {
		d.record(verb, "1")
	}
}

func (d *Dispatcher) record(verb, result string) {
	if d.metrics != nil {
		d.metrics.RecordCommand(verb, result)
	}
}

// handleRegister creates a new user. Registration does not log the user in;
// a LOGIN must follow.
func (d *Dispatcher) handleRegister(c Client, args []string) string {
	if d.users.Register(args[0], args[1]) {
		return "RESULT REGISTER 1"
	}
	return "RESULT REGISTER 0"
}

// handleLogin binds the session to a user. All failure modes (unknown user,
// wrong password, user bound elsewhere, session already logged in) collapse
// into the same 0 reply.
func (d *Dispatcher) handleLogin(c Client, args []string) string {
	if c.User() != nil {
		return "RESULT LOGIN 0"
	}

	u := d.users.Find(args[0])
	if u == nil {
		return "RESULT LOGIN 0"
	}

	if !d.users.Login(u, c, args[1]) {
		return "RESULT LOGIN 0"
	}

	c.SetUser(u)
	return "RESULT LOGIN 1"
}

func (d *Dispatcher) handleCreate(c Client, args []string) string {
	name := args[0]
	if d.channels.Create(name) {
		return "RESULT CREATE " + name + " 1"
	}
	return "RESULT CREATE " + name + " 0"
}

func (d *Dispatcher) handleJoin(c Client, args []string) string {
	name := args[0]

	ch := d.channels.Find(name)
	if ch == nil {
		return "RESULT JOIN " + name + " 0"
	}
	if !d.channels.AddMember(ch, c.User()) {
		return "RESULT JOIN " + name + " 0"
	}
	return "RESULT JOIN " + name + " 1"
}

// handleSay broadcasts to every member of the channel, including the sayer.
// SAY never produces a direct reply: an unknown channel or a non-member
// sayer is a silent no-op, and a successful broadcast answers only with the
// RECV lines themselves.
func (d *Dispatcher) handleSay(c Client, args []string) string {
	sayer := c.User()

	ch := d.channels.Find(args[0])
	if ch == nil {
		return ""
	}
	if !d.channels.IsMember(ch, sayer) {
		return ""
	}

	line := "RECV " + sayer.Name + " " + ch.Name + " " + strings.Join(args[1:], " ")

	// Deliver in join order; members without a live session are skipped and
	// the line is not buffered for them.
	deliveries := 0
	for _, member := range d.channels.Members(ch) {
		if p := d.users.Bound(member); p != nil {
			p.Push(line)
			deliveries++
		}
	}

	if d.metrics != nil {
		d.metrics.RecordBroadcast(deliveries)
	}
	return ""
}

// handleChannels lists channel names sorted ascending, comma-separated.
// The reply keeps its trailing space when no channels exist.
func (d *Dispatcher) handleChannels(c Client, args []string) string {
	return "RESULT CHANNELS " + strings.Join(d.channels.ListNames(), ", ")
}
