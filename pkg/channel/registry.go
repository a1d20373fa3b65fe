package channel

import (
	"sort"
	"sync"

	"github.com/marmos91/parley/pkg/identity"
)

// Registry is the process-wide set of named channels.
//
// All methods are safe for concurrent use. Like the user registry, protocol
// failures (duplicate channel, repeated join) are false returns, not errors.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]*Channel
}

// NewRegistry creates an empty channel registry.
func NewRegistry() *Registry {
	return &Registry{
		channels: make(map[string]*Channel),
	}
}

// Create adds a new empty channel. Returns false if the name is taken.
func (r *Registry) Create(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[name]; exists {
		return false
	}

	r.channels[name] = newChannel(name)
	return true
}

// Find returns the channel with the given name, or nil.
func (r *Registry) Find(name string) *Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels[name]
}

// AddMember appends the user to the channel's membership.
//
// Returns false if the user is already a member. Duplicate suppression
// happens here, at join time, so broadcast fan-out can trust the member list
// to be duplicate-free.
func (r *Registry) AddMember(ch *Channel, u *identity.User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := ch.memberSet[u]; exists {
		return false
	}

	ch.memberSet[u] = struct{}{}
	ch.members = append(ch.members, u)
	return true
}

// IsMember reports whether the user has joined the channel.
func (r *Registry) IsMember(ch *Channel, u *identity.User) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := ch.memberSet[u]
	return ok
}

// Members returns a snapshot of the channel's members in join order.
func (r *Registry) Members(ch *Channel) []*identity.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*identity.User, len(ch.members))
	copy(out, ch.members)
	return out
}

// ListNames returns all channel names sorted ascending by code point.
func (r *Registry) ListNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}

	sort.Strings(names)
	return names
}

// ChannelInfo is a point-in-time snapshot of a channel for the admin API.
type ChannelInfo struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// List returns a snapshot of all channels sorted by name, with member names
// in join order.
func (r *Registry) List() []ChannelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ChannelInfo, 0, len(r.channels))
	for _, ch := range r.channels {
		members := make([]string, 0, len(ch.members))
		for _, m := range ch.members {
			members = append(members, m.Name)
		}
		infos = append(infos, ChannelInfo{Name: ch.Name, Members: members})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Count returns the number of channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
