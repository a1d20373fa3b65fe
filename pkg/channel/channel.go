// Package channel provides the process-wide registry of named chat channels
// and their membership.
//
// Channels are created by the CREATE verb and never destroyed; membership
// grows through JOIN and never shrinks (the protocol has no LEAVE). Member
// order is the order users joined, which fixes the delivery order of
// broadcasts.
package channel

import (
	"github.com/marmos91/parley/pkg/identity"
)

// Channel is a named broadcast group.
//
// Membership is guarded by the owning Registry's mutex; use the Registry
// methods rather than touching the fields directly.
type Channel struct {
	// Name is the unique identifier for the channel.
	Name string

	// members holds the joined users in join order. The memberSet mirrors it
	// for O(1) duplicate checks on JOIN.
	members   []*identity.User
	memberSet map[*identity.User]struct{}
}

func newChannel(name string) *Channel {
	return &Channel{
		Name:      name,
		memberSet: make(map[*identity.User]struct{}),
	}
}
