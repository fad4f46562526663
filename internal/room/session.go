package room

import (
	"net"

	"github.com/nebulaforge/shootercore/internal/ecs"
)

// ClientSession is one joined player's connection-level state, keyed by
// endpoint in the room's session map, per spec.md §3.
type ClientSession struct {
	PlayerID uint32
	Addr     *net.UDPAddr
	Entity   ecs.EntityID
	Ready    bool
	Host     bool
}

// Endpoint returns the session's UDP endpoint key.
func (s *ClientSession) Endpoint() string {
	return s.Addr.String()
}
