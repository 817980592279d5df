package room

import (
	"sync"

	"github.com/Zak4b/P4-sub000/protocol"
)

// Sender delivers outbound events to one live connection. Implementations
// must not block; a slow consumer is the transport's problem, never the
// room's.
type Sender interface {
	Send(msg protocol.Outbound)
}

// Player binds one live connection to a stable identity. The seat and room
// reference are meaningful only while joined; the room owns the
// membership, the player merely points back at it.
type Player struct {
	identity string
	conn     Sender

	mu   sync.Mutex
	room *Room
	seat int
}

// NewPlayer wraps a connection with its stable identity.
func NewPlayer(identity string, conn Sender) *Player {
	return &Player{identity: identity, conn: conn}
}

// Identity returns the stable identity, independent of any transport.
func (p *Player) Identity() string { return p.identity }

// Seat returns the current seat id, 0 while not joined.
func (p *Player) Seat() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seat
}

// Room returns the player's current room, nil while not joined.
func (p *Player) Room() *Room {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.room
}

// Send forwards an event to the player's connection.
func (p *Player) Send(msg protocol.Outbound) {
	p.conn.Send(msg)
}

// Leave removes the player from its current room, if any. Called
// synchronously with transport teardown.
func (p *Player) Leave() {
	if r := p.Room(); r != nil {
		r.Remove(p)
	}
}

func (p *Player) setMembership(r *Room, seat int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.room = r
	p.seat = seat
}

func (p *Player) clearMembership() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.room = nil
	p.seat = 0
}
