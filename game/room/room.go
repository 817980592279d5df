package room

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Zak4b/P4-sub000/game/engine"
	"github.com/Zak4b/P4-sub000/game/event"
	"github.com/Zak4b/P4-sub000/protocol"
	"github.com/Zak4b/P4-sub000/results"
)

// Rejected room operations. None of them mutate room state.
var (
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyJoined = errors.New("identity is already connected to this room")
	ErrRoomLocked    = errors.New("room is locked")
	ErrNotInRoom     = errors.New("identity has no seat in this room")
	ErrRestartDenied = errors.New("restart not allowed while the game is running")
	ErrSwapDenied    = errors.New("seats can only be swapped before the first move")
)

// EventKind enumerates the room's lifecycle vocabulary consumed by the
// manager.
type EventKind int

const (
	// EventJoin fires on every successful join.
	EventJoin EventKind = iota
	// EventEmpty fires when the last online player leaves.
	EventEmpty
	// EventEnd fires when the hosted game reaches a terminal state.
	EventEnd
)

// Event is published on the room's emitter. Result is set on EventEnd only.
type Event struct {
	Kind     EventKind
	Room     *Room
	Identity string
	Seat     int
	Result   *results.Result
}

// Room pairs one game instance with its seat registry and online
// connections. All mutating operations serialize on the room's mutex.
type Room struct {
	id        string // generated internal id
	key       string // external join key
	seatLimit int
	clock     Clock

	mu         sync.Mutex
	locked     bool
	joined     bool // ever received a join
	lastAction time.Time
	startedAt  time.Time
	seats      map[string]int     // identity -> seat, persists once assigned
	online     map[string]*Player // strict subset of seated identities
	votes      map[string]bool    // pending restart votes
	game       *engine.Game
	pendingEnd *engine.Event

	events     event.Emitter[Event]
	cancelGame func()
}

// Stats is a read-only view of a room for monitoring and the /debug
// command.
type Stats struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Seats      int       `json:"seats"`
	SeatLimit  int       `json:"seatLimit"`
	Online     int       `json:"online"`
	PlayCount  int       `json:"playCount"`
	Current    int       `json:"currentPlayer"`
	Ended      bool      `json:"ended"`
	Locked     bool      `json:"locked"`
	LastAction time.Time `json:"lastAction"`
}

// NewRoom creates an unlocked room hosting a fresh game. The room owns the
// same game instance for its whole lifetime; rematches reset it in place.
func NewRoom(key string, seatLimit int, clk Clock) *Room {
	now := clk.Now()
	r := &Room{
		id:         uuid.NewString(),
		key:        key,
		seatLimit:  seatLimit,
		clock:      clk,
		lastAction: now,
		startedAt:  now,
		seats:      make(map[string]int),
		online:     make(map[string]*Player),
		game:       engine.New(),
	}
	// The engine announces the terminal transition mid-move; the room
	// records it and finishes the broadcast sequence after the play event.
	r.cancelGame = r.game.Events().Subscribe(func(ev engine.Event) {
		if ev.Kind == engine.EventEnd {
			r.pendingEnd = &ev
		}
	})
	return r
}

// ID returns the generated internal room id.
func (r *Room) ID() string { return r.id }

// Key returns the external join key the room was created under.
func (r *Room) Key() string { return r.key }

// Events exposes the room's lifecycle emitter. Events are delivered while
// the room lock is held; handlers must not call back into the room.
func (r *Room) Events() *event.Emitter[Event] { return &r.events }

// RegisterSeat assigns the lowest unused seat to identity, or returns the
// seat it already holds. Fails with ErrRoomFull when the seat limit is
// reached and identity holds no seat.
func (r *Room) RegisterSeat(identity string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerSeatLocked(identity)
}

func (r *Room) registerSeatLocked(identity string) (int, error) {
	if seat, ok := r.seats[identity]; ok {
		return seat, nil
	}
	if len(r.seats) >= r.seatLimit {
		return 0, ErrRoomFull
	}

	taken := make(map[int]bool, len(r.seats))
	for _, s := range r.seats {
		taken[s] = true
	}
	for _, seat := range r.game.Seats() {
		if !taken[seat] {
			r.seats[identity] = seat
			return seat, nil
		}
	}
	// Seat registry and game seat set diverged; treat as programmer error
	// but degrade to a capacity rejection on the production path.
	return 0, ErrRoomFull
}

// Join seats the player and marks it online. A player joining from another
// room is removed there first. Fails when the identity is already online
// here or no seat is available; failures leave the room untouched.
func (r *Room) Join(p *Player) (int, error) {
	if prior := p.Room(); prior != nil && prior != r {
		prior.Remove(p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return 0, ErrRoomLocked
	}
	if _, online := r.online[p.Identity()]; online {
		return 0, ErrAlreadyJoined
	}

	seat, err := r.registerSeatLocked(p.Identity())
	if err != nil {
		return 0, err
	}

	r.online[p.Identity()] = p
	p.setMembership(r, seat)
	r.joined = true
	r.touchLocked()

	r.broadcastLocked(protocol.Info(fmt.Sprintf("%s joined as seat %d", p.Identity(), seat)), p.Identity())
	r.events.Emit(Event{Kind: EventJoin, Room: r, Identity: p.Identity(), Seat: seat})
	return seat, nil
}

// Remove takes the player offline. The registered seat is retained so the
// identity can reconnect and recover it. Emits EventEmpty when nobody
// remains online.
func (r *Room) Remove(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.online[p.Identity()]
	if !ok || current != p {
		return
	}
	delete(r.online, p.Identity())
	p.clearMembership()
	r.touchLocked()

	if len(r.online) == 0 {
		r.events.Emit(Event{Kind: EventEmpty, Room: r})
	}
}

// PlayMove resolves identity's seat, applies the move, and broadcasts the
// result. When the move ends the game it also broadcasts the end event and
// emits EventEnd carrying the final result for the recorder.
func (r *Room) PlayMove(identity string, column int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return ErrRoomLocked
	}
	if _, online := r.online[identity]; !online {
		return ErrNotInRoom
	}
	seat := r.seats[identity]

	placement, err := r.game.Move(seat, column)
	if err != nil {
		return err
	}

	r.votes = nil
	r.touchLocked()
	r.broadcastLocked(protocol.Play(placement.Seat, placement.Column, placement.Row, placement.Next))

	if r.pendingEnd != nil {
		end := r.pendingEnd
		r.pendingEnd = nil

		result := &results.Result{
			RoomID:     r.id,
			Seats:      r.identityBySeatLocked(),
			Winner:     end.Winner,
			Draw:       end.Draw,
			Board:      end.Board,
			StartedAt:  r.startedAt,
			FinishedAt: r.clock.Now(),
		}
		r.broadcastLocked(protocol.End(result.WinnerIdentity(), end.Draw))
		r.events.Emit(Event{Kind: EventEnd, Room: r, Result: result})
	}
	return nil
}

// Restart resets the hosted game in place. Allowed when the game has ended
// or forced is set. A non-forced request during a running game counts as a
// restart vote: it is rejected with ErrRestartDenied, announced as a vote,
// and once every seated identity still online has voted the reset happens
// anyway. Offline seats do not block the quorum.
func (r *Room) Restart(identity string, forced bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return ErrRoomLocked
	}
	if _, ok := r.seats[identity]; !ok {
		return ErrNotInRoom
	}

	if !r.game.Ended() && !forced {
		if r.votes == nil {
			r.votes = make(map[string]bool)
		}
		r.votes[identity] = true
		r.broadcastLocked(protocol.Vote(identity, "restart"))

		// Online identities are a subset of seated ones, so the quorum
		// is everyone seated who is still connected.
		for id := range r.online {
			if !r.votes[id] {
				return ErrRestartDenied
			}
		}
		// Mutual agreement reached; fall through to the reset.
	}

	r.votes = nil
	r.game.Reset()
	r.startedAt = r.clock.Now()
	r.touchLocked()

	r.broadcastLocked(protocol.Restarted())
	snap := r.game.Snapshot()
	for id, p := range r.online {
		p.Send(protocol.Sync(r.seats[id], snap))
	}
	return nil
}

// SwapSeats exchanges the two registered seats. Only allowed before the
// first move of a game, so the board never contradicts the registry.
func (r *Room) SwapSeats(identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locked {
		return ErrRoomLocked
	}
	if _, ok := r.seats[identity]; !ok {
		return ErrNotInRoom
	}
	if r.game.PlayCount() > 0 || r.game.Ended() {
		return ErrSwapDenied
	}
	if len(r.seats) != r.seatLimit {
		return ErrNotInRoom
	}

	for id, seat := range r.seats {
		r.seats[id] = engine.SeatCount + 1 - seat
	}
	for id, p := range r.online {
		p.setMembership(r, r.seats[id])
	}
	r.touchLocked()

	r.broadcastLocked(protocol.Info("seats were swapped"))
	snap := r.game.Snapshot()
	for id, p := range r.online {
		p.Send(protocol.Sync(r.seats[id], snap))
	}
	return nil
}

// Broadcast fans an event out to every online player. Delivery to a given
// recipient preserves send order.
func (r *Room) Broadcast(msg protocol.Outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(msg)
}

// broadcastLocked sends msg to everyone online except the listed
// identities.
func (r *Room) broadcastLocked(msg protocol.Outbound, except ...string) {
	for id, p := range r.online {
		skip := false
		for _, ex := range except {
			if id == ex {
				skip = true
				break
			}
		}
		if !skip {
			p.Send(msg)
		}
	}
}

// LockAndClear locks the room, disconnects membership and detaches all
// listeners. A locked room accepts no further interaction. Idempotent.
func (r *Room) LockAndClear() {
	r.mu.Lock()
	if r.locked {
		r.mu.Unlock()
		return
	}
	r.locked = true
	for id, p := range r.online {
		p.clearMembership()
		delete(r.online, id)
	}
	r.mu.Unlock()

	r.cancelGame()
	r.events.Close()
}

// Sync sends the current state snapshot to one online identity.
func (r *Room) Sync(identity string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.online[identity]
	if !ok {
		return
	}
	p.Send(protocol.Sync(r.seats[identity], r.game.Snapshot()))
}

// Seat returns the seat registered to identity, 0 when absent.
func (r *Room) Seat(identity string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seats[identity]
}

// OnlineCount returns the number of live connections in the room.
func (r *Room) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.online)
}

// LastAction returns the time of the last state-changing operation.
func (r *Room) LastAction() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastAction
}

// everJoined reports whether the room ever received a join.
func (r *Room) everJoined() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.joined
}

// Stats snapshots the room for monitoring.
func (r *Room) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		ID:         r.id,
		Key:        r.key,
		Seats:      len(r.seats),
		SeatLimit:  r.seatLimit,
		Online:     len(r.online),
		PlayCount:  r.game.PlayCount(),
		Current:    r.game.Current(),
		Ended:      r.game.Ended(),
		Locked:     r.locked,
		LastAction: r.lastAction,
	}
}

func (r *Room) identityBySeatLocked() map[int]string {
	m := make(map[int]string, len(r.seats))
	for id, seat := range r.seats {
		m[seat] = id
	}
	return m
}

func (r *Room) touchLocked() {
	r.lastAction = r.clock.Now()
}
