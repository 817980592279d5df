package room

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/Zak4b/P4-sub000/protocol"
	"github.com/Zak4b/P4-sub000/results"
)

// Defaults for Options fields left at zero.
const (
	DefaultSeatLimit      = 2
	DefaultNoJoinDelay    = 60 * time.Second
	DefaultEmptyRoomDelay = 5 * time.Minute
	DefaultEndGrace       = 2 * time.Second

	recordTimeout = 10 * time.Second
)

// Options configures a Manager.
type Options struct {
	SeatLimit      int
	NoJoinDelay    time.Duration // deletes a room that never receives a join
	EmptyRoomDelay time.Duration // deletes a room with nobody online
	EndGrace       time.Duration // flush window between game end and teardown
	Recorder       results.Recorder
	Clock          Clock
}

func (o Options) withDefaults() Options {
	if o.SeatLimit == 0 {
		o.SeatLimit = DefaultSeatLimit
	}
	if o.NoJoinDelay == 0 {
		o.NoJoinDelay = DefaultNoJoinDelay
	}
	if o.EmptyRoomDelay == 0 {
		o.EmptyRoomDelay = DefaultEmptyRoomDelay
	}
	if o.EndGrace == 0 {
		o.EndGrace = DefaultEndGrace
	}
	if o.Recorder == nil {
		o.Recorder = results.LogRecorder{}
	}
	if o.Clock == nil {
		o.Clock = SystemClock()
	}
	return o
}

// roomEntry tracks one live room and its watchdogs. Timers are disarmed
// exactly once, at teardown.
type roomEntry struct {
	room       *Room
	joinTimer  Timer // nil once the first join arrived
	emptyTimer Timer
	endTimer   Timer
	cancel     func()
}

// Manager owns the room registry and the identity-to-connection registry.
// A room appears in the registry exactly until it is deleted.
type Manager struct {
	opts  Options
	clock Clock

	mu      sync.Mutex
	rooms   map[string]*roomEntry
	players map[string]*Player
}

// NewManager creates a manager with the given options.
func NewManager(opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		opts:    opts,
		clock:   opts.Clock,
		rooms:   make(map[string]*roomEntry),
		players: make(map[string]*Player),
	}
}

// GetOrCreate returns the room registered under key, creating and wiring
// it if needed. Creation is atomic with respect to concurrent calls for
// the same key.
func (m *Manager) GetOrCreate(key string) *Room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.rooms[key]; ok {
		return e.room
	}

	r := NewRoom(key, m.opts.SeatLimit, m.clock)
	e := &roomEntry{room: r}
	e.cancel = r.Events().Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventJoin:
			m.onJoin(key)
		case EventEmpty:
			m.onEmpty(key)
		case EventEnd:
			m.onEnd(key, ev.Result)
		}
	})
	e.joinTimer = m.clock.AfterFunc(m.opts.NoJoinDelay, func() { m.reapNoJoin(key) })
	m.rooms[key] = e

	log.Printf("Room %s created (key %q)", r.ID(), key)
	return r
}

// Room returns the registered room for key, if any.
func (m *Manager) Room(key string) (*Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[key]
	if !ok {
		return nil, false
	}
	return e.room, true
}

// Join resolves or creates the room for key and seats the player there.
func (m *Manager) Join(key string, p *Player) (int, error) {
	r := m.GetOrCreate(key)
	seat, err := r.Join(p)
	if err != nil {
		return 0, err
	}
	log.Printf("Player %s joined room %q as seat %d", p.Identity(), key, seat)
	return seat, nil
}

// Register makes the player reachable for direct delivery. A reconnecting
// identity replaces its previous connection.
func (m *Manager) Register(p *Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[p.Identity()] = p
}

// Unregister drops the identity-to-connection mapping if it still points
// at p.
func (m *Manager) Unregister(p *Player) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.players[p.Identity()] == p {
		delete(m.players, p.Identity())
	}
}

// Send delivers an event directly to a known connection, independent of
// room membership. Returns false for unknown identities.
func (m *Manager) Send(identity string, msg protocol.Outbound) bool {
	m.mu.Lock()
	p, ok := m.players[identity]
	m.mu.Unlock()
	if !ok {
		return false
	}
	p.Send(msg)
	return true
}

// Broadcast delivers an event to every known connection. Used for system
// notices.
func (m *Manager) Broadcast(msg protocol.Outbound) {
	m.mu.Lock()
	players := make([]*Player, 0, len(m.players))
	for _, p := range m.players {
		players = append(players, p)
	}
	m.mu.Unlock()

	for _, p := range players {
		p.Send(msg)
	}
}

// Stats snapshots every registered room.
func (m *Manager) Stats() []Stats {
	m.mu.Lock()
	entries := make([]*roomEntry, 0, len(m.rooms))
	for _, e := range m.rooms {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	stats := make([]Stats, 0, len(entries))
	for _, e := range entries {
		stats = append(stats, e.room.Stats())
	}
	return stats
}

// Stop tears down every room. Used on server shutdown.
func (m *Manager) Stop() {
	m.mu.Lock()
	keys := make([]string, 0, len(m.rooms))
	for key := range m.rooms {
		keys = append(keys, key)
	}
	m.mu.Unlock()

	for _, key := range keys {
		m.teardown(key, "server shutdown")
	}
}

// onJoin cancels the no-join watchdog permanently on the first join.
func (m *Manager) onJoin(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[key]
	if !ok {
		return
	}
	if e.joinTimer != nil {
		e.joinTimer.Stop()
		e.joinTimer = nil
	}
}

// onEmpty arms the empty-room watchdog, resetting the single timer on
// every empty transition.
func (m *Manager) onEmpty(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[key]
	if !ok {
		return
	}
	if e.emptyTimer == nil {
		e.emptyTimer = m.clock.AfterFunc(m.opts.EmptyRoomDelay, func() { m.reapEmpty(key) })
	} else {
		e.emptyTimer.Reset(m.opts.EmptyRoomDelay)
	}
}

// onEnd hands the result to the recorder fire-and-forget and schedules
// teardown after the grace delay.
func (m *Manager) onEnd(key string, result *results.Result) {
	if result != nil {
		rec := m.opts.Recorder
		res := *result
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
			defer cancel()
			if err := rec.Record(ctx, res); err != nil {
				log.Printf("Failed to record match for room %s: %v", res.RoomID, err)
			}
		}()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[key]
	if !ok {
		return
	}
	if e.endTimer == nil {
		e.endTimer = m.clock.AfterFunc(m.opts.EndGrace, func() { m.teardown(key, "finished") })
	}
}

// reapNoJoin fires when a room received no join within the delay.
func (m *Manager) reapNoJoin(key string) {
	m.mu.Lock()
	e, ok := m.rooms[key]
	m.mu.Unlock()
	if !ok {
		return
	}
	if e.room.everJoined() {
		return
	}
	m.teardown(key, "abandoned")
}

// reapEmpty fires when a room sat empty for the delay. It re-checks the
// last action time so a player who rejoined and left again in the interim
// is not raced.
func (m *Manager) reapEmpty(key string) {
	m.mu.Lock()
	e, ok := m.rooms[key]
	m.mu.Unlock()
	if !ok {
		return
	}
	if e.room.OnlineCount() > 0 {
		return
	}
	if m.clock.Now().Sub(e.room.LastAction()) < m.opts.EmptyRoomDelay {
		return
	}
	m.teardown(key, "empty")
}

// teardown removes the room from the registry, disarms its timers and
// locks it. Safe to call more than once for the same key.
func (m *Manager) teardown(key, reason string) {
	m.mu.Lock()
	e, ok := m.rooms[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.rooms, key)
	m.mu.Unlock()

	if e.joinTimer != nil {
		e.joinTimer.Stop()
	}
	if e.emptyTimer != nil {
		e.emptyTimer.Stop()
	}
	if e.endTimer != nil {
		e.endTimer.Stop()
	}
	e.cancel()
	e.room.LockAndClear()

	log.Printf("Room %s deleted (%s)", e.room.ID(), reason)
}
