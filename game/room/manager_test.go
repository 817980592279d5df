package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zak4b/P4-sub000/protocol"
	"github.com/Zak4b/P4-sub000/results"
)

// fakeClock drives the watchdog timers deterministically.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clk     *fakeClock
	when    time.Time
	fn      func()
	stopped bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clk: c, when: c.now.Add(d), fn: fn}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	was := !t.stopped
	t.stopped = false
	t.when = t.clk.now.Add(d)
	return was
}

// Advance moves the clock and fires every due timer outside the clock lock.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.when.After(c.now) {
			t.stopped = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.fn()
	}
}

// fakeRecorder captures recorded results.
type fakeRecorder struct {
	mu      sync.Mutex
	results []results.Result
}

func (f *fakeRecorder) Record(_ context.Context, r results.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, r)
	return nil
}

func (f *fakeRecorder) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.results)
}

func newTestManager(clk *fakeClock, rec results.Recorder) *Manager {
	return NewManager(Options{
		NoJoinDelay:    time.Minute,
		EmptyRoomDelay: 5 * time.Minute,
		EndGrace:       2 * time.Second,
		Recorder:       rec,
		Clock:          clk,
	})
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	m := newTestManager(newFakeClock(), nil)

	a := m.GetOrCreate("lobby")
	b := m.GetOrCreate("lobby")
	assert.Same(t, a, b)

	c := m.GetOrCreate("other")
	assert.NotSame(t, a, c)
}

func TestGetOrCreateConcurrent(t *testing.T) {
	m := newTestManager(newFakeClock(), nil)

	var wg sync.WaitGroup
	roomsCh := make(chan *Room, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			roomsCh <- m.GetOrCreate("same-key")
		}()
	}
	wg.Wait()
	close(roomsCh)

	first := <-roomsCh
	for r := range roomsCh {
		assert.Same(t, first, r, "one key must never yield two rooms")
	}
}

func TestNoJoinTimerDeletesAbandonedRoom(t *testing.T) {
	clk := newFakeClock()
	m := newTestManager(clk, nil)

	r := m.GetOrCreate("ghost")
	clk.Advance(time.Minute)

	_, ok := m.Room("ghost")
	assert.False(t, ok, "abandoned room must leave the registry")

	// A later reference creates a fresh room.
	fresh := m.GetOrCreate("ghost")
	assert.NotEqual(t, r.ID(), fresh.ID())
}

func TestFirstJoinCancelsNoJoinTimer(t *testing.T) {
	clk := newFakeClock()
	m := newTestManager(clk, nil)

	p, _ := newTestPlayer("alice")
	_, err := m.Join("lobby", p)
	require.NoError(t, err)

	clk.Advance(time.Hour)

	_, ok := m.Room("lobby")
	assert.True(t, ok, "a joined room must survive the no-join delay")
}

func TestEmptyRoomTimerDeletesRoom(t *testing.T) {
	clk := newFakeClock()
	m := newTestManager(clk, nil)

	p, _ := newTestPlayer("alice")
	_, err := m.Join("lobby", p)
	require.NoError(t, err)

	p.Leave()
	clk.Advance(5 * time.Minute)

	_, ok := m.Room("lobby")
	assert.False(t, ok)
}

func TestEmptyRoomTimerSparesRejoinedRoom(t *testing.T) {
	clk := newFakeClock()
	m := newTestManager(clk, nil)

	p, _ := newTestPlayer("alice")
	_, err := m.Join("lobby", p)
	require.NoError(t, err)

	p.Leave()
	clk.Advance(4 * time.Minute)

	// Rejoin before the watchdog fires.
	back, _ := newTestPlayer("alice")
	_, err = m.Join("lobby", back)
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)

	_, ok := m.Room("lobby")
	assert.True(t, ok, "an occupied room must not be reclaimed")
}

func TestEmptyRoomTimerRearmsOnEachEmpty(t *testing.T) {
	clk := newFakeClock()
	m := newTestManager(clk, nil)

	p, _ := newTestPlayer("alice")
	_, err := m.Join("lobby", p)
	require.NoError(t, err)
	p.Leave()

	clk.Advance(3 * time.Minute)
	back, _ := newTestPlayer("alice")
	_, err = m.Join("lobby", back)
	require.NoError(t, err)
	back.Leave() // re-arms the single watchdog

	clk.Advance(3 * time.Minute)
	_, ok := m.Room("lobby")
	assert.True(t, ok, "the delay restarts from the latest empty transition")

	clk.Advance(2 * time.Minute)
	_, ok = m.Room("lobby")
	assert.False(t, ok)
}

func TestFinishedGameTearsDownAfterGrace(t *testing.T) {
	clk := newFakeClock()
	rec := &fakeRecorder{}
	m := newTestManager(clk, rec)

	p1, _ := newTestPlayer("alice")
	p2, _ := newTestPlayer("bob")
	_, err := m.Join("arena", p1)
	require.NoError(t, err)
	_, err = m.Join("arena", p2)
	require.NoError(t, err)

	r, _ := m.Room("arena")
	winInRoom(t, r)

	// Still registered during the flush window.
	_, ok := m.Room("arena")
	assert.True(t, ok)

	clk.Advance(2 * time.Second)
	_, ok = m.Room("arena")
	assert.False(t, ok, "finished room must be reclaimed after the grace delay")

	require.Eventually(t, func() bool { return rec.len() == 1 },
		time.Second, 10*time.Millisecond, "result must reach the recorder")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	res := rec.results[0]
	assert.Equal(t, 1, res.Winner)
	assert.Equal(t, "alice", res.WinnerIdentity())
}

func TestJoinRelaysRoomErrors(t *testing.T) {
	m := newTestManager(newFakeClock(), nil)

	for _, id := range []string{"alice", "bob"} {
		p, _ := newTestPlayer(id)
		_, err := m.Join("full", p)
		require.NoError(t, err)
	}

	p3, _ := newTestPlayer("carol")
	_, err := m.Join("full", p3)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestDirectSendAndBroadcast(t *testing.T) {
	m := newTestManager(newFakeClock(), nil)

	p1, c1 := newTestPlayer("alice")
	p2, c2 := newTestPlayer("bob")
	m.Register(p1)
	m.Register(p2)

	ok := m.Send("alice", protocol.Info("hi"))
	assert.True(t, ok)
	assert.Equal(t, 1, c1.count(protocol.TypeInfo))
	assert.Equal(t, 0, c2.count(protocol.TypeInfo))

	assert.False(t, m.Send("nobody", protocol.Info("hi")))

	m.Broadcast(protocol.Info("all"))
	assert.Equal(t, 2, c1.count(protocol.TypeInfo))
	assert.Equal(t, 1, c2.count(protocol.TypeInfo))

	m.Unregister(p1)
	assert.False(t, m.Send("alice", protocol.Info("gone")))
}

func TestUnregisterIgnoresReplacedConnection(t *testing.T) {
	m := newTestManager(newFakeClock(), nil)

	old, _ := newTestPlayer("alice")
	m.Register(old)
	replacement, _ := newTestPlayer("alice")
	m.Register(replacement)

	// The old connection's teardown must not disturb the replacement.
	m.Unregister(old)
	assert.True(t, m.Send("alice", protocol.Info("still here")))
}

func TestStatsAndStop(t *testing.T) {
	m := newTestManager(newFakeClock(), nil)

	p, _ := newTestPlayer("alice")
	_, err := m.Join("lobby", p)
	require.NoError(t, err)
	m.GetOrCreate("idle")

	stats := m.Stats()
	assert.Len(t, stats, 2)

	m.Stop()
	assert.Empty(t, m.Stats())
	assert.Nil(t, p.Room())
}
