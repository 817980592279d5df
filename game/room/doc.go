// Package room provides the session engine: rooms, seated players and the
// manager that owns their lifecycle.
//
// The room package implements:
//   - A capacity-bounded seat registry keyed by stable identity
//   - Reconnection with deterministic seat recovery
//   - Move arbitration against the hosted Connect Four game
//   - Ordered broadcast delivery to online players
//   - Watchdog timers reclaiming abandoned and empty rooms
//
// Core Types:
//
// Player binds one live connection to a stable identity and at most one
// seat in at most one room. Room pairs a single game instance with its
// seat and connection bookkeeping. Manager creates rooms on demand, routes
// direct messages, and deletes rooms that finished or were abandoned.
//
// Identities and Seats:
//
// A seat, once registered to an identity, persists across disconnects for
// the life of the room. An identity that registered seat 1, dropped, and
// rejoined receives seat 1 again; the seat registry is keyed by identity,
// never by connection.
//
// Concurrency:
//
// Each room is a single-writer resource: every mutating operation
// serializes on the room's mutex, so racing connections cannot corrupt
// the board or double-fire an end transition. The manager's registries
// are guarded independently; cross-room operations proceed in parallel.
// Lock order is always room before manager: room lifecycle events are
// emitted while the room lock is held and manager handlers take only the
// manager lock and timer handles.
//
// Timers:
//
// Two watchdogs per room, driven by an injectable Clock so tests run
// deterministically: a no-join timer cancelled permanently on the first
// join, and an empty-room timer reset on every empty transition that
// re-checks the last action time before deleting. A finished game tears
// the room down after a short grace delay so final frames can flush.
package room
