// Package websocket provides the websocket transport for the game server.
//
// Each accepted connection gets a Client with dedicated read and write
// goroutines in the standard gorilla pump arrangement: the read pump feeds
// inbound frames to the Handler's dispatcher, and the write pump drains a
// buffered send channel while keeping the peer alive with pings. A peer
// whose buffer fills up is dropped rather than allowed to block room
// broadcasts.
//
// The Handler resolves an identity for the connection (via auth.Provider,
// or a generated one for anonymous players), registers the player with the
// room manager, and routes decoded protocol frames to room operations.
// Chat messages starting with the command sigil are interpreted as slash
// commands instead of being broadcast.
package websocket
