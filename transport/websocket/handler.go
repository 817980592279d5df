package websocket

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Zak4b/P4-sub000/auth"
	"github.com/Zak4b/P4-sub000/game/engine"
	"github.com/Zak4b/P4-sub000/game/room"
	"github.com/Zak4b/P4-sub000/protocol"
)

const helpText = "Available commands: /help, /join <room>, /swap, /spectate, /restart, /debug"

// Handler upgrades HTTP requests to websocket connections and dispatches
// every inbound frame against the room manager.
type Handler struct {
	manager *room.Manager
	auth    auth.Provider
}

func NewHandler(manager *room.Manager, provider auth.Provider) *Handler {
	return &Handler{manager: manager, auth: provider}
}

// ServeWS handles a websocket upgrade request. The connection is tied to a
// single identity for its whole lifetime: a verified one when credentials
// are presented, a freshly generated one otherwise.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.auth.Identify(r)
	if err != nil {
		if !errors.Is(err, auth.ErrAnonymous) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		identity = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := newClient(conn)
	player := room.NewPlayer(identity, client)
	h.manager.Register(player)

	go client.writePump()
	go func() {
		client.readPump(func(raw []byte) {
			h.dispatch(player, raw)
		})

		// Leave before unregistering so the room sees the departure
		// while the player is still known to the manager.
		player.Leave()
		h.manager.Unregister(player)
		client.close()
	}()

	player.Send(protocol.Registered(identity))
}

// dispatch decodes one inbound frame and routes it. Every failure turns
// into an error or info frame back to the sender; nothing a client sends
// can take the connection down except a broken frame stream.
func (h *Handler) dispatch(p *room.Player, raw []byte) {
	msg, err := protocol.Decode(raw)
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownType) {
			p.Send(protocol.Info("unknown message type"))
			return
		}
		p.Send(protocol.Error(err.Error()))
		return
	}

	switch req := msg.(type) {
	case protocol.JoinRequest:
		h.handleJoin(p, req.RoomID)
	case protocol.PlayRequest:
		h.handlePlay(p, req.Column)
	case protocol.RestartRequest:
		h.handleRestart(p, req.Force)
	case protocol.ChatMessage:
		h.handleChat(p, req.Text)
	}
}

func (h *Handler) handleJoin(p *room.Player, key string) {
	seat, err := h.manager.Join(key, p)
	if err != nil {
		p.Send(protocol.Error(rejectionText(err)))
		return
	}

	p.Send(protocol.Joined(key, seat))
	if r := p.Room(); r != nil {
		r.Sync(p.Identity())
	}
}

func (h *Handler) handlePlay(p *room.Player, column int) {
	r := p.Room()
	if r == nil {
		p.Send(protocol.Error("join a room first"))
		return
	}

	if err := r.PlayMove(p.Identity(), column); err != nil {
		p.Send(protocol.Error(rejectionText(err)))
	}
}

func (h *Handler) handleRestart(p *room.Player, forced bool) {
	r := p.Room()
	if r == nil {
		p.Send(protocol.Error("join a room first"))
		return
	}

	if err := r.Restart(p.Identity(), forced); err != nil {
		if errors.Is(err, room.ErrRestartDenied) {
			p.Send(protocol.Info("restart vote recorded, waiting for the other players"))
			return
		}
		p.Send(protocol.Error(rejectionText(err)))
	}
}

func (h *Handler) handleChat(p *room.Player, text string) {
	if strings.HasPrefix(text, protocol.CommandSigil) {
		h.handleCommand(p, text)
		return
	}

	r := p.Room()
	if r == nil {
		p.Send(protocol.Error("join a room first"))
		return
	}
	r.Broadcast(protocol.Chat(p.Identity(), text))
}

func (h *Handler) handleCommand(p *room.Player, text string) {
	cmd, ok := protocol.ParseCommand(text)
	if !ok {
		p.Send(protocol.Info(helpText))
		return
	}

	switch cmd.Name {
	case protocol.CmdHelp:
		p.Send(protocol.Info(helpText))
	case protocol.CmdJoin:
		if cmd.Arg == "" {
			p.Send(protocol.Error("usage: /join <room>"))
			return
		}
		h.handleJoin(p, cmd.Arg)
	case protocol.CmdSwap:
		r := p.Room()
		if r == nil {
			p.Send(protocol.Error("join a room first"))
			return
		}
		if err := r.SwapSeats(p.Identity()); err != nil {
			p.Send(protocol.Error(rejectionText(err)))
		}
	case protocol.CmdSpectate:
		p.Send(protocol.Info("spectating is not available yet"))
	case protocol.CmdRestart:
		h.handleRestart(p, false)
	case protocol.CmdDebug:
		r := p.Room()
		if r == nil {
			p.Send(protocol.Error("join a room first"))
			return
		}
		stats := r.Stats()
		p.Send(protocol.Info(fmt.Sprintf(
			"room %s: %d online, %d plays, ended=%t",
			stats.Key, stats.Online, stats.PlayCount, stats.Ended)))
	default:
		p.Send(protocol.Info(fmt.Sprintf("unknown command %s%s, try %shelp",
			protocol.CommandSigil, cmd.Name, protocol.CommandSigil)))
	}
}

// rejectionText maps domain errors to the short messages sent to clients.
func rejectionText(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotYourTurn):
		return "not your turn"
	case errors.Is(err, engine.ErrColumnOutOfRange):
		return "column out of range"
	case errors.Is(err, engine.ErrColumnFull):
		return "column is full"
	case errors.Is(err, engine.ErrGameOver):
		return "the game is over"
	case errors.Is(err, room.ErrRoomFull):
		return "room is full"
	case errors.Is(err, room.ErrAlreadyJoined):
		return "already in this room"
	case errors.Is(err, room.ErrRoomLocked):
		return "room is closed"
	case errors.Is(err, room.ErrNotInRoom):
		return "not in this room"
	case errors.Is(err, room.ErrSwapDenied):
		return "seats can only be swapped before the first move"
	default:
		return err.Error()
	}
}
