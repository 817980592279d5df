// Package protocol defines the wire contract between the server and
// browser clients.
//
// Every frame in both directions is an envelope {type, data}. Inbound
// envelopes decode into a closed, tagged union of request types; anything
// malformed or unknown is rejected at the boundary before it can touch
// room state. Outbound events are built through constructors so the set of
// event names stays enumerable in one place.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Zak4b/P4-sub000/game/engine"
)

// Inbound message types.
const (
	TypeJoin    = "join"
	TypePlay    = "play"
	TypeRestart = "restart"
	TypeMessage = "message"
)

// Outbound event names.
const (
	TypeRegistered = "registered"
	TypeJoined     = "joined"
	TypeSync       = "sync"
	TypePlayed     = "play"
	TypeEnd        = "end"
	TypeRestarted  = "restart"
	TypeInfo       = "info"
	TypeError      = "error"
	TypeVote       = "vote"
	TypeChat       = "message"
)

const (
	maxRoomIDLength = 64
	maxChatLength   = 500
)

var ErrUnknownType = errors.New("unknown message type")

// DecodeError reports a structurally invalid envelope or payload.
type DecodeError struct {
	Type   string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid %q message: %s", e.Type, e.Reason)
}

// Envelope is the raw wire form of an inbound frame.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Inbound is the closed union of client requests.
type Inbound interface{ inbound() }

// JoinRequest asks to be seated in a room.
type JoinRequest struct {
	RoomID string `json:"roomId"`
}

// PlayRequest drops a piece into a column.
type PlayRequest struct {
	Column int `json:"column"`
}

// RestartRequest asks for a rematch; Force overrides the ended-game check.
type RestartRequest struct {
	Force bool `json:"force"`
}

// ChatMessage carries free text, possibly a /command.
type ChatMessage struct {
	Text string `json:"text"`
}

func (JoinRequest) inbound()    {}
func (PlayRequest) inbound()    {}
func (RestartRequest) inbound() {}
func (ChatMessage) inbound()    {}

// Decode parses a raw frame into a typed request. It returns ErrUnknownType
// for unrecognized types and *DecodeError for malformed payloads; neither
// touches any shared state.
func Decode(raw []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Type: "?", Reason: "not a valid envelope"}
	}

	switch env.Type {
	case TypeJoin:
		var req JoinRequest
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return nil, &DecodeError{Type: env.Type, Reason: "bad payload"}
		}
		req.RoomID = strings.TrimSpace(req.RoomID)
		if req.RoomID == "" {
			return nil, &DecodeError{Type: env.Type, Reason: "missing room id"}
		}
		if len(req.RoomID) > maxRoomIDLength {
			return nil, &DecodeError{Type: env.Type, Reason: "room id too long"}
		}
		return req, nil

	case TypePlay:
		var req PlayRequest
		if len(env.Data) == 0 {
			return nil, &DecodeError{Type: env.Type, Reason: "missing column"}
		}
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return nil, &DecodeError{Type: env.Type, Reason: "bad payload"}
		}
		return req, nil

	case TypeRestart:
		var req RestartRequest
		if len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, &req); err != nil {
				return nil, &DecodeError{Type: env.Type, Reason: "bad payload"}
			}
		}
		return req, nil

	case TypeMessage:
		var req ChatMessage
		if err := json.Unmarshal(env.Data, &req); err != nil {
			return nil, &DecodeError{Type: env.Type, Reason: "bad payload"}
		}
		if req.Text == "" {
			return nil, &DecodeError{Type: env.Type, Reason: "empty message"}
		}
		if len(req.Text) > maxChatLength {
			return nil, &DecodeError{Type: env.Type, Reason: "message too long"}
		}
		return req, nil

	default:
		return nil, ErrUnknownType
	}
}

// Outbound is a named event ready for JSON encoding.
type Outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Registered reports the stable identity issued to this connection.
func Registered(identity string) Outbound {
	return Outbound{Type: TypeRegistered, Data: map[string]any{"identity": identity}}
}

// Joined reports a successful seat assignment.
func Joined(roomID string, seat int) Outbound {
	return Outbound{Type: TypeJoined, Data: map[string]any{"roomId": roomID, "seatId": seat}}
}

// SyncPayload is the state snapshot sent after a join or restart. Board and
// LastMove are omitted while the game has no moves yet.
type SyncPayload struct {
	SeatID        int           `json:"seatId"`
	CurrentPlayer int           `json:"currentPlayer"`
	Board         *engine.Board `json:"board,omitempty"`
	LastMove      *engine.Move  `json:"lastMove,omitempty"`
}

// Sync builds the state snapshot event for one recipient seat.
func Sync(seat int, snap engine.Snapshot) Outbound {
	payload := SyncPayload{SeatID: seat, CurrentPlayer: snap.Current}
	if snap.PlayCount > 0 {
		board := snap.Board
		payload.Board = &board
		payload.LastMove = snap.LastMove
	}
	return Outbound{Type: TypeSync, Data: payload}
}

// Play reports an accepted move to every online player.
func Play(seat, column, row, next int) Outbound {
	return Outbound{Type: TypePlayed, Data: map[string]any{
		"seatId":     seat,
		"column":     column,
		"row":        row,
		"nextSeatId": next,
	}}
}

// End reports a finished game. The winner field is omitted on a draw.
func End(winner string, draw bool) Outbound {
	if draw {
		return Outbound{Type: TypeEnd, Data: map[string]any{}}
	}
	return Outbound{Type: TypeEnd, Data: map[string]any{"winner": winner}}
}

// Restarted announces an in-place game reset.
func Restarted() Outbound {
	return Outbound{Type: TypeRestarted}
}

// Info carries an informational notice to one connection.
func Info(text string) Outbound {
	return Outbound{Type: TypeInfo, Data: map[string]any{"text": text}}
}

// Error reports a rejected action to the offending connection only.
func Error(text string) Outbound {
	return Outbound{Type: TypeError, Data: map[string]any{"text": text}}
}

// Vote announces a pending agreement, e.g. a restart request while the game
// is still running.
func Vote(identity, action string) Outbound {
	return Outbound{Type: TypeVote, Data: map[string]any{"identity": identity, "action": action}}
}

// Chat broadcasts free text tagged with the sender's identity.
func Chat(from, text string) Outbound {
	return Outbound{Type: TypeChat, Data: map[string]any{"from": from, "text": text}}
}
