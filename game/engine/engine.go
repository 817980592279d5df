package engine

import (
	"errors"
	"strings"

	"github.com/Zak4b/P4-sub000/game/event"
)

// Board dimensions and win condition.
const (
	Columns   = 7
	Rows      = 6
	SeatCount = 2
	winLength = 4
)

// Rejected-move conditions. Callers surface these to the offending
// connection; they never mutate the board.
var (
	ErrNotYourTurn      = errors.New("not your turn")
	ErrColumnOutOfRange = errors.New("column out of range")
	ErrColumnFull       = errors.New("column is full")
	ErrGameOver         = errors.New("game is over")
)

// Board is the grid, indexed [column][row] with row 0 at the bottom.
// A cell holds 0 when empty, otherwise the seat id of the piece.
type Board [Columns][Rows]int

// Move identifies a single cell that was played.
type Move struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Placement is the outcome of an accepted move.
type Placement struct {
	Seat   int
	Column int
	Row    int
	Next   int // seat to play next, 0 when the game ended
	Ended  bool
	Winner int // winning seat, 0 on a draw or while running
	Draw   bool
}

// EventKind enumerates the engine's event vocabulary.
type EventKind int

const (
	// EventEnd fires exactly once per play-through, on win or draw.
	EventEnd EventKind = iota
	// EventReset fires when the board is reinitialized.
	EventReset
)

// Event is published on the engine's emitter.
type Event struct {
	Kind   EventKind
	Winner int // winning seat, 0 on a draw
	Draw   bool
	Board  Board
}

// Snapshot is a copy of the observable game state.
type Snapshot struct {
	Board     Board
	Current   int
	LastMove  *Move
	PlayCount int
	Ended     bool
	Winner    int
	Draw      bool
}

// Game is one Connect Four play-through. Construct with New; mutate only
// through Move and Reset.
type Game struct {
	board     Board
	current   int
	lastMove  *Move
	playCount int
	winner    int
	ended     bool
	draw      bool
	events    event.Emitter[Event]
}

// New creates a game with an empty board, seat 1 to move.
func New() *Game {
	return &Game{current: 1}
}

// Events exposes the engine's lifecycle emitter.
func (g *Game) Events() *event.Emitter[Event] {
	return &g.events
}

// Seats returns the valid seat ids, lowest first.
func (g *Game) Seats() []int {
	seats := make([]int, SeatCount)
	for i := range seats {
		seats[i] = i + 1
	}
	return seats
}

// Current returns the seat whose turn it is.
func (g *Game) Current() int { return g.current }

// Ended reports whether the play-through reached a terminal state.
func (g *Game) Ended() bool { return g.ended }

// PlayCount returns the number of pieces on the board.
func (g *Game) PlayCount() int { return g.playCount }

// Move drops a piece for seat into column. The piece lands in the lowest
// empty row. On the winning or board-filling move the game ends and an
// EventEnd is emitted; otherwise the turn passes to the other seat.
func (g *Game) Move(seat, column int) (Placement, error) {
	if g.ended {
		return Placement{}, ErrGameOver
	}
	if seat != g.current {
		return Placement{}, ErrNotYourTurn
	}
	if column < 0 || column >= Columns {
		return Placement{}, ErrColumnOutOfRange
	}

	row := -1
	for r := 0; r < Rows; r++ {
		if g.board[column][r] == 0 {
			row = r
			break
		}
	}
	if row < 0 {
		return Placement{}, ErrColumnFull
	}

	g.board[column][row] = seat
	g.playCount++
	g.lastMove = &Move{Column: column, Row: row}

	switch {
	case g.isWin(seat, column, row):
		g.winner = seat
		g.ended = true
		g.events.Emit(Event{Kind: EventEnd, Winner: seat, Board: g.board})
	case g.isFull():
		g.ended = true
		g.draw = true
		g.events.Emit(Event{Kind: EventEnd, Draw: true, Board: g.board})
	default:
		g.current = otherSeat(seat)
	}

	next := 0
	if !g.ended {
		next = g.current
	}
	return Placement{
		Seat:   seat,
		Column: column,
		Row:    row,
		Next:   next,
		Ended:  g.ended,
		Winner: g.winner,
		Draw:   g.draw,
	}, nil
}

// Reset reinitializes the board and re-enters the running state with seat 1
// to move. Always succeeds; emits EventReset.
func (g *Game) Reset() {
	g.board = Board{}
	g.current = 1
	g.lastMove = nil
	g.playCount = 0
	g.winner = 0
	g.ended = false
	g.draw = false
	g.events.Emit(Event{Kind: EventReset})
}

// Snapshot returns a copy of the observable state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Board:     g.board,
		Current:   g.current,
		PlayCount: g.playCount,
		Ended:     g.ended,
		Winner:    g.winner,
		Draw:      g.draw,
	}
	if g.lastMove != nil {
		m := *g.lastMove
		s.LastMove = &m
	}
	return s
}

// isWin checks whether the piece just played at (x, y) completed four in a
// row. The full column, the full row and the two diagonals through (x, y)
// are stringified cell-by-cell and joined with a non-digit separator; the
// separator keeps a run from spuriously straddling two unrelated lines.
func (g *Game) isWin(seat, x, y int) bool {
	var sb strings.Builder

	for row := 0; row < Rows; row++ {
		sb.WriteByte(cellByte(g.board[x][row]))
	}
	sb.WriteByte('/')

	for col := 0; col < Columns; col++ {
		sb.WriteByte(cellByte(g.board[col][y]))
	}
	sb.WriteByte('/')

	// Rising diagonal, walked from its lower-left intersection with the
	// board boundary.
	d := min(x, y)
	for cx, cy := x-d, y-d; cx < Columns && cy < Rows; cx, cy = cx+1, cy+1 {
		sb.WriteByte(cellByte(g.board[cx][cy]))
	}
	sb.WriteByte('/')

	// Falling diagonal, walked from its lower-right intersection upward.
	d = min(Columns-1-x, y)
	for cx, cy := x+d, y-d; cx >= 0 && cy < Rows; cx, cy = cx-1, cy+1 {
		sb.WriteByte(cellByte(g.board[cx][cy]))
	}

	run := strings.Repeat(string(cellByte(seat)), winLength)
	return strings.Contains(sb.String(), run)
}

// isFull reports whether every column's topmost row is occupied.
func (g *Game) isFull() bool {
	for col := 0; col < Columns; col++ {
		if g.board[col][Rows-1] == 0 {
			return false
		}
	}
	return true
}

func cellByte(v int) byte {
	return byte('0' + v)
}

func otherSeat(seat int) int {
	return seat%SeatCount + 1
}
