// Package engine provides the Connect Four rules engine.
//
// The engine package implements the game mechanics including:
//   - Gravity-correct piece placement on a 7x6 board
//   - Turn order enforcement between two seats
//   - Win detection across rows, columns and both diagonals
//   - Draw detection when the board fills with no winner
//   - In-place reset for rematches
//
// Core Types:
//
// Game holds one play-through of Connect Four. Board is the 7-column,
// 6-row grid with row 0 at the bottom; a cell holds 0 when empty or the
// seat id (1 or 2) of the piece occupying it. Placement describes the
// outcome of a single accepted move.
//
// Usage:
//
//	g := engine.New()
//	p, err := g.Move(1, 3)
//	if err != nil {
//		// rejected move: not your turn, column full, out of range, or game over
//	}
//	if p.Ended {
//		// p.Winner is the winning seat, or 0 on a draw
//	}
//
// Events:
//
// The engine announces terminal transitions and resets on its event
// emitter, so the owning room reacts to "the game ended" without the move
// call site and the lifecycle logic being coupled.
//
// Concurrency:
//
// Game performs no locking of its own. The owning room serializes all
// calls; see the room package.
package engine
