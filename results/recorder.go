// Package results records finished matches.
//
// The room engine emits one Result per finished game and forgets about it;
// recording is fire-and-forget and a recorder failure must never affect
// room teardown. Postgres persistence is optional; without a configured
// database the server falls back to logging results.
package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/Zak4b/P4-sub000/game/engine"
)

// Result is the end-of-game report: final board, winner and the
// seat-to-identity mapping of the finished match.
type Result struct {
	RoomID     string
	Seats      map[int]string // seat id -> stable identity
	Winner     int            // winning seat, 0 on a draw
	Draw       bool
	Board      engine.Board
	StartedAt  time.Time
	FinishedAt time.Time
}

// WinnerIdentity resolves the winning seat to its identity, or "" on a draw.
func (r Result) WinnerIdentity() string {
	if r.Draw {
		return ""
	}
	return r.Seats[r.Winner]
}

// Recorder consumes finished matches.
type Recorder interface {
	Record(ctx context.Context, result Result) error
}

// LogRecorder writes results to the process log. Used when no database is
// configured.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, result Result) error {
	if result.Draw {
		log.Printf("Match in room %s ended in a draw after %s",
			result.RoomID, result.FinishedAt.Sub(result.StartedAt).Round(time.Second))
		return nil
	}
	log.Printf("Match in room %s won by %s (seat %d)",
		result.RoomID, result.WinnerIdentity(), result.Winner)
	return nil
}

// PostgresRecorder persists results into the matches table.
type PostgresRecorder struct {
	db *sql.DB
}

// OpenPostgres connects to PostgreSQL and verifies the connection.
func OpenPostgres(host string, port int, user, password, dbname string) (*PostgresRecorder, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	log.Println("Connected to PostgreSQL for match recording")
	return &PostgresRecorder{db: db}, nil
}

// Record inserts one finished match.
func (p *PostgresRecorder) Record(ctx context.Context, result Result) error {
	board, err := json.Marshal(result.Board)
	if err != nil {
		return fmt.Errorf("failed to encode board: %w", err)
	}

	var winnerSeat sql.NullInt64
	if !result.Draw {
		winnerSeat = sql.NullInt64{Int64: int64(result.Winner), Valid: true}
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO matches (room_id, player1, player2, winner_seat, draw, board, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		result.RoomID, result.Seats[1], result.Seats[2],
		winnerSeat, result.Draw, board, result.StartedAt, result.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to insert match: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (p *PostgresRecorder) Close() error {
	return p.db.Close()
}
