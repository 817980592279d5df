package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2, cfg.SeatLimit)
	assert.Equal(t, time.Minute, cfg.NoJoinDelay)
	assert.Equal(t, 5*time.Minute, cfg.EmptyRoomDelay)
	assert.Equal(t, 2*time.Second, cfg.EndGrace)
	assert.False(t, cfg.Postgres.Enabled())
	assert.False(t, cfg.UseNgrok)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SEAT_LIMIT", "4")
	t.Setenv("NO_JOIN_DELAY", "30s")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("USE_NGROK", "true")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 4, cfg.SeatLimit)
	assert.Equal(t, 30*time.Second, cfg.NoJoinDelay)
	assert.True(t, cfg.Postgres.Enabled())
	assert.True(t, cfg.UseNgrok)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SEAT_LIMIT", "many")
	t.Setenv("EMPTY_ROOM_DELAY", "soon")
	t.Setenv("USE_NGROK", "maybe")

	cfg := Load()

	assert.Equal(t, 2, cfg.SeatLimit)
	assert.Equal(t, 5*time.Minute, cfg.EmptyRoomDelay)
	assert.False(t, cfg.UseNgrok)
}

func TestAddr(t *testing.T) {
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "8081")

	cfg := Load()
	assert.Equal(t, "127.0.0.1:8081", cfg.Addr())
}
