package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zak4b/P4-sub000/game/engine"
)

func TestDecodeJoin(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"join","data":{"roomId":" lobby-1 "}}`))
	require.NoError(t, err)

	join, ok := msg.(JoinRequest)
	require.True(t, ok)
	assert.Equal(t, "lobby-1", join.RoomID)
}

func TestDecodePlay(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"play","data":{"column":4}}`))
	require.NoError(t, err)

	play, ok := msg.(PlayRequest)
	require.True(t, ok)
	assert.Equal(t, 4, play.Column)
}

func TestDecodeRestart(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"restart"}`))
	require.NoError(t, err)
	assert.Equal(t, RestartRequest{}, msg)

	msg, err = Decode([]byte(`{"type":"restart","data":{"force":true}}`))
	require.NoError(t, err)
	assert.Equal(t, RestartRequest{Force: true}, msg)
}

func TestDecodeChat(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"message","data":{"text":"hello"}}`))
	require.NoError(t, err)
	assert.Equal(t, ChatMessage{Text: "hello"}, msg)
}

func TestDecodeRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"join without room", `{"type":"join","data":{}}`},
		{"join bad payload", `{"type":"join","data":42}`},
		{"play without column", `{"type":"play"}`},
		{"empty chat", `{"type":"message","data":{"text":""}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			var de *DecodeError
			require.Error(t, err)
			assert.True(t, errors.As(err, &de), "expected DecodeError, got %v", err)
		})
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"teleport","data":{}}`))
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestSyncOmitsBoardBeforeFirstMove(t *testing.T) {
	out := Sync(1, engine.Snapshot{Current: 1})
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "board")
	assert.NotContains(t, string(raw), "lastMove")

	snap := engine.Snapshot{Current: 2, PlayCount: 1, LastMove: &engine.Move{Column: 3, Row: 0}}
	snap.Board[3][0] = 1
	raw, err = json.Marshal(Sync(2, snap))
	require.NoError(t, err)

	assert.Contains(t, string(raw), `"board"`)
	assert.Contains(t, string(raw), `"lastMove"`)
}

func TestEndOmitsWinnerOnDraw(t *testing.T) {
	raw, err := json.Marshal(End("", true))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "winner")

	raw, err = json.Marshal(End("player-a", false))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"winner":"player-a"`)
}

func TestParseCommand(t *testing.T) {
	cmd, ok := ParseCommand("/join lobby-2")
	require.True(t, ok)
	assert.Equal(t, Command{Name: "join", Arg: "lobby-2"}, cmd)

	cmd, ok = ParseCommand("/HELP")
	require.True(t, ok)
	assert.Equal(t, "help", cmd.Name)

	_, ok = ParseCommand("gg well played")
	assert.False(t, ok)

	_, ok = ParseCommand("/")
	assert.False(t, ok)
}
