package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playgrid/tictactoe-server/internal/entity"
	"github.com/playgrid/tictactoe-server/internal/matchmaker"
	"github.com/playgrid/tictactoe-server/internal/protocol"
)

const readTimeout = 5 * time.Second

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mm := matchmaker.New(logger, nil)
	server := New(logger, mm)

	ts := httptest.NewServer(server.Handler(context.Background()))
	t.Cleanup(ts.Close)

	return ts
}

func dial(t *testing.T, ts *httptest.Server, username string) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/tictactoe?username=" + username

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg protocol.Message) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func receive(t *testing.T, conn *websocket.Conn) protocol.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))

	var msg protocol.Message
	require.NoError(t, conn.ReadJSON(&msg))

	return msg
}

func receiveGameUpdate(t *testing.T, conn *websocket.Conn) protocol.GameUpdateData {
	t.Helper()

	msg := receive(t, conn)
	require.Equal(t, protocol.TypeGameUpdate, msg.Type)

	var update protocol.GameUpdateData
	require.NoError(t, json.Unmarshal(msg.Data, &update))

	return update
}

func receiveErrorKind(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	msg := receive(t, conn)
	require.Equal(t, protocol.TypeError, msg.Type)

	var data protocol.ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &data))

	return data.Kind
}

func TestServer_Handshake(t *testing.T) {
	t.Run("Rejects a missing username before the upgrade", func(t *testing.T) {
		// Given: a running server
		ts := newTestServer(t)

		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/tictactoe"

		// When: dialing without a username
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)

		// Then: the handshake fails with 400
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Rejects a too short username", func(t *testing.T) {
		// Given: a running server
		ts := newTestServer(t)

		wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/tictactoe?username=a"

		// When: dialing with a one-character username
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)

		// Then: the handshake fails with 400
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Accepts a valid username", func(t *testing.T) {
		// Given: a running server
		ts := newTestServer(t)

		// When: dialing with a valid username
		conn := dial(t, ts, "alice")

		// Then: the connection is open
		require.NotNil(t, conn)
	})
}

func TestServer_Messages(t *testing.T) {
	t.Run("Rejects an unknown message type", func(t *testing.T) {
		// Given: a connected client
		ts := newTestServer(t)
		conn := dial(t, ts, "alice")

		// When: sending a message type the server does not know
		send(t, conn, protocol.Message{Type: "teleport"})

		// Then: the client gets an invalidMessage error
		assert.Equal(t, protocol.ErrKindInvalidMessage, receiveErrorKind(t, conn))
	})

	t.Run("Rejects a turn from a client without a room", func(t *testing.T) {
		// Given: a connected, unpaired client
		ts := newTestServer(t)
		conn := dial(t, ts, "alice")

		// When: playing a turn anyway
		send(t, conn, protocol.Message{
			Type: protocol.TypePlayTurn,
			Data: json.RawMessage(`{"row":0,"col":0}`),
		})

		// Then: the client gets a notInRoom error
		assert.Equal(t, protocol.ErrKindNotInRoom, receiveErrorKind(t, conn))
	})

	t.Run("Rejects malformed coordinates before the engine", func(t *testing.T) {
		// Given: a connected client
		ts := newTestServer(t)
		conn := dial(t, ts, "alice")

		// When: sending a turn with a fractional row
		send(t, conn, protocol.Message{
			Type: protocol.TypePlayTurn,
			Data: json.RawMessage(`{"row":1.5,"col":0}`),
		})

		// Then: the client gets an invalidCoordinates error
		assert.Equal(t, protocol.ErrKindInvalidCoordinates, receiveErrorKind(t, conn))
	})
}

func TestServer_PairingAndFirstMove(t *testing.T) {
	// Given: two connected clients
	ts := newTestServer(t)
	connA := dial(t, ts, "alice")
	connB := dial(t, ts, "bob")

	// When: both join the queue
	send(t, connA, protocol.Message{Type: protocol.TypeJoinQueue})
	send(t, connB, protocol.Message{Type: protocol.TypeJoinQueue})

	// Then: both receive a game update introducing the opponent
	updateA := receiveGameUpdate(t, connA)
	updateB := receiveGameUpdate(t, connB)

	assert.Equal(t, "bob", updateA.OpponentName)
	assert.Equal(t, "alice", updateB.OpponentName)
	assert.NotEqual(t, updateA.YourMark, updateB.YourMark)
	require.NotEqual(t, updateA.YourTurn, updateB.YourTurn)

	// Given: whichever side holds the first turn
	mover, waiter := connA, connB
	if updateB.YourTurn {
		mover, waiter = connB, connA
	}

	// When: the first mover plays (0, 0)
	send(t, mover, protocol.Message{
		Type: protocol.TypePlayTurn,
		Data: json.RawMessage(`{"row":0,"col":0}`),
	})

	// Then: both boards show the mark and the turn has passed
	moverUpdate := receiveGameUpdate(t, mover)
	waiterUpdate := receiveGameUpdate(t, waiter)

	assert.Equal(t, entity.MarkX, moverUpdate.Board[0][0])
	assert.Equal(t, entity.MarkX, waiterUpdate.Board[0][0])
	assert.False(t, moverUpdate.YourTurn)
	assert.True(t, waiterUpdate.YourTurn)
}

func TestServer_DisconnectNotifiesOpponent(t *testing.T) {
	// Given: a paired couple
	ts := newTestServer(t)
	connA := dial(t, ts, "alice")
	connB := dial(t, ts, "bob")

	send(t, connA, protocol.Message{Type: protocol.TypeJoinQueue})
	send(t, connB, protocol.Message{Type: protocol.TypeJoinQueue})
	receiveGameUpdate(t, connA)
	receiveGameUpdate(t, connB)

	// When: A's connection drops
	require.NoError(t, connA.Close())

	// Then: B is told the opponent disconnected
	msg := receive(t, connB)
	assert.Equal(t, protocol.TypeOpponentDisconnected, msg.Type)
}
