package websocket

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playgrid/tictactoe-server/internal/protocol"
)

const (
	writeWait     = 10 * time.Second
	sendQueueSize = 32
)

var (
	ErrConnectionClosed = errors.New("connection is closed")
	ErrSendQueueFull    = errors.New("send queue is full")
)

// client wraps one websocket connection as a matchmaker.Connection.
// Writes go through a buffered queue drained by a per-connection
// writer goroutine, so Send never blocks the caller: the matchmaker
// invokes it under its global lock, and a peer that stopped reading
// must stall only its own connection, never unrelated matches.
type client struct {
	conn *websocket.Conn
	send chan *protocol.Message

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn) *client {
	wsClient := &client{
		conn: conn,
		send: make(chan *protocol.Message, sendQueueSize),
		done: make(chan struct{}),
	}

	go wsClient.writePump()

	return wsClient
}

// Send enqueues a message for the writer goroutine. A full queue means
// the peer stopped draining its connection; the connection is closed so
// the read loop reports a disconnect instead of the peer wedging the
// matchmaker.
func (that *client) Send(msg *protocol.Message) error {
	select {
	case <-that.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case that.send <- msg:
		return nil
	default:
		that.close()
		return ErrSendQueueFull
	}
}

// writePump is the single writer gorilla requires. A write that cannot
// finish within writeWait errors out and tears the connection down.
func (that *client) writePump() {
	defer that.close()

	for {
		select {
		case msg := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-that.done:
			return
		}
	}
}

func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)
		_ = that.conn.Close()
	})
}
