package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/playgrid/tictactoe-server/internal/apperror"
	"github.com/playgrid/tictactoe-server/internal/entity"
	"github.com/playgrid/tictactoe-server/internal/matchmaker"
	"github.com/playgrid/tictactoe-server/internal/protocol"
)

type matchmakerService interface {
	Connect(name string, conn matchmaker.Connection) (*entity.Player, error)
	JoinQueue(ctx context.Context, playerID string) error
	PlayTurn(ctx context.Context, playerID string, row, col int) error
	LeaveGame(ctx context.Context, playerID string) error
	ReplayGame(ctx context.Context, playerID string) error
	Disconnect(ctx context.Context, playerID string)
}

type Server struct {
	logger     *slog.Logger
	matchmaker matchmakerService
	upgrader   websocket.Upgrader
}

func New(logger *slog.Logger, mm matchmakerService) *Server {
	return &Server{
		logger:     logger.With("component", "websocket"),
		matchmaker: mm,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
	}
}

// Start - starts the WebSocket server on /tictactoe and shuts it down
// when the context is canceled.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/tictactoe", func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Handler exposes the upgrade endpoint for tests.
func (that *Server) Handler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	}
}

// handleConnection validates the display name, upgrades the request and
// pumps messages until the client goes away. The name check runs before
// the upgrade so no session is ever created for a bad name.
func (that *Server) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleConnection")

	username := r.URL.Query().Get("username")
	if _, err := entity.ValidateName(username); err != nil {
		http.Error(w, "invalid username", http.StatusBadRequest)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	wsClient := newClient(conn)

	player, err := that.matchmaker.Connect(username, wsClient)
	if err != nil {
		log.Error("failed to connect player", "error", err)
		wsClient.close()
		return
	}

	log.Info("connection established", "playerID", player.ID)

	that.readLoop(ctx, player.ID, conn, wsClient)
}

// readLoop - processes messages from the client until the connection
// closes, then reports the disconnect exactly once.
func (that *Server) readLoop(ctx context.Context, playerID string, conn *websocket.Conn, wsClient *client) {
	log := that.logger.With("method", "readLoop", "playerID", playerID)

	defer func() {
		that.matchmaker.Disconnect(ctx, playerID)
		wsClient.close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		var msg protocol.Message
		if err = json.Unmarshal(data, &msg); err != nil {
			that.sendError(wsClient, protocol.ErrKindInvalidMessage)
			continue
		}

		if err = that.dispatch(ctx, playerID, &msg); err != nil {
			that.sendError(wsClient, errorKind(err))
		}
	}
}

// dispatch routes one inbound message. Unknown types are an explicit
// error, never a silent no-op.
func (that *Server) dispatch(ctx context.Context, playerID string, msg *protocol.Message) error {
	switch msg.Type {
	case protocol.TypeJoinQueue:
		return that.matchmaker.JoinQueue(ctx, playerID)
	case protocol.TypePlayTurn:
		row, col, err := protocol.DecodePlayTurn(msg.Data)
		if err != nil {
			return err
		}
		return that.matchmaker.PlayTurn(ctx, playerID, row, col)
	case protocol.TypeLeaveGame:
		return that.matchmaker.LeaveGame(ctx, playerID)
	case protocol.TypeReplayGame:
		return that.matchmaker.ReplayGame(ctx, playerID)
	default:
		return apperror.ErrInvalidMessage
	}
}

func (that *Server) sendError(wsClient *client, kind string) {
	if err := wsClient.Send(protocol.NewError(kind)); err != nil {
		that.logger.Error("failed to send error response", "error", err)
	}
}

// errorKind maps core errors onto the wire error taxonomy. Everything
// unrecognized is a server error.
func errorKind(err error) string {
	switch {
	case errors.Is(err, apperror.ErrInvalidCoordinates),
		errors.Is(err, apperror.ErrOutOfRange),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameFinished):
		return protocol.ErrKindInvalidCoordinates
	case errors.Is(err, apperror.ErrNotYourTurn):
		return protocol.ErrKindNotYourTurn
	case errors.Is(err, apperror.ErrNotInRoom):
		return protocol.ErrKindNotInRoom
	case errors.Is(err, apperror.ErrAlreadyInRoom),
		errors.Is(err, apperror.ErrInvalidMessage):
		return protocol.ErrKindInvalidMessage
	default:
		return protocol.ErrKindServerError
	}
}
