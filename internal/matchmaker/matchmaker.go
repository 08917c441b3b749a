package matchmaker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/playgrid/tictactoe-server/internal/apperror"
	"github.com/playgrid/tictactoe-server/internal/entity"
	"github.com/playgrid/tictactoe-server/internal/protocol"
)

// Connection is one connected client endpoint. Sends are fire-and-forget:
// a failed delivery is the transport's concern and surfaces later as a
// disconnect.
type Connection interface {
	Send(msg *protocol.Message) error
}

// Result values recorded per display name when a game ends.
const (
	ResultWin  = "wins"
	ResultLoss = "losses"
	ResultDraw = "draws"
)

type statsRepo interface {
	RecordResult(ctx context.Context, name, result string) error
}

// Matchmaker is the single owner of all mutable matchmaking state: the
// player table, the waiting queue, the connection map and the room
// registry. Every externally triggered event is serialized under one
// lock, so no two events race on shared state.
type Matchmaker struct {
	logger *slog.Logger
	stats  statsRepo

	mu      sync.Mutex
	players map[string]*entity.Player
	conns   map[string]Connection
	queue   *Queue
	rooms   map[string]*Room
}

// New creates a matchmaker. stats may be nil to run without counters.
func New(logger *slog.Logger, stats statsRepo) *Matchmaker {
	return &Matchmaker{
		logger:  logger.With("component", "matchmaker"),
		stats:   stats,
		players: make(map[string]*entity.Player),
		conns:   make(map[string]Connection),
		queue:   NewQueue(),
		rooms:   make(map[string]*Room),
	}
}

// Connect registers a new player session for a validated display name.
func (that *Matchmaker) Connect(name string, conn Connection) (*entity.Player, error) {
	cleaned, err := entity.ValidateName(name)
	if err != nil {
		return nil, err
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	player := &entity.Player{
		ID:    uuid.NewString(),
		Name:  cleaned,
		State: entity.StateIdle,
	}

	that.players[player.ID] = player
	that.conns[player.ID] = conn

	that.logger.Info("player connected", "playerID", player.ID, "name", player.Name)

	return player, nil
}

// JoinQueue puts an idle player on the waiting list and pairs up as many
// waiting players as possible, oldest first.
func (that *Matchmaker) JoinQueue(ctx context.Context, playerID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[playerID]
	if !ok {
		return apperror.ErrPlayerNotFound
	}

	if player.IsInRoom() {
		return apperror.ErrAlreadyInRoom
	}

	that.queue.Enqueue(player.ID)
	player.State = entity.StateQueued

	that.pairWaitingLocked(ctx)

	return nil
}

// PlayTurn applies one move for the sender. Failures are reported to the
// sender only and leave the room untouched; a valid move is broadcast to
// both sides.
func (that *Matchmaker) PlayTurn(ctx context.Context, playerID string, row, col int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, room, err := that.roomOfLocked(playerID)
	if err != nil {
		return err
	}

	if room.Game.IsFinished() {
		return apperror.ErrGameFinished
	}

	if room.Game.Turn != player.Mark {
		return apperror.ErrNotYourTurn
	}

	status, err := room.Game.ApplyMove(row, col)
	if err != nil {
		return err
	}

	that.broadcastRoomLocked(room)

	if status != entity.StatusInProgress {
		that.logger.Info("game finished", "roomID", room.ID, "status", status)
		that.recordResultLocked(ctx, room, status)
	}

	return nil
}

// LeaveGame tears the sender's room down and notifies the opponent.
func (that *Matchmaker) LeaveGame(_ context.Context, playerID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, room, err := that.roomOfLocked(playerID)
	if err != nil {
		return err
	}

	that.sendLocked(room.OpponentOf(playerID), protocol.NewOpponentLeft())
	that.closeRoomLocked(room)

	that.logger.Info("player left game", "playerID", playerID, "roomID", room.ID)

	return nil
}

// ReplayGame records a rematch vote after game over. Only when both
// players have voted is the room replaced by a fresh one; until then the
// vote is silent. Votes during a live game are ignored.
func (that *Matchmaker) ReplayGame(_ context.Context, playerID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, room, err := that.roomOfLocked(playerID)
	if err != nil {
		return err
	}

	if !room.Game.IsFinished() {
		return nil
	}

	if !room.VoteReplay(playerID) {
		return nil
	}

	delete(that.rooms, room.ID)
	that.openRoomLocked(room.XPlayerID, room.OPlayerID)

	return nil
}

// Disconnect removes the player from whichever structure holds it. An
// in-room opponent gets exactly one notification and goes back to idle;
// it is not re-queued.
func (that *Matchmaker) Disconnect(_ context.Context, playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[playerID]
	if !ok {
		return
	}

	if player.IsQueued() {
		that.queue.Remove(player.ID)
	}

	if room, ok := that.rooms[player.RoomID]; ok {
		that.sendLocked(room.OpponentOf(player.ID), protocol.NewOpponentDisconnected())
		that.closeRoomLocked(room)
	}

	delete(that.players, playerID)
	delete(that.conns, playerID)

	that.logger.Info("player disconnected", "playerID", playerID)
}

// pairWaitingLocked drains the queue into rooms while at least two
// players are waiting, so a burst of joins never strands a pair.
func (that *Matchmaker) pairWaitingLocked(_ context.Context) {
	for {
		firstID, secondID, ok := that.queue.TryDequeuePair()
		if !ok {
			return
		}

		that.openRoomLocked(firstID, secondID)
	}
}

// openRoomLocked creates a room for the pair, moves both players into
// it and notifies each side of the new game.
func (that *Matchmaker) openRoomLocked(firstID, secondID string) {
	room := NewRoom(firstID, secondID)
	that.rooms[room.ID] = room

	for _, id := range []string{room.XPlayerID, room.OPlayerID} {
		player := that.players[id]
		player.State = entity.StateInRoom
		player.RoomID = room.ID
		player.Mark = room.MarkOf(id)
	}

	that.broadcastRoomLocked(room)

	that.logger.Info("room created", "roomID", room.ID, "playerX", room.XPlayerID, "playerO", room.OPlayerID)
}

// closeRoomLocked deletes the registry entry and resets both players.
// With id-indirection there are no peer pointers left to dangle.
func (that *Matchmaker) closeRoomLocked(room *Room) {
	delete(that.rooms, room.ID)

	for _, id := range []string{room.XPlayerID, room.OPlayerID} {
		player, ok := that.players[id]
		if !ok {
			continue
		}

		player.State = entity.StateIdle
		player.RoomID = ""
		player.Mark = ""
	}
}

// roomOfLocked resolves the sender's room through the registry. A stale
// room reference forces the player back to idle.
func (that *Matchmaker) roomOfLocked(playerID string) (*entity.Player, *Room, error) {
	player, ok := that.players[playerID]
	if !ok {
		return nil, nil, apperror.ErrPlayerNotFound
	}

	if !player.IsInRoom() {
		return nil, nil, apperror.ErrNotInRoom
	}

	room, ok := that.rooms[player.RoomID]
	if !ok {
		player.State = entity.StateIdle
		player.RoomID = ""
		player.Mark = ""

		return nil, nil, apperror.ErrNotInRoom
	}

	return player, room, nil
}

func (that *Matchmaker) broadcastRoomLocked(room *Room) {
	for _, id := range []string{room.XPlayerID, room.OPlayerID} {
		that.sendLocked(id, that.gameUpdateLocked(room, id))
	}
}

func (that *Matchmaker) gameUpdateLocked(room *Room, playerID string) *protocol.Message {
	opponent := that.players[room.OpponentOf(playerID)]

	opponentName := ""
	if opponent != nil {
		opponentName = opponent.Name
	}

	mark := room.MarkOf(playerID)

	return protocol.NewGameUpdate(protocol.GameUpdateData{
		Status:       room.Game.Status(),
		OpponentName: opponentName,
		YourMark:     mark,
		YourTurn:     room.Game.Turn == mark && !room.Game.IsFinished(),
		Board:        room.Game.Board,
	})
}

func (that *Matchmaker) sendLocked(playerID string, msg *protocol.Message) {
	conn, ok := that.conns[playerID]
	if !ok {
		return
	}

	if err := conn.Send(msg); err != nil {
		that.logger.Error("failed to send message", "playerID", playerID, "error", err)
	}
}

func (that *Matchmaker) recordResultLocked(ctx context.Context, room *Room, status string) {
	if that.stats == nil {
		return
	}

	results := map[string]string{
		room.XPlayerID: ResultDraw,
		room.OPlayerID: ResultDraw,
	}

	switch status {
	case entity.StatusXWon:
		results[room.XPlayerID] = ResultWin
		results[room.OPlayerID] = ResultLoss
	case entity.StatusOWon:
		results[room.XPlayerID] = ResultLoss
		results[room.OPlayerID] = ResultWin
	}

	for id, result := range results {
		player, ok := that.players[id]
		if !ok {
			continue
		}

		if err := that.stats.RecordResult(ctx, player.Name, result); err != nil {
			that.logger.Error("failed to record result", "name", player.Name, "error", err)
		}
	}
}
