package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/playgrid/tictactoe-server/internal/apperror"
	"github.com/playgrid/tictactoe-server/internal/entity"
)

// Client-to-server message types. Anything else is an invalid message.
const (
	TypeJoinQueue  = "joinQueue"
	TypePlayTurn   = "playTurn"
	TypeLeaveGame  = "leaveGame"
	TypeReplayGame = "replayGame"
)

// Server-to-client message types.
const (
	TypeGameUpdate           = "gameUpdate"
	TypeOpponentLeft         = "opponentLeft"
	TypeOpponentDisconnected = "opponentDisconnected"
	TypeError                = "error"
)

// Error kinds carried by TypeError messages.
const (
	ErrKindInvalidMessage     = "invalidMessage"
	ErrKindInvalidCoordinates = "invalidCoordinates"
	ErrKindNotYourTurn        = "notYourTurn"
	ErrKindNotInRoom          = "notInRoom"
	ErrKindServerError        = "serverError"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PlayTurnData uses pointers so a missing coordinate is distinguishable
// from a zero one.
type PlayTurnData struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

type GameUpdateData struct {
	Status       string                                     `json:"status"`
	OpponentName string                                     `json:"opponentName"`
	YourMark     string                                     `json:"yourMark"`
	YourTurn     bool                                       `json:"yourTurn"`
	Board        [entity.BoardSize][entity.BoardSize]string `json:"board"`
}

type ErrorData struct {
	Kind string `json:"kind"`
}

// DecodePlayTurn validates the playTurn payload before it can reach the
// engine: both coordinates must be present integers in [0, 2].
func DecodePlayTurn(data json.RawMessage) (int, int, error) {
	var payload PlayTurnData
	if err := json.Unmarshal(data, &payload); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", apperror.ErrInvalidCoordinates, err)
	}

	if payload.Row == nil || payload.Col == nil {
		return 0, 0, apperror.ErrInvalidCoordinates
	}

	row, col := *payload.Row, *payload.Col
	if row < 0 || row >= entity.BoardSize || col < 0 || col >= entity.BoardSize {
		return 0, 0, apperror.ErrInvalidCoordinates
	}

	return row, col, nil
}

func NewGameUpdate(update GameUpdateData) *Message {
	return &Message{
		Type: TypeGameUpdate,
		Data: mustMarshal(update),
	}
}

func NewOpponentLeft() *Message {
	return &Message{Type: TypeOpponentLeft}
}

func NewOpponentDisconnected() *Message {
	return &Message{Type: TypeOpponentDisconnected}
}

func NewError(kind string) *Message {
	return &Message{
		Type: TypeError,
		Data: mustMarshal(ErrorData{Kind: kind}),
	}
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
