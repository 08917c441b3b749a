package apperror

import "errors"

var (
	ErrGameFinished       = errors.New("game is already finished")
	ErrNotYourTurn        = errors.New("it's not your turn")
	ErrCellOccupied       = errors.New("cell is already occupied")
	ErrOutOfRange         = errors.New("coordinates are out of range")
	ErrNotInRoom          = errors.New("player is not in a room")
	ErrAlreadyInRoom      = errors.New("player is already in a room")
	ErrInvalidName        = errors.New("display name must be 2-16 characters")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrInvalidMessage     = errors.New("invalid message")
)
