package entity

import (
	"strings"
	"unicode/utf8"

	"github.com/playgrid/tictactoe-server/internal/apperror"
)

const (
	StateIdle   = "idle"
	StateQueued = "queued"
	StateInRoom = "in_room"
)

const (
	MinNameLength = 2
	MaxNameLength = 16
)

// Player is one connected client session. RoomID points into the
// matchmaker's room registry; an empty RoomID means no room.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mark   string `json:"mark,omitempty"`
	State  string `json:"state"`
	RoomID string `json:"room_id,omitempty"`
}

func (that *Player) IsIdle() bool {
	return that.State == StateIdle
}

func (that *Player) IsQueued() bool {
	return that.State == StateQueued
}

func (that *Player) IsInRoom() bool {
	return that.State == StateInRoom
}

// ValidateName trims the raw display name and checks its length in
// runes. It returns the cleaned name, so callers store what was checked.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)

	length := utf8.RuneCountInString(name)
	if length < MinNameLength || length > MaxNameLength {
		return "", apperror.ErrInvalidName
	}

	return name, nil
}
