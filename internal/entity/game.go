package entity

import (
	"github.com/playgrid/tictactoe-server/internal/apperror"
)

const (
	StatusInProgress = "inProgress"
	StatusXWon       = "xPlayerWin"
	StatusOWon       = "oPlayerWin"
	StatusDraw       = "draw"

	MarkX = "X"
	MarkO = "O"

	EmptyCell = ""

	BoardSize = 3
)

// Game is the turn state machine for a single match of tic-tac-toe.
// It knows nothing about players or rooms, only marks on a board.
type Game struct {
	Board [BoardSize][BoardSize]string `json:"board"`
	Turn  string                       `json:"turn"`
}

// NewGame returns a fresh game. X always moves first; which player
// holds X is decided by the room, not the engine.
func NewGame() *Game {
	return &Game{
		Turn: MarkX,
	}
}

// ApplyMove places the current mark at (row, col) and flips the turn.
// All checks happen before any mutation, so a rejected move leaves the
// board and turn exactly as they were.
func (that *Game) ApplyMove(row, col int) (string, error) {
	if that.Status() != StatusInProgress {
		return "", apperror.ErrGameFinished
	}

	if row < 0 || row >= BoardSize || col < 0 || col >= BoardSize {
		return "", apperror.ErrOutOfRange
	}

	if that.Board[row][col] != EmptyCell {
		return "", apperror.ErrCellOccupied
	}

	that.Board[row][col] = that.Turn
	that.Turn = ToggleMark(that.Turn)

	return that.Status(), nil
}

// Status is a pure function of the board so it always reflects the
// latest state. Never cache it.
func (that *Game) Status() string {
	for i := 0; i < BoardSize; i++ {
		if winner := that.lineWinner(that.Board[i][0], that.Board[i][1], that.Board[i][2]); winner != "" {
			return winner
		}
		if winner := that.lineWinner(that.Board[0][i], that.Board[1][i], that.Board[2][i]); winner != "" {
			return winner
		}
	}

	if winner := that.lineWinner(that.Board[0][0], that.Board[1][1], that.Board[2][2]); winner != "" {
		return winner
	}
	if winner := that.lineWinner(that.Board[0][2], that.Board[1][1], that.Board[2][0]); winner != "" {
		return winner
	}

	for i := 0; i < BoardSize; i++ {
		for j := 0; j < BoardSize; j++ {
			if that.Board[i][j] == EmptyCell {
				return StatusInProgress
			}
		}
	}

	return StatusDraw
}

func (that *Game) IsFinished() bool {
	return that.Status() != StatusInProgress
}

func (that *Game) lineWinner(a, b, c string) string {
	if a == EmptyCell || a != b || b != c {
		return ""
	}

	if a == MarkX {
		return StatusXWon
	}
	return StatusOWon
}

func ToggleMark(mark string) string {
	if mark == MarkX {
		return MarkO
	}
	return MarkX
}
