package matchmaker

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/playgrid/tictactoe-server/internal/entity"
)

// Room pairs exactly two players with one shared game. Players hold only
// the room id; all lookups go through the matchmaker's registry, so
// tearing a room down is a single registry delete.
type Room struct {
	ID          string
	Game        *entity.Game
	XPlayerID   string
	OPlayerID   string
	replayVotes map[string]bool
}

// NewRoom creates a room for the pair with a fresh game. An unbiased
// coin flip decides who plays X and therefore moves first.
func NewRoom(firstID, secondID string) *Room {
	if rand.Intn(2) == 0 {
		firstID, secondID = secondID, firstID
	}

	return &Room{
		ID:          uuid.NewString(),
		Game:        entity.NewGame(),
		XPlayerID:   firstID,
		OPlayerID:   secondID,
		replayVotes: make(map[string]bool),
	}
}

func (that *Room) MarkOf(playerID string) string {
	if playerID == that.XPlayerID {
		return entity.MarkX
	}
	return entity.MarkO
}

func (that *Room) OpponentOf(playerID string) string {
	if playerID == that.XPlayerID {
		return that.OPlayerID
	}
	return that.XPlayerID
}

func (that *Room) Contains(playerID string) bool {
	return playerID == that.XPlayerID || playerID == that.OPlayerID
}

// VoteReplay records that a player wants a rematch and reports whether
// both players have now agreed.
func (that *Room) VoteReplay(playerID string) bool {
	that.replayVotes[playerID] = true

	return that.replayVotes[that.XPlayerID] && that.replayVotes[that.OPlayerID]
}
