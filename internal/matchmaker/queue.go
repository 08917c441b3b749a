package matchmaker

// Queue is the FIFO waiting list of player ids not yet paired.
// It is not safe for concurrent use on its own; the Matchmaker
// serializes all access under its lock.
type Queue struct {
	ids []string
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a player id. Duplicate entries are dropped so a
// double join can never pair a player with themselves.
func (that *Queue) Enqueue(id string) {
	if that.Contains(id) {
		return
	}

	that.ids = append(that.ids, id)
}

// TryDequeuePair pops the two longest-waiting ids, or reports false
// when fewer than two players are waiting.
func (that *Queue) TryDequeuePair() (string, string, bool) {
	if len(that.ids) < 2 {
		return "", "", false
	}

	first, second := that.ids[0], that.ids[1]
	that.ids = that.ids[2:]

	return first, second, true
}

// Remove deletes a specific id, used when a queued player disconnects.
// No-op if the id is absent.
func (that *Queue) Remove(id string) {
	for i, queued := range that.ids {
		if queued == id {
			that.ids = append(that.ids[:i], that.ids[i+1:]...)
			return
		}
	}
}

func (that *Queue) Contains(id string) bool {
	for _, queued := range that.ids {
		if queued == id {
			return true
		}
	}
	return false
}

func (that *Queue) Len() int {
	return len(that.ids)
}
