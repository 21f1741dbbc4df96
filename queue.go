package main

// QueueEntry is one waiting connection in a mode's FIFO list
type QueueEntry struct {
	ConnID   string
	UserID   string
	Username string
}

// Matchmaker holds one FIFO waiting list per mode. It is a plain data
// structure: the Hub serializes all access, so there is no lock here and
// the queues are testable without sockets.
type Matchmaker struct {
	queues map[string][]QueueEntry
}

// NewMatchmaker creates an empty set of per-mode queues
func NewMatchmaker() *Matchmaker {
	return &Matchmaker{queues: make(map[string][]QueueEntry)}
}

// Enqueue appends the entry to the mode's waiting list, first removing it
// from any other queue it may be in. When the list reaches the mode's
// required head-count the oldest entries are dequeued and returned as the
// match batch; otherwise nil. Waiting indefinitely is the queue's steady
// state, not an error.
func (mm *Matchmaker) Enqueue(mode string, entry QueueEntry) []QueueEntry {
	mm.Remove(entry.ConnID)
	mm.queues[mode] = append(mm.queues[mode], entry)

	need := RequiredPlayers(mode)
	q := mm.queues[mode]
	if len(q) < need {
		return nil
	}
	batch := make([]QueueEntry, need)
	copy(batch, q[:need])
	mm.queues[mode] = append(q[:0:0], q[need:]...)
	return batch
}

// Remove takes the connection out of whichever queue holds it. A no-op if
// absent; safe to call repeatedly.
func (mm *Matchmaker) Remove(connID string) bool {
	for mode, q := range mm.queues {
		for i, e := range q {
			if e.ConnID == connID {
				mm.queues[mode] = append(q[:i:i], q[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Waiting returns the number of connections queued for a mode
func (mm *Matchmaker) Waiting(mode string) int {
	return len(mm.queues[mode])
}

// SplitTeams assigns the first half of a FIFO batch to red and the second
// half to blue
func SplitTeams(batch []QueueEntry) []Roster {
	roster := make([]Roster, 0, len(batch))
	half := len(batch) / 2
	for i, e := range batch {
		team := TeamRed
		if i >= half {
			team = TeamBlue
		}
		roster = append(roster, Roster{PlayerID: e.UserID, Team: team, Username: e.Username})
	}
	return roster
}
