package main

import (
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

var (
	errUnknownMode    = errors.New("unknown mode")
	errMissingUser    = errors.New("missing userId")
	errNotRegistered  = errors.New("connection not registered")
	errAlreadyPlaying = errors.New("already in a match")
)

// registryEntry tracks one live connection's queue/match membership. All
// registries key by the connection id assigned at accept time; the
// transport handle is just one field.
type registryEntry struct {
	client   Broadcaster
	userID   string
	username string
	mode     string // queue membership, "" when not waiting
	matchID  string // live match, "" when not playing
}

// Hub is the serialized owner of the matchmaking queues, the connection
// registry, and the live match sessions. One mutex covers queue and
// registry state so no two mutations ever interleave; each MatchSession
// owns its GameState on its own goroutine and is reached only through
// message passing.
type Hub struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	queues  *Matchmaker
	matches map[string]*MatchSession

	// Connection limiting (own mutex, touched from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	db      *DB
	ratings *RatingEngine
}

// NewHub creates a Hub over the given profile database
func NewHub(db *DB) *Hub {
	return &Hub{
		entries: make(map[string]*registryEntry),
		queues:  NewMatchmaker(),
		matches: make(map[string]*MatchSession),
		ipConns: make(map[string]int),
		db:      db,
		ratings: NewRatingEngine(db),
	}
}

// CanAccept reports whether another connection from this IP fits the caps
func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	return h.ipConns[ip] < maxConnsPerIP
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Register admits a connection and returns its stable connection id
func (h *Hub) Register(client Broadcaster) string {
	connID := uuid.NewString()
	h.mu.Lock()
	h.entries[connID] = &registryEntry{client: client}
	h.mu.Unlock()
	return connID
}

// Unregister cleans up a closed connection: out of any queue, and its
// match is told the player is gone. Idempotent.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	entry, ok := h.entries[connID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.entries, connID)
	h.queues.Remove(connID)
	var session *MatchSession
	if entry.matchID != "" {
		session = h.matches[entry.matchID]
	}
	h.mu.Unlock()

	if session != nil {
		session.HandleLeave(entry.userID)
	}
}

// JoinQueue enters a connection into a mode's waiting list and starts a
// match the moment quorum is reached
func (h *Hub) JoinQueue(connID string, msg JoinQueueMsg) error {
	if !ValidMode(msg.Mode) {
		return errUnknownMode
	}
	if msg.UserID == "" {
		return errMissingUser
	}

	h.mu.Lock()
	entry, ok := h.entries[connID]
	if !ok {
		h.mu.Unlock()
		return errNotRegistered
	}
	if entry.matchID != "" {
		h.mu.Unlock()
		return errAlreadyPlaying
	}
	entry.userID = msg.UserID
	entry.username = msg.Username
	entry.mode = msg.Mode

	batch := h.queues.Enqueue(msg.Mode, QueueEntry{ConnID: connID, UserID: msg.UserID, Username: msg.Username})
	if batch == nil {
		h.mu.Unlock()
		return nil
	}
	h.startMatch(msg.Mode, batch)
	h.mu.Unlock()
	return nil
}

// startMatch spins up a session for a full batch. Caller holds h.mu.
func (h *Hub) startMatch(mode string, batch []QueueEntry) {
	matchID := uuid.NewString()
	roster := SplitTeams(batch)
	cfg := ConfigForMode(mode)

	clients := make(map[string]Broadcaster, len(batch))
	for _, e := range batch {
		if entry, ok := h.entries[e.ConnID]; ok {
			entry.mode = ""
			entry.matchID = matchID
			clients[e.UserID] = entry.client
		}
	}

	session := NewMatchSession(matchID, cfg, roster, clients, h.finishMatch)
	h.matches[matchID] = session
	go session.Run()

	// Announce per participant: own team plus opposing usernames
	for i, e := range batch {
		opponents := make([]string, 0, len(batch)/2)
		for j, o := range batch {
			if roster[j].Team != roster[i].Team {
				opponents = append(opponents, o.Username)
			}
		}
		if entry, ok := h.entries[e.ConnID]; ok && entry.client != nil {
			entry.client.SendJSON(Envelope{T: MsgMatchFound, Data: MatchFoundMsg{
				MatchID:  matchID,
				Team:     roster[i].Team,
				Opponent: opponents,
			}})
		}
	}
	log.Printf("match %s started: mode=%s players=%d", matchID, mode, len(batch))
}

// LeaveQueue removes a connection from whichever queue holds it. No-op if
// it was never enqueued.
func (h *Hub) LeaveQueue(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queues.Remove(connID)
	if entry, ok := h.entries[connID]; ok {
		entry.mode = ""
	}
}

// RouteInput forwards a player's input frame to their live session
// without a linear scan
func (h *Hub) RouteInput(connID string, input PlayerInput) {
	h.mu.Lock()
	entry, ok := h.entries[connID]
	var session *MatchSession
	var userID string
	if ok && entry.matchID != "" {
		session = h.matches[entry.matchID]
		userID = entry.userID
	}
	h.mu.Unlock()

	if session != nil {
		session.HandleInput(userID, input)
	}
}

// finishMatch reclaims a finished session and settles ratings. Invoked
// from the session goroutine exactly once per match.
func (h *Hub) finishMatch(outcome MatchOutcome) {
	h.mu.Lock()
	delete(h.matches, outcome.MatchID)
	for _, entry := range h.entries {
		if entry.matchID == outcome.MatchID {
			entry.matchID = ""
		}
	}
	h.mu.Unlock()

	if outcome.Winner == "" || h.db == nil {
		return
	}
	h.settleRatings(outcome)
}

// settleRatings converts a decided match into profile updates and a
// durable match record
func (h *Hub) settleRatings(outcome MatchOutcome) {
	// Opponent rating for each player is the opposing team's average
	teamSum := map[string]float64{}
	teamCount := map[string]int{}
	ratings := make(map[string]float64, len(outcome.Roster))
	for _, r := range outcome.Roster {
		profile, err := h.ratings.GetOrCreateProfile(r.PlayerID, r.Username)
		if err != nil {
			log.Printf("match %s: load profile %s: %v", outcome.MatchID, r.PlayerID, err)
			return
		}
		ratings[r.PlayerID] = profile.Rating
		teamSum[r.Team] += profile.Rating
		teamCount[r.Team]++
	}

	matchID, err := h.db.RecordMatch(outcome.Mode, outcome.Duration, outcome.Winner)
	if err != nil {
		log.Printf("match %s: record: %v", outcome.MatchID, err)
	}

	for _, r := range outcome.Roster {
		opposing := TeamRed
		if r.Team == TeamRed {
			opposing = TeamBlue
		}
		opponentRating := DefaultRating
		if teamCount[opposing] > 0 {
			opponentRating = teamSum[opposing] / float64(teamCount[opposing])
		}
		result := ResultLoss
		if r.Team == outcome.Winner {
			result = ResultWin
		}
		resp, err := h.ratings.ProcessMatch(r.PlayerID, r.Username, opponentRating, result)
		if err != nil {
			log.Printf("match %s: rating %s: %v", outcome.MatchID, r.PlayerID, err)
			continue
		}
		if matchID != 0 {
			st := outcome.Stats[r.PlayerID]
			if err := h.db.RecordMatchPlayer(matchID, r.PlayerID, r.Team, st.Goals, st.Assists, resp.RatingChange); err != nil {
				log.Printf("match %s: record player %s: %v", outcome.MatchID, r.PlayerID, err)
			}
		}
	}
}

// MatchCount returns the number of live sessions
func (h *Hub) MatchCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.matches)
}

// Waiting returns the number of connections queued for a mode
func (h *Hub) Waiting(mode string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.queues.Waiting(mode)
}

// StopAll cancels every live session (shutdown path)
func (h *Hub) StopAll() {
	h.mu.Lock()
	sessions := make([]*MatchSession, 0, len(h.matches))
	for _, s := range h.matches {
		sessions = append(sessions, s)
	}
	h.mu.Unlock()
	for _, s := range sessions {
		s.Stop()
	}
}
