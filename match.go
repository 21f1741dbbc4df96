package main

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	TickRate     = 30 // simulation ticks per second
	TickDuration = time.Second / TickRate
	MaxTickDelta = 0.1 // seconds; dt handed to Advance is capped here
)

// Broadcaster is the send-side of a connection, satisfied by *Client and
// by test mocks
type Broadcaster interface {
	SendJSON(msg interface{})
	SendRaw(data []byte)
}

// PlayerStats accumulates per-player attribution over a match
type PlayerStats struct {
	Goals   int
	Assists int
}

// MatchOutcome is handed to the finish callback when a session ends
type MatchOutcome struct {
	MatchID  string
	Mode     string
	Winner   string
	Duration float64
	Roster   []Roster
	Stats    map[string]PlayerStats
}

type inputUpdate struct {
	userID string
	input  PlayerInput
}

// MatchSession owns one match's GameState and the fixed-rate loop that
// advances it. The state is confined to the Run goroutine; inputs and
// disconnects arrive over channels, never by direct mutation.
type MatchSession struct {
	ID  string
	cfg ModeConfig

	state     GameState
	inputs    map[string]PlayerInput
	clients   map[string]Broadcaster
	connected map[string]bool
	stats     map[string]PlayerStats
	elapsed   float64

	inputCh chan inputUpdate
	leaveCh chan string
	stopCh  chan struct{}
	done    chan struct{}

	stopOnce   sync.Once
	finishOnce sync.Once
	onFinish   func(MatchOutcome)
}

// NewMatchSession seeds a session with its roster in kickoff formation
func NewMatchSession(id string, cfg ModeConfig, roster []Roster, clients map[string]Broadcaster, onFinish func(MatchOutcome)) *MatchSession {
	m := &MatchSession{
		ID:        id,
		cfg:       cfg,
		state:     NewGameState(cfg, roster),
		inputs:    make(map[string]PlayerInput, len(roster)),
		clients:   make(map[string]Broadcaster, len(clients)),
		connected: make(map[string]bool, len(roster)),
		stats:     make(map[string]PlayerStats, len(roster)),
		inputCh:   make(chan inputUpdate, 64),
		leaveCh:   make(chan string, 16),
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
		onFinish:  onFinish,
	}
	for id, c := range clients {
		m.clients[id] = c
	}
	for _, r := range roster {
		m.connected[r.PlayerID] = true
	}
	return m
}

// HandleInput records a player's most recent input. Non-blocking: under
// backpressure the oldest intent loses to the ticker anyway.
func (m *MatchSession) HandleInput(userID string, input PlayerInput) {
	select {
	case m.inputCh <- inputUpdate{userID: userID, input: input}:
	case <-m.done:
	default:
	}
}

// HandleLeave tells the session a participant's connection is gone
func (m *MatchSession) HandleLeave(userID string) {
	select {
	case m.leaveCh <- userID:
	case <-m.done:
	}
}

// Stop cancels the loop without declaring a winner
func (m *MatchSession) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// Run drives the session until the match ends or Stop is called. A panic
// inside the loop terminates this match only; the matchmaking layer
// stays up.
func (m *MatchSession) Run() {
	defer close(m.done)
	// Stop and panic paths still unwind through finish so the hub always
	// reclaims the session; the earliest caller's winner sticks.
	defer m.finish("")
	defer func() {
		if r := recover(); r != nil {
			log.Printf("match %s: tick loop panic: %v", m.ID, r)
		}
	}()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case upd := <-m.inputCh:
			m.inputs[upd.userID] = upd.input

		case userID := <-m.leaveCh:
			if winner, forfeit := m.dropParticipant(userID); forfeit {
				m.finish(winner)
				return
			}

		case <-ticker.C:
			if winner, over := m.tick(); over {
				m.finish(winner)
				return
			}

		case <-m.stopCh:
			return
		}
	}
}

// tick applies latest inputs, advances physics one fixed step, and
// broadcasts the result. Returns the winner once the match is over.
func (m *MatchSession) tick() (string, bool) {
	// A player who sent nothing this tick keeps their previous input
	for i := range m.state.Players {
		if input, ok := m.inputs[m.state.Players[i].ID]; ok {
			m.state.Players[i].Input = input
		}
	}

	dt := Clamp(1.0/TickRate, 0, MaxTickDelta)
	next, events := Advance(m.state, dt)
	m.state = next
	m.elapsed += dt
	m.trackEvents(events)

	m.broadcast(Envelope{T: MsgGameState, Data: GameStateMsg{State: m.state, Events: events}})

	if m.state.Status == StatusEnded {
		return m.state.Leader(), true
	}
	if m.state.Score.Red >= m.cfg.ScoreLimit || m.state.Score.Blue >= m.cfg.ScoreLimit {
		return m.state.Leader(), true
	}
	return "", false
}

// trackEvents folds goal events into per-player attribution
func (m *MatchSession) trackEvents(events []Event) {
	for _, ev := range events {
		if ev.Type != EventGoal {
			continue
		}
		if ev.ScorerID != "" {
			st := m.stats[ev.ScorerID]
			st.Goals++
			m.stats[ev.ScorerID] = st
		}
		if ev.AssisterID != "" {
			st := m.stats[ev.AssisterID]
			st.Assists++
			m.stats[ev.AssisterID] = st
		}
	}
}

// dropParticipant neutralizes a disconnected player and stops sending to
// them. The body stays on the pitch. If their whole team is gone the
// surviving team wins by forfeit.
func (m *MatchSession) dropParticipant(userID string) (string, bool) {
	if !m.connected[userID] {
		return "", false
	}
	m.connected[userID] = false
	delete(m.clients, userID)
	m.inputs[userID] = PlayerInput{}
	for i := range m.state.Players {
		if m.state.Players[i].ID == userID {
			m.state.Players[i].Input = PlayerInput{}
		}
	}

	redAlive, blueAlive := false, false
	for _, p := range m.state.Players {
		if !m.connected[p.ID] {
			continue
		}
		if p.Team == TeamRed {
			redAlive = true
		} else {
			blueAlive = true
		}
	}
	if !redAlive && !blueAlive {
		return "", true // everyone gone, no winner
	}
	if !redAlive {
		return TeamBlue, true
	}
	if !blueAlive {
		return TeamRed, true
	}
	return "", false
}

// broadcast marshals once and fans out. A dead recipient never stops the
// loop or the remaining recipients.
func (m *MatchSession) broadcast(msg Envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("match %s: marshal: %v", m.ID, err)
		return
	}
	for _, c := range m.clients {
		if c != nil {
			c.SendRaw(data)
		}
	}
}

// finish announces the result and hands the outcome to the hub. Runs at
// most once per session.
func (m *MatchSession) finish(winner string) {
	m.finishOnce.Do(func() { m.doFinish(winner) })
}

func (m *MatchSession) doFinish(winner string) {
	if winner != "" {
		m.broadcast(Envelope{T: MsgGameOver, Data: GameOverMsg{Winner: winner}})
	}
	if m.onFinish != nil {
		roster := make([]Roster, 0, len(m.state.Players))
		for _, p := range m.state.Players {
			roster = append(roster, Roster{PlayerID: p.ID, Team: p.Team, Username: p.Username})
		}
		m.onFinish(MatchOutcome{
			MatchID:  m.ID,
			Mode:     m.cfg.Mode,
			Winner:   winner,
			Duration: m.elapsed,
			Roster:   roster,
			Stats:    m.stats,
		})
	}
}
