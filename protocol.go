package main

import "encoding/json"

// Client -> Server message types
const (
	MsgJoinQueue  = "join_queue"
	MsgLeaveQueue = "leave_queue"
	MsgInput      = "input"
	MsgPing       = "ping"
)

// Server -> Client message types
const (
	MsgMatchFound = "match_found"
	MsgGameState  = "game_state"
	MsgGameOver   = "game_over"
	MsgError      = "error"
	MsgPong       = "pong"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// JoinQueueMsg enters a connection into a mode's waiting list
type JoinQueueMsg struct {
	Mode     string `json:"mode"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// InputMsg carries a player's latest movement/kick intent
type InputMsg struct {
	Move Vec2 `json:"move"`
	Kick bool `json:"kick"`
}

// MatchFoundMsg tells a client its match is starting
type MatchFoundMsg struct {
	MatchID  string   `json:"matchId"`
	Team     string   `json:"team"` // red|blue
	Opponent []string `json:"opponent,omitempty"`
}

// GameStateMsg is the authoritative state broadcast at tick rate
type GameStateMsg struct {
	State  GameState `json:"state"`
	Events []Event   `json:"events,omitempty"`
}

// GameOverMsg closes out a match
type GameOverMsg struct {
	Winner string `json:"winner"` // red|blue
}

// ErrorMsg sends an error to the client
type ErrorMsg struct {
	Msg string `json:"msg"`
}

// MatchResult is the rating-surface input for one user's finished match
type MatchResult struct {
	UserID         string  `json:"userId"`
	Username       string  `json:"username,omitempty"`
	OpponentRating float64 `json:"opponentRating"`
	Result         string  `json:"result"` // win|loss|draw
	Mode           string  `json:"mode,omitempty"`
	Timestamp      int64   `json:"timestamp,omitempty"`
}

// MatchResponse reports the outcome of a rating update
type MatchResponse struct {
	NewRating    float64 `json:"newRating"`
	RatingChange float64 `json:"ratingChange"`
	NewTier      string  `json:"newTier"`
	NewDivision  int     `json:"newDivision"`
}
