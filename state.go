package main

import "strings"

// Teams
const (
	TeamRed  = "red"
	TeamBlue = "blue"
)

// Match status values
const (
	StatusPlaying = "playing"
	StatusGoal    = "goal"
	StatusEnded   = "ended"
)

const (
	PlayerRadius = 15.0
	BallRadius   = 10.0

	// Kickoff formation: team lines at a fixed offset from each goal line
	FormationX = 150.0
)

// PlayerInput is the latest normalized input for one player
type PlayerInput struct {
	Move Vec2 `json:"move"`
	Kick bool `json:"kick"`
}

// Player is one participant's body on the pitch. Owned by the GameState
// that contains it; mutated only by Advance and by the session applying
// the player's latest input before each tick.
type Player struct {
	ID        string      `json:"id"`
	Team      string      `json:"team"`
	Username  string      `json:"username"`
	Jersey    string      `json:"jersey,omitempty"`
	Position  Vec2        `json:"position"`
	Velocity  Vec2        `json:"velocity"`
	Radius    float64     `json:"radius"`
	IsKicking bool        `json:"isKicking"`
	Input     PlayerInput `json:"-"`
}

// BallTouch records a contact for scorer/assist attribution
type BallTouch struct {
	PlayerID             string  `json:"playerId"`
	Team                 string  `json:"team"`
	TimeRemainingAtTouch float64 `json:"timeRemainingAtTouch"`
}

// Ball carries the last two distinct-player touches. PreviousTouch only
// updates when a different player than LastTouch touches the ball.
type Ball struct {
	Position      Vec2       `json:"position"`
	Velocity      Vec2       `json:"velocity"`
	Radius        float64    `json:"radius"`
	LastTouch     *BallTouch `json:"lastTouch,omitempty"`
	PreviousTouch *BallTouch `json:"previousTouch,omitempty"`
}

// Score tracks goals per team
type Score struct {
	Red  int `json:"red"`
	Blue int `json:"blue"`
}

// GameState is the aggregate root for one match. Advance treats it as a
// value: each tick produces a new state and never mutates the previous one.
type GameState struct {
	Players       []Player `json:"players"`
	Ball          Ball     `json:"ball"`
	Score         Score    `json:"score"`
	Field         Field    `json:"field"`
	Status        string   `json:"status"`
	TimeRemaining float64  `json:"timeRemaining"`
	IsOvertime    bool     `json:"isOvertime"`
	GoalTimer     float64  `json:"goalTimer"`
}

// Roster describes one participant at match creation time
type Roster struct {
	PlayerID string
	Team     string
	Username string
}

// JerseyTag derives the optional 2-character jersey tag from a username
func JerseyTag(username string) string {
	name := strings.TrimSpace(username)
	if name == "" {
		return ""
	}
	r := []rune(strings.ToUpper(name))
	if len(r) == 1 {
		return string(r[0])
	}
	return string(r[:2])
}

// NewGameState seeds a match: players in team formation, ball at center,
// clock at the mode's time limit.
func NewGameState(cfg ModeConfig, roster []Roster) GameState {
	s := GameState{
		Players:       make([]Player, 0, len(roster)),
		Field:         NewField(cfg.FieldPreset),
		Status:        StatusPlaying,
		TimeRemaining: cfg.TimeLimit,
	}
	for _, r := range roster {
		s.Players = append(s.Players, Player{
			ID:       r.PlayerID,
			Team:     r.Team,
			Username: r.Username,
			Jersey:   JerseyTag(r.Username),
			Radius:   PlayerRadius,
		})
	}
	s.Ball = Ball{Radius: BallRadius}
	s.ResetPositions()
	return s
}

// ResetPositions places every player on their team's vertical line and the
// ball at field center, zeroing velocities and inputs. Single players sit
// centered on the midline; multiple players are spaced at height/(count+1)
// intervals.
func (s *GameState) ResetPositions() {
	redCount, blueCount := 0, 0
	for _, p := range s.Players {
		if p.Team == TeamRed {
			redCount++
		} else {
			blueCount++
		}
	}
	redIdx, blueIdx := 0, 0
	for i := range s.Players {
		p := &s.Players[i]
		if p.Team == TeamRed {
			redIdx++
			p.Position = Vec2{FormationX, s.Field.Height * float64(redIdx) / float64(redCount+1)}
		} else {
			blueIdx++
			p.Position = Vec2{s.Field.Width - FormationX, s.Field.Height * float64(blueIdx) / float64(blueCount+1)}
		}
		p.Velocity = Vec2{}
		p.Input = PlayerInput{}
		p.IsKicking = false
	}
	s.Ball.Position = Vec2{s.Field.Width / 2, s.Field.Height / 2}
	s.Ball.Velocity = Vec2{}
}

// Clone returns a structural copy sharing no mutable state with s
func (s GameState) Clone() GameState {
	out := s
	out.Players = make([]Player, len(s.Players))
	copy(out.Players, s.Players)
	if s.Ball.LastTouch != nil {
		t := *s.Ball.LastTouch
		out.Ball.LastTouch = &t
	}
	if s.Ball.PreviousTouch != nil {
		t := *s.Ball.PreviousTouch
		out.Ball.PreviousTouch = &t
	}
	return out
}

// Leader returns the team currently ahead, or "" on a tie
func (s GameState) Leader() string {
	if s.Score.Red > s.Score.Blue {
		return TeamRed
	}
	if s.Score.Blue > s.Score.Red {
		return TeamBlue
	}
	return ""
}
