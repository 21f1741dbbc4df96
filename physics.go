package main

import "math"

// Movement and contact tuning. Damping bases are per 60 Hz reference frame
// and applied as base^(dt*60) so decay is frame-rate independent.
const (
	PlayerAccel    = 600.0 // px/s²
	PlayerMaxSpeed = 250.0 // px/s
	PlayerDamping  = 0.96
	BallDamping    = 0.985
	VelocitySnap   = 1.0 // px/s, components below this snap to zero

	PlayerRestitution = 0.1
	PostRestitution   = 0.8
	WallRestitution   = 0.7

	KickTolerance = 4.0   // px beyond touching distance
	KickImpulse   = 380.0 // px/s added along player→ball normal
	DribbleGrip   = 0.2   // fraction of player velocity carried into the ball

	AssistWindow    = 5.0 // countdown-clock seconds between the two touches
	GoalCelebration = 3.0 // seconds of post-goal pause
)

// Event types emitted by Advance
const (
	EventGoal    = "goal"
	EventWall    = "wall"
	EventKick    = "kick"
	EventPlayer  = "player"
	EventWhistle = "whistle"
)

// Event is one notable occurrence during a tick
type Event struct {
	Type       string `json:"type"`
	Team       string `json:"team,omitempty"`
	PlayerID   string `json:"playerId,omitempty"`
	ScorerID   string `json:"scorerId,omitempty"`
	AssisterID string `json:"assisterId,omitempty"`
}

// Advance runs one physics tick. It is a pure function of its inputs: the
// previous state is never mutated and no clock or RNG is consulted. dt is
// trusted as-is; callers clamp it (the session caps at 0.1s) to keep
// circle sweeps from tunneling.
func Advance(prev GameState, dt float64) (GameState, []Event) {
	s := prev.Clone()
	var events []Event

	// Post-goal pause: count the celebration down, then restore kickoff
	if s.Status == StatusGoal {
		s.GoalTimer -= dt
		if s.GoalTimer <= 0 {
			s.GoalTimer = 0
			s.ResetPositions()
			s.Status = StatusPlaying
		}
		return s, events
	}
	if s.Status != StatusPlaying {
		return s, events
	}

	// Clock. Crossing zero while tied starts sudden death; overtime has no
	// time-based ending.
	if !s.IsOvertime {
		s.TimeRemaining -= dt
		if s.TimeRemaining <= 0 {
			s.TimeRemaining = 0
			if s.Score.Red == s.Score.Blue {
				s.IsOvertime = true
			} else {
				s.Status = StatusEnded
				events = append(events, Event{Type: EventWhistle})
				return s, events
			}
		}
	}

	stepPlayers(&s, dt)
	collidePlayers(&s)
	containPlayers(&s)
	stepBall(&s, dt)
	events = collidePosts(&s, events)
	events = collideWalls(&s, events)

	if scored, goalEvents := detectGoal(&s); scored {
		return s, append(events, goalEvents...)
	}

	events = touchBall(&s, events)
	return s, events
}

// stepPlayers applies each player's input and integrates movement
func stepPlayers(s *GameState, dt float64) {
	for i := range s.Players {
		p := &s.Players[i]
		dir := p.Input.Move.Normalize()
		p.Velocity = p.Velocity.Add(dir.Scale(PlayerAccel * dt))
		if speed := p.Velocity.Length(); speed > PlayerMaxSpeed {
			p.Velocity = p.Velocity.Scale(PlayerMaxSpeed / speed)
		}
		p.Position = p.Position.Add(p.Velocity.Scale(dt))
		p.Velocity = p.Velocity.Scale(math.Pow(PlayerDamping, dt*60))
		p.Velocity = snapVelocity(p.Velocity)
		p.IsKicking = p.Input.Kick
	}
}

// snapVelocity zeroes near-zero components so bodies come to rest
func snapVelocity(v Vec2) Vec2 {
	if math.Abs(v.X) < VelocitySnap {
		v.X = 0
	}
	if math.Abs(v.Y) < VelocitySnap {
		v.Y = 0
	}
	return v
}

// collidePlayers resolves every player pair: symmetric separation plus an
// inelastic impulse when the pair is closing. Equal unit mass assumed.
func collidePlayers(s *GameState) {
	for i := 0; i < len(s.Players); i++ {
		for j := i + 1; j < len(s.Players); j++ {
			a, b := &s.Players[i], &s.Players[j]
			delta := b.Position.Sub(a.Position)
			dist := delta.Length()
			minDist := a.Radius + b.Radius
			if dist >= minDist || dist == 0 {
				continue
			}
			normal := delta.Scale(1 / dist)
			half := (minDist - dist) / 2
			a.Position = a.Position.Sub(normal.Scale(half))
			b.Position = b.Position.Add(normal.Scale(half))

			vn := b.Velocity.Sub(a.Velocity).Dot(normal)
			if vn < 0 {
				imp := -(1 + PlayerRestitution) * vn / 2
				a.Velocity = a.Velocity.Sub(normal.Scale(imp))
				b.Velocity = b.Velocity.Add(normal.Scale(imp))
			}
		}
	}
}

// containPlayers clamps players to the pitch, killing the velocity
// component that drove them out
func containPlayers(s *GameState) {
	for i := range s.Players {
		p := &s.Players[i]
		if p.Position.X < p.Radius {
			p.Position.X = p.Radius
			if p.Velocity.X < 0 {
				p.Velocity.X = 0
			}
		} else if p.Position.X > s.Field.Width-p.Radius {
			p.Position.X = s.Field.Width - p.Radius
			if p.Velocity.X > 0 {
				p.Velocity.X = 0
			}
		}
		if p.Position.Y < p.Radius {
			p.Position.Y = p.Radius
			if p.Velocity.Y < 0 {
				p.Velocity.Y = 0
			}
		} else if p.Position.Y > s.Field.Height-p.Radius {
			p.Position.Y = s.Field.Height - p.Radius
			if p.Velocity.Y > 0 {
				p.Velocity.Y = 0
			}
		}
	}
}

// stepBall integrates and damps the ball
func stepBall(s *GameState, dt float64) {
	b := &s.Ball
	b.Position = b.Position.Add(b.Velocity.Scale(dt))
	b.Velocity = b.Velocity.Scale(math.Pow(BallDamping, dt*60))
	b.Velocity = snapVelocity(b.Velocity)
}

// collidePosts bounces the ball off the four goal posts
func collidePosts(s *GameState, events []Event) []Event {
	b := &s.Ball
	for _, post := range s.Field.GoalPosts {
		delta := b.Position.Sub(post.Position)
		dist := delta.Length()
		minDist := b.Radius + post.Radius
		if dist >= minDist || dist == 0 {
			continue
		}
		normal := delta.Scale(1 / dist)
		b.Position = post.Position.Add(normal.Scale(minDist))
		vn := b.Velocity.Dot(normal)
		if vn < 0 {
			b.Velocity = b.Velocity.Sub(normal.Scale((1 + PostRestitution) * vn))
			events = append(events, Event{Type: EventWall})
		}
	}
	return events
}

// collideWalls bounces the ball off the pitch boundary. The side walls
// have a gap exactly at the goal mouth: left/right only bounce when the
// ball's y is outside the goal span, which must be resolved before goal
// detection so a ball that should have bounced never crosses the line.
func collideWalls(s *GameState, events []Event) []Event {
	b := &s.Ball
	if b.Position.Y < b.Radius {
		b.Position.Y = b.Radius
		if b.Velocity.Y < 0 {
			b.Velocity.Y = -b.Velocity.Y * WallRestitution
			events = append(events, Event{Type: EventWall})
		}
	} else if b.Position.Y > s.Field.Height-b.Radius {
		b.Position.Y = s.Field.Height - b.Radius
		if b.Velocity.Y > 0 {
			b.Velocity.Y = -b.Velocity.Y * WallRestitution
			events = append(events, Event{Type: EventWall})
		}
	}

	inGoalMouth := b.Position.Y >= s.Field.GoalTop() && b.Position.Y <= s.Field.GoalBottom()
	if inGoalMouth {
		return events
	}
	if b.Position.X < b.Radius {
		b.Position.X = b.Radius
		if b.Velocity.X < 0 {
			b.Velocity.X = -b.Velocity.X * WallRestitution
			events = append(events, Event{Type: EventWall})
		}
	} else if b.Position.X > s.Field.Width-b.Radius {
		b.Position.X = s.Field.Width - b.Radius
		if b.Velocity.X > 0 {
			b.Velocity.X = -b.Velocity.X * WallRestitution
			events = append(events, Event{Type: EventWall})
		}
	}
	return events
}

// detectGoal fires once the ball center is fully past a goal line. Red
// defends the left goal, so a ball past x = -radius is a blue goal.
func detectGoal(s *GameState) (bool, []Event) {
	b := &s.Ball
	var team string
	switch {
	case b.Position.X < -b.Radius:
		team = TeamBlue
	case b.Position.X > s.Field.Width+b.Radius:
		team = TeamRed
	default:
		return false, nil
	}

	if team == TeamRed {
		s.Score.Red++
	} else {
		s.Score.Blue++
	}

	goal := Event{Type: EventGoal, Team: team}
	if last := b.LastTouch; last != nil {
		// An own-goal author is still recorded as the scorer
		goal.ScorerID = last.PlayerID
		if prev := b.PreviousTouch; prev != nil &&
			prev.Team == team &&
			prev.PlayerID != last.PlayerID &&
			prev.TimeRemainingAtTouch-last.TimeRemainingAtTouch < AssistWindow {
			goal.AssisterID = prev.PlayerID
		}
	}
	events := []Event{goal}

	if s.IsOvertime {
		// Golden goal
		s.Status = StatusEnded
		events = append(events, Event{Type: EventWhistle})
	} else {
		s.Status = StatusGoal
		s.GoalTimer = GoalCelebration
	}
	return true, events
}

// touchBall handles kicks and dribble contact. A player can trigger both
// branches in the same tick.
func touchBall(s *GameState, events []Event) []Event {
	b := &s.Ball
	for i := range s.Players {
		p := &s.Players[i]
		delta := b.Position.Sub(p.Position)
		dist := delta.Length()
		if dist == 0 {
			continue
		}
		normal := delta.Scale(1 / dist)

		if p.IsKicking && dist <= p.Radius+b.Radius+KickTolerance {
			b.Velocity = b.Velocity.Add(normal.Scale(KickImpulse))
			recordTouch(s, p)
			events = append(events, Event{Type: EventKick, PlayerID: p.ID, Team: p.Team})
		}

		if dist < p.Radius+b.Radius {
			b.Position = p.Position.Add(normal.Scale(p.Radius + b.Radius))
			vn := b.Velocity.Sub(p.Velocity).Dot(normal)
			if vn < 0 {
				b.Velocity = b.Velocity.
					Sub(normal.Scale((1 + PlayerRestitution) * vn)).
					Add(p.Velocity.Scale(DribbleGrip))
				recordTouch(s, p)
				events = append(events, Event{Type: EventPlayer, PlayerID: p.ID, Team: p.Team})
			}
		}
	}
	return events
}

// recordTouch updates touch attribution. PreviousTouch only moves when a
// different player than the current LastTouch makes contact.
func recordTouch(s *GameState, p *Player) {
	touch := BallTouch{PlayerID: p.ID, Team: p.Team, TimeRemainingAtTouch: s.TimeRemaining}
	if last := s.Ball.LastTouch; last != nil && last.PlayerID != p.ID {
		prev := *last
		s.Ball.PreviousTouch = &prev
	}
	s.Ball.LastTouch = &touch
}
