package main

// Game modes
const (
	Mode1v1 = "1v1"
	Mode2v2 = "2v2"
	Mode3v3 = "3v3"
	Mode4v4 = "4v4"
)

// Field size presets
const (
	FieldSmall  = "small"
	FieldMedium = "medium"
	FieldLarge  = "large"
)

const PostRadius = 8.0

// GoalPost is one corner of a goal mouth
type GoalPost struct {
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

// Field describes the pitch: outer rectangle plus the goal-mouth span
type Field struct {
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	GoalHeight float64     `json:"goalHeight"`
	GoalPosts  [4]GoalPost `json:"goalPosts"`
}

// GoalTop returns the y coordinate of the top of the goal mouth
func (f Field) GoalTop() float64 {
	return (f.Height - f.GoalHeight) / 2
}

// GoalBottom returns the y coordinate of the bottom of the goal mouth
func (f Field) GoalBottom() float64 {
	return (f.Height + f.GoalHeight) / 2
}

// NewField builds a field of the given preset with posts at the four
// goal-mouth corners
func NewField(preset string) Field {
	var w, h, g float64
	switch preset {
	case FieldSmall:
		w, h, g = 800, 400, 140
	case FieldMedium:
		w, h, g = 1000, 500, 160
	case FieldLarge:
		w, h, g = 1200, 600, 180
	default:
		w, h, g = 1000, 500, 160
	}
	f := Field{Width: w, Height: h, GoalHeight: g}
	top := f.GoalTop()
	bottom := f.GoalBottom()
	f.GoalPosts = [4]GoalPost{
		{Position: Vec2{0, top}, Radius: PostRadius},
		{Position: Vec2{0, bottom}, Radius: PostRadius},
		{Position: Vec2{w, top}, Radius: PostRadius},
		{Position: Vec2{w, bottom}, Radius: PostRadius},
	}
	return f
}

// ModeConfig holds settings for a match mode
type ModeConfig struct {
	Mode           string
	PlayersPerTeam int
	FieldPreset    string
	TimeLimit      float64 // seconds
	ScoreLimit     int
}

// ConfigForMode returns the config for the given mode, defaulting to 2v2
func ConfigForMode(mode string) ModeConfig {
	switch mode {
	case Mode1v1:
		return ModeConfig{Mode: Mode1v1, PlayersPerTeam: 1, FieldPreset: FieldSmall, TimeLimit: 120, ScoreLimit: 3}
	case Mode3v3:
		return ModeConfig{Mode: Mode3v3, PlayersPerTeam: 3, FieldPreset: FieldLarge, TimeLimit: 240, ScoreLimit: 3}
	case Mode4v4:
		return ModeConfig{Mode: Mode4v4, PlayersPerTeam: 4, FieldPreset: FieldLarge, TimeLimit: 240, ScoreLimit: 3}
	default:
		return ModeConfig{Mode: Mode2v2, PlayersPerTeam: 2, FieldPreset: FieldMedium, TimeLimit: 180, ScoreLimit: 3}
	}
}

// ValidMode reports whether mode names a supported queue
func ValidMode(mode string) bool {
	switch mode {
	case Mode1v1, Mode2v2, Mode3v3, Mode4v4:
		return true
	}
	return false
}

// RequiredPlayers returns the head-count at which the mode's queue
// produces a match
func RequiredPlayers(mode string) int {
	return ConfigForMode(mode).PlayersPerTeam * 2
}
