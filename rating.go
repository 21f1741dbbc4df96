package main

import (
	"fmt"
	"math"
)

// Match results accepted by the rating surface
const (
	ResultWin  = "win"
	ResultLoss = "loss"
	ResultDraw = "draw"
)

const (
	DefaultRating     = 1200.0
	DefaultDeviation  = 350.0
	DefaultVolatility = 0.06

	deviationFloor = 50.0
	deviationDecay = 0.95 // per match, toward the floor
	ratingScale    = 400.0
	kMin           = 10.0
	kMax           = 50.0
)

// Tier names, lowest first. Every tier spans 200 rating points and splits
// into divisions III/II/I except Champion, which is open-ended.
var tierNames = []string{"Bronze", "Silver", "Gold", "Platinum", "Diamond", "Champion"}

const (
	tierFloor = 1100.0 // top of Bronze
	tierBand  = 200.0
)

// UserRatingProfile is the durable per-user rating record
type UserRatingProfile struct {
	Rating          float64 `json:"rating" msgpack:"rating"`
	RatingDeviation float64 `json:"ratingDeviation" msgpack:"rd"`
	Volatility      float64 `json:"volatility" msgpack:"vol"`
	Wins            int     `json:"wins" msgpack:"wins"`
	Losses          int     `json:"losses" msgpack:"losses"`
	Tier            string  `json:"tier" msgpack:"tier"`
	Division        int     `json:"division" msgpack:"division"`
}

// NewProfile returns the profile a user starts with before their first match
func NewProfile() UserRatingProfile {
	p := UserRatingProfile{
		Rating:          DefaultRating,
		RatingDeviation: DefaultDeviation,
		Volatility:      DefaultVolatility,
	}
	p.Tier, p.Division = TierForRating(p.Rating)
	return p
}

// ProfileStore is the durable keyed storage the rating engine runs against
type ProfileStore interface {
	GetProfile(userID string) (*UserRatingProfile, error)
	PutProfile(userID, username string, profile UserRatingProfile) error
}

// RatingEngine converts match outcomes into profile updates
type RatingEngine struct {
	store ProfileStore
}

// NewRatingEngine creates a rating engine over the given store
func NewRatingEngine(store ProfileStore) *RatingEngine {
	return &RatingEngine{store: store}
}

// actualScore maps a result to its score value
func actualScore(result string) (float64, error) {
	switch result {
	case ResultWin:
		return 1, nil
	case ResultLoss:
		return 0, nil
	case ResultDraw:
		return 0.5, nil
	}
	return 0, fmt.Errorf("unknown result %q", result)
}

// ExpectedScore is the logistic win expectancy of a player at rating r
// against an opponent, attenuated by the opponent's deviation
func ExpectedScore(r, opponentRating, opponentDeviation float64) float64 {
	g := ratingScale / (ratingScale + opponentDeviation)
	return 1 / (1 + math.Pow(10, -g*(r-opponentRating)/ratingScale))
}

// kFactor scales the update by the player's own uncertainty
func kFactor(deviation float64) float64 {
	return Clamp(deviation/7, kMin, kMax)
}

// TierForRating maps a rating to its tier and division. Divisions count
// down III→I within each 200-point band; Champion has no divisions.
func TierForRating(rating float64) (string, int) {
	if rating >= tierFloor+tierBand*float64(len(tierNames)-2) {
		return tierNames[len(tierNames)-1], 0
	}
	idx := 0
	for rating >= tierFloor+tierBand*float64(idx) {
		idx++
	}
	lower := tierFloor + tierBand*float64(idx-1)
	within := Clamp(rating-lower, 0, tierBand-1)
	division := 3 - int(within/(tierBand/3))
	return tierNames[idx], division
}

// ProcessMatch loads (or lazily creates) the user's profile, applies the
// single-step expected-score update, decays the deviation toward its
// floor, and persists the result. A missing profile is a first match,
// not a fault.
func (e *RatingEngine) ProcessMatch(userID, username string, opponentRating float64, result string) (MatchResponse, error) {
	score, err := actualScore(result)
	if err != nil {
		return MatchResponse{}, err
	}

	profile, err := e.store.GetProfile(userID)
	if err != nil {
		return MatchResponse{}, err
	}
	if profile == nil {
		p := NewProfile()
		profile = &p
	}

	expected := ExpectedScore(profile.Rating, opponentRating, DefaultDeviation)
	change := kFactor(profile.RatingDeviation) * (score - expected)

	profile.Rating += change
	profile.RatingDeviation = deviationFloor + (profile.RatingDeviation-deviationFloor)*deviationDecay
	switch result {
	case ResultWin:
		profile.Wins++
	case ResultLoss:
		profile.Losses++
	}
	profile.Tier, profile.Division = TierForRating(profile.Rating)

	if err := e.store.PutProfile(userID, username, *profile); err != nil {
		return MatchResponse{}, err
	}
	return MatchResponse{
		NewRating:    profile.Rating,
		RatingChange: change,
		NewTier:      profile.Tier,
		NewDivision:  profile.Division,
	}, nil
}

// GetOrCreateProfile reads a user's profile, creating the default one on
// first sight
func (e *RatingEngine) GetOrCreateProfile(userID, username string) (UserRatingProfile, error) {
	profile, err := e.store.GetProfile(userID)
	if err != nil {
		return UserRatingProfile{}, err
	}
	if profile != nil {
		return *profile, nil
	}
	p := NewProfile()
	if err := e.store.PutProfile(userID, username, p); err != nil {
		return UserRatingProfile{}, err
	}
	return p, nil
}
