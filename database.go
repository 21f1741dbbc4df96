package main

import (
	"database/sql"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection. Profiles are stored as a keyed
// record per user: the msgpack-encoded UserRatingProfile is the value, with
// the rating denormalized into a column for leaderboard queries.
type DB struct {
	conn *sql.DB
}

// MatchRow represents a completed match
type MatchRow struct {
	ID         int64
	Mode       string
	Duration   float64
	WinnerTeam string
	CreatedAt  time.Time
}

// MatchPlayerRow represents one player's line in a completed match
type MatchPlayerRow struct {
	MatchID      int64
	UserID       string
	Team         string
	Goals        int
	Assists      int
	RatingChange float64
}

// LeaderboardEntry is one row of the rating leaderboard
type LeaderboardEntry struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	Rating   float64 `json:"rating"`
	Tier     string  `json:"tier"`
	Division int     `json:"division"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		rating REAL NOT NULL DEFAULT 1200,
		profile BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mode TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		winner_team TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_players (
		match_id INTEGER NOT NULL REFERENCES matches(id),
		user_id TEXT NOT NULL,
		team TEXT NOT NULL DEFAULT '',
		goals INTEGER NOT NULL DEFAULT 0,
		assists INTEGER NOT NULL DEFAULT 0,
		rating_change REAL NOT NULL DEFAULT 0,
		PRIMARY KEY (match_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_profiles_rating ON profiles(rating DESC);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// GetProfile reads a user's rating profile, returning nil when the user
// has never played
func (db *DB) GetProfile(userID string) (*UserRatingProfile, error) {
	var blob []byte
	err := db.conn.QueryRow(`SELECT profile FROM profiles WHERE user_id = ?`, userID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p UserRatingProfile
	if err := msgpack.Unmarshal(blob, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// PutProfile upserts a user's rating profile keyed by user id
func (db *DB) PutProfile(userID, username string, profile UserRatingProfile) error {
	blob, err := msgpack.Marshal(profile)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(`
		INSERT INTO profiles (user_id, username, rating, profile, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			username = CASE WHEN excluded.username != '' THEN excluded.username ELSE profiles.username END,
			rating = excluded.rating,
			profile = excluded.profile,
			updated_at = CURRENT_TIMESTAMP`,
		userID, username, profile.Rating, blob)
	return err
}

// GetLeaderboard returns the top profiles ordered by rating
func (db *DB) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT user_id, username, profile FROM profiles
		ORDER BY rating DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaderboardEntry
	for rows.Next() {
		var entry LeaderboardEntry
		var blob []byte
		if err := rows.Scan(&entry.UserID, &entry.Username, &blob); err != nil {
			return nil, err
		}
		var p UserRatingProfile
		if err := msgpack.Unmarshal(blob, &p); err != nil {
			return nil, err
		}
		entry.Rating = p.Rating
		entry.Tier = p.Tier
		entry.Division = p.Division
		entry.Wins = p.Wins
		entry.Losses = p.Losses
		out = append(out, entry)
	}
	return out, rows.Err()
}

// RecordMatch inserts a completed match and returns its id
func (db *DB) RecordMatch(mode string, duration float64, winnerTeam string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO matches (mode, duration, winner_team) VALUES (?, ?, ?)`,
		mode, duration, winnerTeam)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordMatchPlayer inserts one player's line for a completed match
func (db *DB) RecordMatchPlayer(matchID int64, userID, team string, goals, assists int, ratingChange float64) error {
	_, err := db.conn.Exec(`
		INSERT INTO match_players (match_id, user_id, team, goals, assists, rating_change)
		VALUES (?, ?, ?, ?, ?, ?)`,
		matchID, userID, team, goals, assists, ratingChange)
	return err
}

// GetMatchHistory returns a user's most recent match lines
func (db *DB) GetMatchHistory(userID string, limit int) ([]MatchPlayerRow, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rows, err := db.conn.Query(`
		SELECT match_id, user_id, team, goals, assists, rating_change
		FROM match_players WHERE user_id = ?
		ORDER BY match_id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MatchPlayerRow
	for rows.Next() {
		var r MatchPlayerRow
		if err := rows.Scan(&r.MatchID, &r.UserID, &r.Team, &r.Goals, &r.Assists, &r.RatingChange); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
