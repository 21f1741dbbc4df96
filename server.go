package main

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupRoutes configures HTTP routes
func SetupRoutes(hub *Hub) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"ok":      true,
			"matches": hub.MatchCount(),
		})
	})

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)

		go client.WritePump()
		go client.ReadPump()
	})

	// Rating surface: read-or-create profile
	mux.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		userID := r.URL.Query().Get("id")
		if userID == "" {
			writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: "missing id"})
			return
		}
		profile, err := hub.ratings.GetOrCreateProfile(userID, r.URL.Query().Get("name"))
		if err != nil {
			log.Printf("profile %s: %v", userID, err)
			writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "storage error"})
			return
		}
		writeJSON(w, http.StatusOK, profile)
	})

	// Rating surface: process an externally adjudicated match result
	mux.HandleFunc("/api/match", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var result MatchResult
		if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: "malformed body"})
			return
		}
		if result.UserID == "" {
			writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: "missing userId"})
			return
		}
		resp, err := hub.ratings.ProcessMatch(result.UserID, result.Username, result.OpponentRating, result.Result)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorMsg{Msg: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	mux.HandleFunc("/api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err := hub.db.GetLeaderboard(limit)
		if err != nil {
			log.Printf("leaderboard: %v", err)
			writeJSON(w, http.StatusInternalServerError, ErrorMsg{Msg: "storage error"})
			return
		}
		if entries == nil {
			entries = []LeaderboardEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	})

	return mux
}
