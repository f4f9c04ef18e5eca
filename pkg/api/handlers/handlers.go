package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cbodonnell/arena/pkg/log"
	"github.com/cbodonnell/arena/pkg/maps"
	"github.com/cbodonnell/arena/pkg/network"
	"github.com/cbodonnell/arena/pkg/repositories"
	"github.com/gorilla/mux"
)

// Session is the running session server as seen by the API.
type Session interface {
	State() network.State
	Map() *maps.Map
	Registry() *network.ConnectionRegistry
}

type Health struct {
	State   string `json:"state"`
	MapName string `json:"map_name,omitempty"`
	Players int    `json:"players"`
}

type RosterEntry struct {
	Username string  `json:"username"`
	Endpoint string  `json:"endpoint,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Weapon   string  `json:"weapon"`
	Kills    int     `json:"kills"`
	Deaths   int     `json:"deaths"`
}

type Roster struct {
	MaxKills int           `json:"max_kills"`
	Players  []RosterEntry `json:"players"`
}

func HandleHealth(session Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := session.State()
		health := Health{State: state.String()}
		if state == network.StateRunning {
			health.MapName = session.Map().Name
			health.Players = session.Registry().Size()
		}

		status := http.StatusOK
		if state != network.StateRunning {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, health)
	}
}

func HandleRoster(session Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registry := session.Registry()
		roster := Roster{
			MaxKills: registry.MaxKills(),
			Players:  []RosterEntry{},
		}
		for _, c := range registry.Roster() {
			entry := RosterEntry{
				Username: c.Username,
				X:        c.X,
				Y:        c.Y,
				Weapon:   c.Weapon.String(),
				Kills:    c.Kills,
				Deaths:   c.Deaths,
			}
			if c.Endpoint.Valid() {
				entry.Endpoint = c.Endpoint.String()
			}
			roster.Players = append(roster.Players, entry)
		}
		writeJSON(w, http.StatusOK, roster)
	}
}

func HandleListMatches(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		results, err := repository.ListMatchResults(r.Context(), limit)
		if err != nil {
			log.Error("failed to list match results: %v", err)
			http.Error(w, "Failed to list match results", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func HandleGetMatch(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := mux.Vars(r)["matchID"]
		result, err := repository.GetMatchResult(r.Context(), matchID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Match not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get match result %s: %v", matchID, err)
			http.Error(w, "Failed to get match result", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}
