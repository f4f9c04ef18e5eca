package models

import "time"

// MatchResult is the outcome of a finished match.
type MatchResult struct {
	ID          string              `json:"id"`
	MapName     string              `json:"map_name"`
	Winner      string              `json:"winner"`
	WinnerKills int                 `json:"winner_kills"`
	EndedAt     time.Time           `json:"ended_at"`
	Players     []MatchPlayerResult `json:"players"`
}

// MatchPlayerResult holds the final counters of one participant.
type MatchPlayerResult struct {
	Username string `json:"username"`
	Kills    int    `json:"kills"`
	Deaths   int    `json:"deaths"`
}
