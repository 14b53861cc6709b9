// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank   int     `json:"rank"`
	Player string  `json:"player"`
	Rating float64 `json:"rating"`
	Peak   float64 `json:"peak"`
	Races  int     `json:"races"`
}

// TraceRow holds every roster rating right after one applied race.
type TraceRow struct {
	RaceID  string             `json:"race_id"`
	Date    string             `json:"date"`
	Time    string             `json:"time"`
	Map     string             `json:"map"`
	Ratings map[string]float64 `json:"ratings"`
}

// HistoryPoint is a player's rating at the end of a day.
type HistoryPoint struct {
	Date   string  `json:"date"`
	Rating float64 `json:"rating"`
}
