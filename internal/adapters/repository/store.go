// Package repository holds the leaderboard of current player ratings.
package repository

import "context"

// Entry represents a leaderboard row.
type Entry struct {
	Rank   int     `json:"rank"`
	Player string  `json:"player"`
	Rating float64 `json:"rating"`
	Peak   float64 `json:"peak"`
	Races  int     `json:"races"`
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Upsert replaces the player's row. Rank on the input is ignored.
	Upsert(ctx context.Context, e Entry) error

	// Rank returns the current rank and rating for a player.
	// Returns ErrNotFound if the player is unknown.
	Rank(ctx context.Context, player string) (Entry, error)

	// TopN returns the top-N entries ordered by rating desc.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of players on the leaderboard.
	Count(ctx context.Context) int
}
