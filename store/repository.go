// Package store defines the persistence interface for match records.
package store

import (
	"context"
	"time"
)

// StoredMatch is one persisted match row, as returned by Search.
type StoredMatch struct {
	Horse        string
	Race         string
	Day          string
	Odds         string
	Draw         string
	Jockey       string
	Trainer      string
	Commentary   string
	MatchedTerms string
	ScrapedAt    time.Time

	// MatchCount is the number of search keywords the row matched.
	MatchCount int
}

// Repository persists match records and serves keyword search over them.
type Repository interface {
	// EnsureSchema creates the backing table if it does not exist.
	EnsureSchema(ctx context.Context) error

	// UpsertMatch saves or refreshes a match row keyed by horse and race
	// address, returning whether a new row was inserted.
	UpsertMatch(ctx context.Context, row *StoredMatch, horseURL, raceURL string) (bool, error)

	// Search returns rows whose commentary or race text contains the
	// query keywords, ranked by how many keywords matched.
	Search(ctx context.Context, query string, limit int) ([]StoredMatch, error)

	Close() error
}
