// Package models defines data structures for the watchlist scraper.
package models

import "time"

// Placeholder values used when a field cannot be recovered from the page.
// A record with one of these is degraded, not missing.
const (
	OddsSP        = "SP"
	DayUnknown    = "Unknown"
	RaceUnknown   = "Unknown"
	DrawUnknown   = "N/A"
	JockeyUnknown = "Unknown"
	TrainerUnknown = "Unknown"
	NoCommentary  = "No commentary available."
)

// Entry is one horse/race pairing parsed from the daily guide listing.
// Horse and HorseURL are always set; rows lacking either are dropped
// during parsing. Everything else degrades to a placeholder.
type Entry struct {
	Horse     string    `csv:"horse" json:"horse"`
	HorseURL  string    `csv:"horse_url" json:"horse_url"`
	Race      string    `csv:"race" json:"race"`
	RaceURL   string    `csv:"race_url" json:"race_url"`
	Day       string    `csv:"day" json:"day"`
	Odds      string    `csv:"odds" json:"odds"`
	ScrapedAt time.Time `csv:"scraped_at" json:"scraped_at"`
}

// RunnerDetails holds the fields recovered from a runner's racecard block.
// Odds is empty when no odds segment was found; the other fields always
// carry either a real value or their placeholder.
type RunnerDetails struct {
	Draw       string
	Jockey     string
	Trainer    string
	Commentary string
	Odds       string
}

// NewRunnerDetails returns details with every field at its placeholder.
func NewRunnerDetails() RunnerDetails {
	return RunnerDetails{
		Draw:       DrawUnknown,
		Jockey:     JockeyUnknown,
		Trainer:    TrainerUnknown,
		Commentary: NoCommentary,
	}
}

// MatchRecord is an Entry that matched the watchlist, enriched with
// racecard details. MatchedTerms is never empty. Odds holds the racecard
// odds when extraction succeeded and the listing odds otherwise.
type MatchRecord struct {
	Entry        Entry    `json:"entry"`
	MatchedTerms []string `json:"matched_terms"`
	RacecardURL  string   `json:"racecard_url"`
	Draw         string   `json:"draw"`
	Jockey       string   `json:"jockey"`
	Trainer      string   `json:"trainer"`
	Commentary   string   `json:"commentary"`
	Odds         string   `json:"odds"`
}

// Degraded reports whether any detail field is still at its placeholder.
func (m *MatchRecord) Degraded() bool {
	return m.Draw == DrawUnknown ||
		m.Jockey == JockeyUnknown ||
		m.Trainer == TrainerUnknown ||
		m.Commentary == NoCommentary
}

// RunReport summarises a full scrape run.
type RunReport struct {
	StartTime     time.Time
	EndTime       time.Time
	EntryCount    int
	MatchCount    int
	DegradedCount int
	RequestCount  int
	ErrorCount    int
	RetryCount    int
	FailedURLs    []string
	ErrorsByType  map[string]int
}
