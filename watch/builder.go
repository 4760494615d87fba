// Package watch filters guide entries against the watchlist and enriches
// each match with racecard details.
package watch

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-race-watch/fetch"
	"github.com/aluiziolira/go-race-watch/models"
	"github.com/aluiziolira/go-race-watch/racecard"
)

// Builder runs the match → resolve → locate → extract pipeline. Records
// come out in listing order; an enrichment failure degrades a record's
// fields but never drops it.
type Builder struct {
	client    *fetch.Client
	resolver  *racecard.Resolver
	watchlist []string
	cache     *lru.Cache[string, *goquery.Document]
	metrics   *fetch.Metrics
}

// NewBuilder constructs a builder. cacheSize bounds the racecard document
// cache: several watched horses often run in the same race, and the cache
// keeps that a single fetch.
func NewBuilder(client *fetch.Client, resolver *racecard.Resolver, watchlist []string, cacheSize int, metrics *fetch.Metrics) (*Builder, error) {
	cache, err := lru.New[string, *goquery.Document](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Builder{
		client:    client,
		resolver:  resolver,
		watchlist: watchlist,
		cache:     cache,
		metrics:   metrics,
	}, nil
}

// MatchTerms returns every watchlist term that is a case-insensitive
// substring of name, in watchlist order.
func MatchTerms(name string, watchlist []string) []string {
	lower := strings.ToLower(name)
	var matched []string
	for _, term := range watchlist {
		if term == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(term)) {
			matched = append(matched, term)
		}
	}
	return matched
}

// Build returns one enriched record per entry that matches the watchlist.
func (b *Builder) Build(entries []models.Entry) []*models.MatchRecord {
	var records []*models.MatchRecord
	for _, entry := range entries {
		terms := MatchTerms(entry.Horse, b.watchlist)
		if len(terms) == 0 {
			continue
		}
		record := b.enrich(entry, terms)
		records = append(records, record)
		b.metrics.IncMatches()
		slog.Info("watchlist match",
			slog.String("horse", entry.Horse),
			slog.String("terms", strings.Join(terms, ", ")),
			slog.String("odds", record.Odds),
		)
	}
	return records
}

func (b *Builder) enrich(entry models.Entry, terms []string) (record *models.MatchRecord) {
	details := models.NewRunnerDetails()
	record = &models.MatchRecord{
		Entry:        entry,
		MatchedTerms: terms,
		Odds:         entry.Odds,
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("enrichment panicked, keeping degraded record",
				slog.String("horse", entry.Horse),
				slog.Any("panic", r),
			)
		}
		record.Draw = details.Draw
		record.Jockey = details.Jockey
		record.Trainer = details.Trainer
		record.Commentary = details.Commentary
		if details.Odds != "" {
			record.Odds = details.Odds
		}
	}()

	target := b.resolver.Resolve(entry.RaceURL)
	record.RacecardURL = target
	if target == "" {
		return record
	}

	doc, err := b.document(target)
	if err != nil {
		slog.Warn("racecard fetch failed",
			slog.String("horse", entry.Horse),
			slog.String("url", target),
			slog.Any("error", err),
		)
		return record
	}

	block, ok := racecard.Locate(doc, entry.Horse)
	if !ok {
		slog.Debug("runner block not found",
			slog.String("horse", entry.Horse),
			slog.String("url", target),
		)
		return record
	}

	details = racecard.Extract(block)
	return record
}

func (b *Builder) document(url string) (*goquery.Document, error) {
	if doc, ok := b.cache.Get(url); ok {
		return doc, nil
	}
	doc, err := b.client.Document(url)
	if err != nil {
		return nil, err
	}
	b.cache.Add(url, doc)
	return doc, nil
}
