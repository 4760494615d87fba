// Package guide parses the daily ABC guide listing into entries.
package guide

import (
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-race-watch/models"
)

var dayLabels = map[string]struct{}{
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {},
	"Friday": {}, "Saturday": {}, "Sunday": {},
	"Today": {}, "Tomorrow": {},
}

// Parser turns a guide listing document into entries.
type Parser struct {
	siteRoot string
}

// NewParser builds a parser that resolves relative links against siteRoot.
func NewParser(siteRoot string) *Parser {
	return &Parser{siteRoot: strings.TrimSuffix(siteRoot, "/")}
}

// Parse scans the listing for row containers and returns one entry per
// row that carries a horse-profile link. A malformed row is skipped, never
// fatal. An empty or unrecognised page yields an empty slice.
func (p *Parser) Parse(doc *goquery.Document) []models.Entry {
	rows := doc.Find("div.abc-guide-row")
	if rows.Length() == 0 {
		rows = doc.Find("tr")
	}

	entries := make([]models.Entry, 0, rows.Length())
	scrapedAt := time.Now()

	rows.Each(func(i int, row *goquery.Selection) {
		entry, ok := p.parseRow(row, scrapedAt)
		if !ok {
			return
		}
		entries = append(entries, entry)
	})

	return entries
}

func (p *Parser) parseRow(row *goquery.Selection, scrapedAt time.Time) (entry models.Entry, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("skipping malformed listing row", slog.Any("panic", r))
			ok = false
		}
	}()

	horse := row.Find(`a[href*="/racing/profiles/horse/"]`).First()
	if horse.Length() == 0 {
		return models.Entry{}, false
	}
	name := strings.TrimSpace(horse.Text())
	href, _ := horse.Attr("href")
	if name == "" || href == "" {
		return models.Entry{}, false
	}

	entry = models.Entry{
		Horse:     name,
		HorseURL:  p.absolute(href),
		Race:      models.RaceUnknown,
		Day:       models.DayUnknown,
		Odds:      models.OddsSP,
		ScrapedAt: scrapedAt,
	}

	race := row.Find(`a[href*="/racing/results/"], a[href*="/racing/racecards/"]`).First()
	if race.Length() > 0 {
		if text := strings.TrimSpace(race.Text()); text != "" {
			entry.Race = text
		}
		if raceHref, exists := race.Attr("href"); exists && raceHref != "" {
			entry.RaceURL = p.absolute(raceHref)
		}
	}

	if day := findDayLabel(row); day != "" {
		entry.Day = day
	}
	if odds := findOdds(row); odds != "" {
		entry.Odds = odds
	}

	return entry, true
}

func (p *Parser) absolute(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return p.siteRoot + href
}

// findDayLabel scans the row's text nodes for a weekday or relative-day
// literal.
func findDayLabel(row *goquery.Selection) string {
	var found string
	for _, node := range row.Nodes {
		eachTextNode(node, func(text string) {
			if found != "" {
				return
			}
			if _, ok := dayLabels[text]; ok {
				found = text
			}
		})
		if found != "" {
			break
		}
	}
	return found
}

// findOdds looks for a short fractional-odds fragment in the row's cells.
func findOdds(row *goquery.Selection) string {
	var found string
	row.Find("td, div").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		text := strings.TrimSpace(cell.Text())
		if len(text) >= 10 || !strings.Contains(text, "/") {
			return true
		}
		if !strings.ContainsAny(text, "0123456789") {
			return true
		}
		found = text
		return false
	})
	return found
}

func eachTextNode(n *html.Node, fn func(string)) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			fn(text)
		}
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		eachTextNode(child, fn)
	}
}
