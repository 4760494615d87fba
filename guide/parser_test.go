package guide

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-race-watch/models"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestParseGuideRows(t *testing.T) {
	html := `<html><body>
		<div class="abc-guide-row">
			<a href="/racing/profiles/horse/123/ten-carat-harry">Ten Carat Harry</a>
			<a href="/racing/racecards/2025-06-14/lingfield/racecard/891074/bet365-handicap">14:30 Lingfield</a>
			<div>Saturday</div>
			<div>15/8</div>
		</div>
		<div class="abc-guide-row">
			<a href="/racing/profiles/horse/456/quiet-runner">Quiet Runner</a>
		</div>
	</body></html>`

	entries := NewParser("https://www.sportinglife.com").Parse(docFromHTML(t, html))
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}

	first := entries[0]
	if first.Horse != "Ten Carat Harry" {
		t.Fatalf("horse = %q", first.Horse)
	}
	if first.HorseURL != "https://www.sportinglife.com/racing/profiles/horse/123/ten-carat-harry" {
		t.Fatalf("horse URL = %q", first.HorseURL)
	}
	if first.Race != "14:30 Lingfield" {
		t.Fatalf("race = %q", first.Race)
	}
	if first.RaceURL != "https://www.sportinglife.com/racing/racecards/2025-06-14/lingfield/racecard/891074/bet365-handicap" {
		t.Fatalf("race URL = %q", first.RaceURL)
	}
	if first.Day != "Saturday" {
		t.Fatalf("day = %q", first.Day)
	}
	if first.Odds != "15/8" {
		t.Fatalf("odds = %q", first.Odds)
	}

	second := entries[1]
	if second.Race != models.RaceUnknown || second.RaceURL != "" {
		t.Fatalf("race defaults = %q/%q", second.Race, second.RaceURL)
	}
	if second.Day != models.DayUnknown {
		t.Fatalf("day default = %q", second.Day)
	}
	if second.Odds != models.OddsSP {
		t.Fatalf("odds default = %q", second.Odds)
	}
}

func TestParseFallsBackToTableRows(t *testing.T) {
	html := `<html><body><table>
		<tr>
			<td><a href="/racing/profiles/horse/789/mason-mount">Mason Mount</a></td>
			<td><a href="/racing/results/2025-06-14/ascot/891075/big-stakes">13:50 Ascot</a></td>
			<td>Tomorrow</td>
			<td>7/2</td>
		</tr>
		<tr><td>no horse link here</td></tr>
	</table></body></html>`

	entries := NewParser("https://www.sportinglife.com").Parse(docFromHTML(t, html))
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}

	entry := entries[0]
	if entry.Horse != "Mason Mount" {
		t.Fatalf("horse = %q", entry.Horse)
	}
	if !strings.Contains(entry.RaceURL, "/racing/results/") {
		t.Fatalf("race URL = %q, want results link preserved", entry.RaceURL)
	}
	if entry.Day != "Tomorrow" {
		t.Fatalf("day = %q", entry.Day)
	}
	if entry.Odds != "7/2" {
		t.Fatalf("odds = %q", entry.Odds)
	}
}

func TestParseSkipsRowsWithoutUsableHorseAnchor(t *testing.T) {
	html := `<html><body>
		<div class="abc-guide-row">
			<a href="/racing/profiles/horse/1/blank"></a>
		</div>
		<div class="abc-guide-row">
			<a href="/racing/results/2025-06-14/ascot/1/x">13:50 Ascot</a>
		</div>
		<div class="abc-guide-row">
			<a href="/racing/profiles/horse/2/kept">Kept Horse</a>
		</div>
	</body></html>`

	entries := NewParser("https://www.sportinglife.com").Parse(docFromHTML(t, html))
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Horse != "Kept Horse" {
		t.Fatalf("horse = %q", entries[0].Horse)
	}
}

func TestParseEmptyOrUnrecognisedPage(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{name: "empty body", html: `<html><body></body></html>`},
		{name: "no listing markup", html: `<html><body><p>Racing returns tomorrow.</p></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := NewParser("https://www.sportinglife.com").Parse(docFromHTML(t, tt.html))
			if len(entries) != 0 {
				t.Fatalf("entries = %d, want 0", len(entries))
			}
		})
	}
}

func TestAbsoluteLinks(t *testing.T) {
	p := NewParser("https://www.sportinglife.com/")

	tests := []struct {
		href     string
		expected string
	}{
		{href: "/racing/profiles/horse/1/a", expected: "https://www.sportinglife.com/racing/profiles/horse/1/a"},
		{href: "racing/profiles/horse/1/a", expected: "https://www.sportinglife.com/racing/profiles/horse/1/a"},
		{href: "https://other.example/horse", expected: "https://other.example/horse"},
	}

	for _, tt := range tests {
		if got := p.absolute(tt.href); got != tt.expected {
			t.Fatalf("absolute(%q) = %q, want %q", tt.href, got, tt.expected)
		}
	}
}

func TestFindOddsIgnoresLongAndNonNumericCells(t *testing.T) {
	html := `<html><body><div class="abc-guide-row">
		<a href="/racing/profiles/horse/1/a">Horse A</a>
		<div>a much longer cell with a / inside it</div>
		<div>n/a</div>
		<div>11/4</div>
	</div></body></html>`

	entries := NewParser("https://www.sportinglife.com").Parse(docFromHTML(t, html))
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if entries[0].Odds != "11/4" {
		t.Fatalf("odds = %q, want 11/4", entries[0].Odds)
	}
}
