package racecard

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-race-watch/fetch"
)

var racecardIDRe = regexp.MustCompile(`(/racecards/[\d-]+/[^/]+)/(\d+)`)

// Resolver maps a listing race address onto the racecard address that
// carries runner details.
type Resolver struct {
	client   *fetch.Client
	siteRoot string
}

// NewResolver builds a resolver that navigates through client and
// resolves relative links against siteRoot.
func NewResolver(client *fetch.Client, siteRoot string) *Resolver {
	return &Resolver{client: client, siteRoot: strings.TrimSuffix(siteRoot, "/")}
}

// Resolve returns the detail address for a race link. Racecard addresses
// pass through. Results addresses are resolved by visiting the results
// page and following its "Racecard" link; if that fails, the address is
// rewritten by string surgery. Unrecognised addresses pass through
// unchanged, best-effort.
func (r *Resolver) Resolve(raceURL string) string {
	switch {
	case raceURL == "":
		return ""
	case strings.Contains(raceURL, "/racecards/"):
		return raceURL
	case strings.Contains(raceURL, "/results/"):
		if target, ok := r.findRacecardLink(raceURL); ok {
			return target
		}
		return RewriteResultsURL(raceURL)
	default:
		return raceURL
	}
}

func (r *Resolver) findRacecardLink(resultsURL string) (string, bool) {
	doc, err := r.client.Document(resultsURL)
	if err != nil {
		slog.Debug("results page fetch failed, falling back to rewrite",
			slog.String("url", resultsURL),
			slog.Any("error", err),
		)
		return "", false
	}

	var href string
	doc.Find("a").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), "Racecard") {
			return true
		}
		if h, exists := s.Attr("href"); exists && h != "" {
			href = h
			return false
		}
		return true
	})

	if href == "" {
		return "", false
	}
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		href = r.siteRoot + href
	}
	return href, true
}

// RewriteResultsURL maps /racing/results/<date>/<venue>/<id>/<slug> onto
// /racing/racecards/<date>/<venue>/racecard/<id>/<slug>. Navigation is
// ground truth; this rewrite is a heuristic used only when the results
// page exposes no racecard link.
func RewriteResultsURL(resultsURL string) string {
	rewritten := strings.Replace(resultsURL, "/results/", "/racecards/", 1)
	m := racecardIDRe.FindStringSubmatch(rewritten)
	if m == nil {
		return rewritten
	}
	return strings.Replace(rewritten, m[1]+"/"+m[2], m[1]+"/racecard/"+m[2], 1)
}
