package racecard

import (
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-race-watch/config"
	"github.com/aluiziolira/go-race-watch/fetch"
)

func newTestResolver(t *testing.T, transport *httpmock.MockTransport) *Resolver {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Delay = 0
	cfg.MaxRetries = 0
	cfg.RetryBackoff = time.Millisecond
	cfg.RetryBackoffMax = time.Millisecond

	client, err := fetch.NewClient(cfg, fetch.NewMetrics())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.SetTransport(transport)
	return NewResolver(client, "https://www.sportinglife.com")
}

func TestResolvePassthrough(t *testing.T) {
	resolver := newTestResolver(t, httpmock.NewMockTransport())

	tests := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "racecard address", url: "https://www.sportinglife.com/racing/racecards/2025-06-14/lingfield/racecard/891074/bet365-handicap"},
		{name: "unrecognised address", url: "https://www.sportinglife.com/racing/fast-results"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolver.Resolve(tt.url); got != tt.url {
				t.Fatalf("Resolve(%q) = %q, want passthrough", tt.url, got)
			}
		})
	}
}

func TestResolveFollowsRacecardLink(t *testing.T) {
	resultsURL := "https://www.sportinglife.com/racing/results/2025-06-14/lingfield/891074/bet365-handicap"
	page := `<html><body>
		<a href="/racing/fast-results">Fast Results</a>
		<a href="/racing/racecards/2025-06-14/lingfield/racecard/891074/bet365-handicap">Racecard</a>
	</body></html>`

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", resultsURL, httpmock.NewStringResponder(200, page))

	resolver := newTestResolver(t, transport)

	got := resolver.Resolve(resultsURL)
	want := "https://www.sportinglife.com/racing/racecards/2025-06-14/lingfield/racecard/891074/bet365-handicap"
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveFallsBackToRewrite(t *testing.T) {
	resultsURL := "https://www.sportinglife.com/racing/results/2025-06-14/lingfield/891074/bet365-handicap"

	tests := []struct {
		name string
		page func(transport *httpmock.MockTransport)
	}{
		{
			name: "fetch fails",
			page: func(transport *httpmock.MockTransport) {},
		},
		{
			name: "page has no racecard link",
			page: func(transport *httpmock.MockTransport) {
				transport.RegisterResponder("GET", resultsURL,
					httpmock.NewStringResponder(200, `<html><body><a href="/racing">Racing Home</a></body></html>`))
			},
		},
	}

	want := "https://www.sportinglife.com/racing/racecards/2025-06-14/lingfield/racecard/891074/bet365-handicap"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			tt.page(transport)
			resolver := newTestResolver(t, transport)

			if got := resolver.Resolve(resultsURL); got != want {
				t.Fatalf("Resolve = %q, want rewrite %q", got, want)
			}
		})
	}
}

func TestRewriteResultsURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "standard results address",
			input:    "https://www.sportinglife.com/racing/results/2025-06-14/lingfield/891074/bet365-handicap",
			expected: "https://www.sportinglife.com/racing/racecards/2025-06-14/lingfield/racecard/891074/bet365-handicap",
		},
		{
			name:     "relative address",
			input:    "/racing/results/2025-06-14/ascot/900001/queen-anne-stakes",
			expected: "/racing/racecards/2025-06-14/ascot/racecard/900001/queen-anne-stakes",
		},
		{
			name:     "no numeric id segment",
			input:    "https://www.sportinglife.com/racing/results/today",
			expected: "https://www.sportinglife.com/racing/racecards/today",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RewriteResultsURL(tt.input); got != tt.expected {
				t.Fatalf("RewriteResultsURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
