package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-race-watch/config"
	"github.com/aluiziolira/go-race-watch/models"
)

func smtpConfig(username, password, recipient string) config.SMTPConfig {
	return config.SMTPConfig{
		Host:      "smtp.example.test",
		Port:      587,
		Username:  username,
		Password:  password,
		Recipient: recipient,
	}
}

func TestSubject(t *testing.T) {
	date := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	if got := Subject(3, date); got != "Watchlist Matches Found (3) - 26-08-2026" {
		t.Fatalf("subject = %q", got)
	}
}

func TestBuildReport(t *testing.T) {
	matches := []*models.MatchRecord{
		{
			Entry: models.Entry{
				Horse:    "Ten Carat Harry",
				HorseURL: "https://www.sportinglife.com/racing/profiles/horse/123/ten-carat-harry",
				Race:     "14:30 Lingfield",
				Day:      "Saturday",
			},
			MatchedTerms: []string{"Harry"},
			RacecardURL:  "https://www.sportinglife.com/racing/racecards/2025-06-14/lingfield/racecard/891074/bet365-handicap",
			Draw:         "5",
			Jockey:       "Sean Levey",
			Trainer:      "Richard Hannon",
			Commentary:   "Useful sort who stays on strongly",
			Odds:         "15/8",
		},
		{
			Entry:        models.Entry{Horse: "Masons Pride", HorseURL: "https://example.test/horse/2"},
			MatchedTerms: []string{"Mason"},
			Draw:         models.DrawUnknown,
			Jockey:       models.JockeyUnknown,
			Trainer:      models.TrainerUnknown,
			Commentary:   models.NoCommentary,
			Odds:         "SP",
		},
	}

	body, err := BuildReport(matches, time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("build report: %v", err)
	}

	for _, want := range []string{
		"Ten Carat Harry",
		"Matched: Harry",
		"15/8",
		"Sean Levey",
		"Richard Hannon",
		"Useful sort who stays on strongly",
		"View Racecard",
		"26-08-2026",
		"Masons Pride",
		models.NoCommentary,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("report missing %q", want)
		}
	}

	if !strings.Contains(body, "<strong>2</strong>") {
		t.Fatalf("report should state the match count")
	}
}

func TestBuildReportEscapesMarkup(t *testing.T) {
	matches := []*models.MatchRecord{
		{
			Entry:        models.Entry{Horse: "<script>alert(1)</script>", HorseURL: "https://example.test/horse/1"},
			MatchedTerms: []string{"Harry"},
			Commentary:   "ok",
		},
	}

	body, err := BuildReport(matches, time.Now())
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatalf("horse name should be HTML-escaped")
	}
}

func TestSMTPServiceConfigured(t *testing.T) {
	service := NewSMTPService(smtpConfig("", "", ""))
	if service.Configured() {
		t.Fatalf("empty credentials should not be configured")
	}

	service = NewSMTPService(smtpConfig("user@example.test", "secret", "punter@example.test"))
	if !service.Configured() {
		t.Fatalf("full credentials should be configured")
	}

	if err := NewSMTPService(smtpConfig("", "", "")).Send("subject", "<p>body</p>"); err == nil {
		t.Fatalf("send without credentials should fail")
	}
}
