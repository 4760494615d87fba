package notify

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/aluiziolira/go-race-watch/models"
)

// Subject returns the report subject line for a run.
func Subject(matchCount int, date time.Time) string {
	return fmt.Sprintf("Watchlist Matches Found (%d) - %s", matchCount, date.Format("02-01-2006"))
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px; color: #333; }
  .container { max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 12px; overflow: hidden; }
  .header { background: #1a472a; color: white; padding: 20px; text-align: center; }
  .header h1 { margin: 0; font-size: 24px; }
  .card { border: 1px solid #e0e0e0; border-radius: 8px; padding: 15px; margin: 15px; border-left: 5px solid #2ecc71; }
  .horse-name { font-size: 18px; font-weight: bold; color: #2c3e50; margin: 0 0 5px; }
  .horse-name a { text-decoration: none; color: inherit; }
  .match-tag { display: inline-block; background: #e8f5e9; color: #27ae60; padding: 2px 8px; border-radius: 12px; font-size: 12px; margin-left: 8px; }
  .odds { float: right; font-weight: bold; color: #e74c3c; background: #fdeea2; padding: 2px 8px; border-radius: 4px; }
  .details { font-size: 14px; color: #666; line-height: 1.5; }
  .meta { background: #f9f9f9; padding: 8px; border-radius: 4px; margin-bottom: 10px; }
  .commentary { margin-bottom: 10px; font-style: italic; color: #555; }
  .btn { display: inline-block; background: #1a472a; color: white; text-decoration: none; padding: 5px 10px; border-radius: 4px; font-size: 12px; }
  .footer { background: #f8f9fa; padding: 15px; text-align: center; font-size: 12px; color: #7f8c8d; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>Watchlist Match Report</h1>
    <p>{{.Date}}</p>
  </div>
  <p style="margin: 20px;">We found <strong>{{len .Matches}}</strong> horses from your watchlist in today's guide.</p>
  {{range .Matches}}
  <div class="card">
    <div class="horse-name">
      <a href="{{.Entry.HorseURL}}">{{.Entry.Horse}}</a>
      <span class="match-tag">Matched: {{join .MatchedTerms ", "}}</span>
      <span class="odds">{{.Odds}}</span>
    </div>
    <div class="details">
      <div class="meta">
        <strong>Race:</strong> {{.Entry.Race}} | <strong>Day:</strong> {{.Entry.Day}}
      </div>
      <div class="meta">
        <strong>Jockey:</strong> {{.Jockey}} | <strong>Trainer:</strong> {{.Trainer}} (Draw: {{.Draw}})
      </div>
      <div class="commentary">&quot;{{.Commentary}}&quot;</div>
      <a href="{{.RacecardURL}}" class="btn">View Racecard</a>
    </div>
  </div>
  {{end}}
  <div class="footer">
    <p>Automated watchlist report | Sporting Life ABC Guide</p>
  </div>
</div>
</body>
</html>
`))

// BuildReport renders one card per match record.
func BuildReport(matches []*models.MatchRecord, date time.Time) (string, error) {
	var body strings.Builder
	data := struct {
		Date    string
		Matches []*models.MatchRecord
	}{
		Date:    date.Format("02-01-2006"),
		Matches: matches,
	}
	if err := reportTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return body.String(), nil
}
