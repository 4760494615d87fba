package racecard

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-race-watch/models"
)

// A fieldRule pairs a pattern with an optional acceptance check. Rules
// run in order; the first accepted match wins.
type fieldRule struct {
	pattern *regexp.Regexp
	accept  func(string) bool
}

var (
	// J:|Sean Levey| with a space-separated fallback bounded by the
	// trainer prefix.
	jockeyRules = []fieldRule{
		{pattern: regexp.MustCompile(`J:\|(.*?)\|`)},
		{pattern: regexp.MustCompile(`J:\s*(.*?)\s*(?:\||T:)`)},
	}
	trainerRules = []fieldRule{
		{pattern: regexp.MustCompile(`T:\|(.*?)\|`)},
		{pattern: regexp.MustCompile(`T:\s*(.*?)\s*(?:\||OR:)`)},
	}
	// Draw is a parenthesised stall number near the start of the block.
	// The loose fallback needs a plausibility cap: jockey weight
	// allowances also appear parenthesised.
	drawRules = []fieldRule{
		{pattern: regexp.MustCompile(`\|\((\d+)\)\|`)},
		{pattern: regexp.MustCompile(`\((\d+)\)`), accept: plausibleDraw},
	}

	fractionalOddsRe = regexp.MustCompile(`^\d+/\d+$`)
	decimalOddsRe    = regexp.MustCompile(`^\d+\.\d{1,2}$`)
)

const maxDraw = 40

func plausibleDraw(value string) bool {
	n, err := strconv.Atoi(value)
	return err == nil && n < maxDraw
}

// Extract recovers draw, jockey, trainer, commentary and odds from a
// located runner block. It never fails: a field whose patterns do not
// match keeps its placeholder, and one field's miss does not affect the
// others.
func Extract(block Node) models.RunnerDetails {
	details := models.NewRunnerDetails()
	if block == nil {
		return details
	}
	text := block.FlattenedText()

	if jockey, ok := applyRules(jockeyRules, text); ok {
		details.Jockey = jockey
	}
	if trainer, ok := applyRules(trainerRules, text); ok {
		details.Trainer = trainer
	}
	if draw, ok := applyRules(drawRules, text); ok {
		details.Draw = draw
	}
	if commentary, ok := extractCommentary(text); ok {
		details.Commentary = commentary
	}
	if odds, ok := extractOdds(text); ok {
		details.Odds = odds
	}

	return details
}

func applyRules(rules []fieldRule, text string) (string, bool) {
	for _, rule := range rules {
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(strings.ReplaceAll(m[1], "|", ""))
		if value == "" {
			continue
		}
		if rule.accept != nil && !rule.accept(value) {
			continue
		}
		return value, true
	}
	return "", false
}

// extractCommentary treats the longest free-text run before the "Form:"
// marker as the commentary. Without the marker, the longest segment of
// the whole block qualifies only past a stricter length floor.
func extractCommentary(text string) (string, bool) {
	if idx := strings.Index(text, "Form:"); idx >= 0 {
		if seg := longestSegment(text[:idx]); len(seg) > 20 {
			return seg, true
		}
		return "", false
	}
	if seg := longestSegment(text); len(seg) > 30 {
		return seg, true
	}
	return "", false
}

func longestSegment(text string) string {
	longest := ""
	for _, seg := range strings.Split(text, "|") {
		seg = strings.TrimSpace(seg)
		if len(seg) > len(longest) {
			longest = seg
		}
	}
	return longest
}

// extractOdds returns the first segment that is strictly fractional
// (15/8) or decimal (2.88) odds, in segment order.
func extractOdds(text string) (string, bool) {
	for _, seg := range strings.Split(text, "|") {
		s := strings.TrimSpace(seg)
		if fractionalOddsRe.MatchString(s) || decimalOddsRe.MatchString(s) {
			return s, true
		}
	}
	return "", false
}
