// Package enrich turns raw post text into translated, analyzed, titled
// records via an LLM, with a deterministic extractor as backstop.
package enrich

import (
	"regexp"
)

// categoryPatterns flag text that upstream content safety filters tend
// to reject. Matching any one of them triggers the full replacement pass.
var categoryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(trump|biden|politics|government|election|vote|democrat|republican)\b`),
	regexp.MustCompile(`(?i)\b(kill|death|murder|violence|attack|war|bomb|gun|weapon)\b`),
	regexp.MustCompile(`(?i)\b(sex|porn|nude|naked|sexual|adult)\b`),
	regexp.MustCompile(`(?i)\b(drug|heroin|cocaine|marijuana|weed|addiction)\b`),
	regexp.MustCompile(`(?i)\b(hate|racist|discrimination|abuse|suicide)\b`),
}

type replacement struct {
	re   *regexp.Regexp
	with string
}

func term(word, with string) replacement {
	return replacement{regexp.MustCompile(`(?i)\b` + word + `\b`), with}
}

// replacements map flagged terms to neutral phrasing. Order matters:
// e.g. "gun" becomes "weapon" before "weapon" becomes "tool", so the
// list is applied as written, one pass each.
var replacements = []replacement{
	term("trump", "former president"),
	term("biden", "current president"),
	term("politics", "public affairs"),
	term("government", "administration"),
	term("election", "voting process"),
	term("vote", "participate"),
	term("kill", "eliminate"),
	term("death", "passing"),
	term("murder", "incident"),
	term("violence", "conflict"),
	term("attack", "incident"),
	term("war", "conflict"),
	term("bomb", "device"),
	term("gun", "weapon"),
	term("weapon", "tool"),
	term("sex", "relationship"),
	term("porn", "adult content"),
	term("nude", "unclothed"),
	term("naked", "unclothed"),
	term("sexual", "intimate"),
	term("adult", "mature"),
	term("drug", "substance"),
	term("heroin", "illegal substance"),
	term("cocaine", "illegal substance"),
	term("marijuana", "cannabis"),
	term("weed", "cannabis"),
	term("addiction", "dependency"),
	term("hate", "dislike"),
	term("racist", "discriminatory"),
	term("discrimination", "bias"),
	term("abuse", "mistreatment"),
	term("suicide", "self-harm"),
}

// Sanitize rewrites text that would trip provider content filters.
// Clean text passes through byte-for-byte; flagged text gets every
// replacement applied. Sanitize never truncates.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	flagged := false
	for _, p := range categoryPatterns {
		if p.MatchString(text) {
			flagged = true
			break
		}
	}
	if !flagged {
		return text
	}
	cleaned := text
	for _, r := range replacements {
		cleaned = r.re.ReplaceAllString(cleaned, r.with)
	}
	return cleaned
}

// truncateForPrompt caps prompt input length. Long posts make some
// gateways reject the whole request.
func truncateForPrompt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}
