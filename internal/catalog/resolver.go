package catalog

import (
	"errors"
	"fmt"
	"strings"

	"bonjourarcade/pkg/logx"
)

// ErrGameNotFound reports that no match tier accepted the searched title.
var ErrGameNotFound = errors.New("game not found")

// minFuzzyLen guards single-word containment against trivial short-word
// false positives ("Go" must not match "Gorf").
const minFuzzyLen = 3

// matchStrategy is one tier of the resolution policy. Tiers run in order
// and the first candidate accepted by any tier wins; partial tiers log a
// warning so operators can audit false positives.
type matchStrategy struct {
	name    string
	partial bool
	match   func(search, candidate string) bool
}

var strategies = []matchStrategy{
	{
		name: "exact",
		match: func(search, candidate string) bool {
			return search == candidate
		},
	},
	{
		name: "case-insensitive",
		match: func(search, candidate string) bool {
			return strings.EqualFold(search, candidate)
		},
	},
	{
		name:    "fuzzy",
		partial: true,
		match:   fuzzyMatch,
	},
}

// fuzzyMatch tolerates the drift between prediction titles and metadata
// titles (parenthetical suffixes, punctuation). Multi-word titles match
// when at least two of their tokens appear in the candidate; single-word
// titles fall back to substring containment, gated on length.
func fuzzyMatch(search, candidate string) bool {
	cand := strings.ToLower(candidate)
	tokens := strings.Fields(strings.ToLower(search))

	if len(tokens) >= 2 {
		hits := 0
		for _, tok := range tokens {
			if strings.Contains(cand, tok) {
				hits++
			}
		}
		return hits >= 2
	}
	if len(tokens) == 0 {
		return false
	}
	word := tokens[0]
	return len(word) > minFuzzyLen && strings.Contains(cand, word)
}

// Resolve finds the catalog record for a scheduled title.
func (c *Catalog) Resolve(title string, log logx.Logger) (GameRecord, error) {
	for _, strat := range strategies {
		for _, g := range c.games {
			if !strat.match(title, g.Title) {
				continue
			}
			if strat.partial {
				log.Warn("partial title match",
					logx.String("search", title),
					logx.String("matched", g.Title),
					logx.String("game_id", g.ID),
					logx.String("tier", strat.name))
			}
			return g, nil
		}
	}
	return GameRecord{}, fmt.Errorf("%w: %q", ErrGameNotFound, title)
}
