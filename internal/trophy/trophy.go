// Package trophy detects tournament finals and credits their winners.
package trophy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pable/cricroster/internal/config"
	"github.com/pable/cricroster/internal/model"
)

type pattern struct {
	re     *regexp.Regexp
	trophy string
}

// Detector matches event names against an ordered list of trophy patterns.
type Detector struct {
	patterns []pattern
}

// NewDetector compiles the patterns case-insensitively, keeping their order.
func NewDetector(patterns []config.TrophyPattern) (*Detector, error) {
	d := &Detector{patterns: make([]pattern, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("trophy pattern %q: %w", p.Pattern, err)
		}
		d.patterns = append(d.patterns, pattern{re: re, trophy: p.Trophy})
	}
	return d, nil
}

// Trophy returns the key of the first pattern matching eventName.
func (d *Detector) Trophy(eventName string) (string, bool) {
	if d == nil || eventName == "" {
		return "", false
	}
	for _, p := range d.patterns {
		if p.re.MatchString(eventName) {
			return p.trophy, true
		}
	}
	return "", false
}

// IsFinal reports whether a match with this stage and winner counts as a
// decided tournament final.
func IsFinal(stage, winner string) bool {
	return winner != "" && strings.Contains(strings.ToLower(stage), "final")
}

// Detect returns a FinalCandidate for info when it is a decided final of a
// recognised tournament. teamIDs maps team name to resolved player ids.
func (d *Detector) Detect(info *model.MatchInfo, teamIDs map[string][]string) (model.FinalCandidate, bool) {
	winner := info.Outcome.Winner
	if !IsFinal(string(info.Event.Stage), winner) {
		return model.FinalCandidate{}, false
	}
	key, ok := d.Trophy(info.Event.Name)
	if !ok {
		return model.FinalCandidate{}, false
	}
	return model.FinalCandidate{
		Trophy:    key,
		Event:     info.Event.Name,
		Winner:    winner,
		PlayerIDs: append([]string(nil), teamIDs[winner]...),
		Year:      info.Year(),
	}, true
}

// Lookup resolves a player id to its aggregate.
type Lookup interface {
	Get(id string) (*model.PlayerAggregate, bool)
}

// Assign unions each final's trophy key into its winning players present in
// store and returns the number of players that hold at least one trophy.
func Assign(store Lookup, finals []model.FinalCandidate) int {
	holders := make(map[string]struct{})
	for _, f := range finals {
		for _, id := range f.PlayerIDs {
			p, ok := store.Get(id)
			if !ok {
				continue
			}
			p.Trophies[f.Trophy] = struct{}{}
			holders[id] = struct{}{}
		}
	}
	return len(holders)
}
