// Package roster selects the most significant eligible players and turns
// their aggregates into the emitted roster records.
package roster

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pable/cricroster/internal/config"
	"github.com/pable/cricroster/internal/model"
)

// Eligibility thresholds.
const (
	MinIntlMatches = 5
	MinIPLMatches  = 10
)

const (
	unknownCountry = "Unknown"
	unknownCode    = "UNK"
	unknownFlag    = "\U0001F3F3\uFE0F"
)

// Eligible reports whether p may appear in the roster.
func Eligible(p *model.PlayerAggregate) bool {
	if p.TotalMatches() < MinIntlMatches && p.Stats(model.FormatIPL).MatchCount() < MinIPLMatches {
		return false
	}
	if p.Country == "" || p.Country == unknownCountry {
		return false
	}
	return p.Role.Valid()
}

// Rank returns the eligible players ordered by significance, descending.
// Ties keep the order of players.
func Rank(players []*model.PlayerAggregate) []*model.PlayerAggregate {
	var eligible []*model.PlayerAggregate
	for _, p := range players {
		if Eligible(p) {
			eligible = append(eligible, p)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Significance() > eligible[j].Significance()
	})
	return eligible
}

// Select ranks players and keeps the top max(minPlayers, eligible), which
// never exceeds the eligible count.
func Select(players []*model.PlayerAggregate, minPlayers int) []*model.PlayerAggregate {
	ranked := Rank(players)
	n := min(max(minPlayers, len(ranked)), len(ranked))
	return ranked[:n]
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases name and collapses every run of other characters to "_".
func Slug(name string) string {
	lower := cases.Lower(language.Und).String(name)
	return strings.Trim(nonSlug.ReplaceAllString(lower, "_"), "_")
}

// Builder turns selected aggregates into roster records using the curated
// display tables.
type Builder struct {
	codes     map[string]string
	flags     map[string]string
	overrides map[string]string
}

// NewBuilder returns a Builder over the curated country and name tables.
func NewBuilder(c *config.Curated) *Builder {
	return &Builder{codes: c.CountryCodes, flags: c.CountryFlags, overrides: c.NameOverrides}
}

// DisplayName applies the name override table.
func (b *Builder) DisplayName(name string) string {
	if full, ok := b.overrides[name]; ok && full != "" {
		return full
	}
	return name
}

// CountryCode returns the three-letter code for country, or "UNK".
func (b *Builder) CountryCode(country string) string {
	if code, ok := b.codes[country]; ok {
		return code
	}
	return unknownCode
}

// CountryFlag returns the emoji flag for country, or a white flag.
func (b *Builder) CountryFlag(country string) string {
	if flag, ok := b.flags[country]; ok {
		return flag
	}
	return unknownFlag
}

// AssignIDs builds the full stable id → roster id map for selected, in rank
// order. Colliding ids get "_2", "_3", ... suffixes.
func (b *Builder) AssignIDs(selected []*model.PlayerAggregate) map[string]string {
	ids := make(map[string]string, len(selected))
	used := make(map[string]bool, len(selected))
	for _, p := range selected {
		code := strings.ToLower(b.CountryCode(p.Country))
		base := code + "_" + Slug(b.DisplayName(p.Name))
		id := base
		for n := 2; used[id]; n++ {
			id = base + "_" + strconv.Itoa(n)
		}
		used[id] = true
		ids[p.ID] = id
	}
	return ids
}

// Build emits one record per selected player in rank order. Teammates are
// restricted to the selection and reported by roster id.
func (b *Builder) Build(selected []*model.PlayerAggregate) []model.RosterPlayer {
	ids := b.AssignIDs(selected)
	out := make([]model.RosterPlayer, 0, len(selected))
	for _, p := range selected {
		mates := make([]string, 0, len(p.Teammates))
		for tid := range p.Teammates {
			if rid, ok := ids[tid]; ok {
				mates = append(mates, rid)
			}
		}
		sort.Strings(mates)
		out = append(out, model.RosterPlayer{
			ID:          ids[p.ID],
			CricsheetID: p.ID,
			Name:        b.DisplayName(p.Name),
			Country:     p.Country,
			CountryCode: b.CountryCode(p.Country),
			CountryFlag: b.CountryFlag(p.Country),
			IPLTeams:    model.SortedKeys(p.IPLTeams),
			PrimaryRole: p.Role,
			Stats:       model.StatsOf(p),
			Trophies:    model.SortedKeys(p.Trophies),
			Teammates:   mates,
		})
	}
	return out
}

// Encode writes players as an indented JSON array. Non-ASCII text is kept
// verbatim.
func Encode(w io.Writer, players []model.RosterPlayer) error {
	if players == nil {
		players = []model.RosterPlayer{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(players); err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	return nil
}

// WriteFile encodes players to path, creating parent directories.
func WriteFile(path string, players []model.RosterPlayer) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create roster file: %w", err)
	}
	if err := Encode(f, players); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a roster file written by WriteFile.
func Read(r io.Reader) ([]model.RosterPlayer, error) {
	var players []model.RosterPlayer
	if err := json.NewDecoder(r).Decode(&players); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return players, nil
}
