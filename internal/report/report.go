// Package report renders runs, rosters and enrichment results as console tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/cricroster/internal/enrich"
	"github.com/pable/cricroster/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// dash renders zero as a placeholder.
func dash(n int) string {
	if n == 0 {
		return "—"
	}
	return strconv.Itoa(n)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintRunHeader prints a one-line summary header for a run.
func PrintRunHeader(w io.Writer, r model.RunSummary) {
	fmt.Fprintf(w, "\nRun: %s  |  Created: %s  |  Matches: %d (%d errors)  |  Players: %d seen, %d eligible, %d in roster\n\n",
		shortID(r.ID), r.CreatedAt, r.MatchesProcessed, r.MatchErrors, r.PlayersSeen, r.Eligible, r.RosterSize)
}

// PrintRunList prints stored runs, newest first.
func PrintRunList(w io.Writer, runs []model.RunSummary) {
	table := newTable(w)
	table.Header("ID", "CREATED", "MATCHES", "ERRORS", "SEEN", "ELIGIBLE", "ROSTER", "FINALS")
	for _, r := range runs {
		table.Append(
			shortID(r.ID),
			r.CreatedAt,
			strconv.Itoa(r.MatchesProcessed),
			strconv.Itoa(r.MatchErrors),
			strconv.Itoa(r.PlayersSeen),
			strconv.Itoa(r.Eligible),
			strconv.Itoa(r.RosterSize),
			strconv.Itoa(r.Finals),
		)
	}
	table.Render()
}

// FilterRoster keeps players whose role matches role (case-insensitive, empty
// keeps all) and truncates to the first top records when top > 0.
func FilterRoster(players []model.RosterPlayer, role string, top int) []model.RosterPlayer {
	var out []model.RosterPlayer
	for _, p := range players {
		if role != "" && !strings.EqualFold(string(p.PrimaryRole), role) {
			continue
		}
		out = append(out, p)
	}
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// PrintRosterTable prints one row per roster record in rank order.
// If focusID is non-empty, that player's row is marked with ">".
func PrintRosterTable(w io.Writer, players []model.RosterPlayer, focusID string) {
	table := newTable(w)
	table.Header(
		" ", "#", "ID", "NAME", "CTRY", "ROLE", "TEST_M", "ODI_M", "T20I_M", "IPL_M",
		"RUNS", "WKTS", "100s", "TROPHIES",
	)
	for i, p := range players {
		marker := " "
		if focusID != "" && p.ID == focusID {
			marker = ">"
		}
		s := p.Stats
		table.Append(
			marker,
			strconv.Itoa(i+1),
			p.ID,
			p.Name,
			p.CountryCode,
			string(p.PrimaryRole),
			dash(s.TestMatches),
			dash(s.ODIMatches),
			dash(s.T20IMatches),
			dash(s.IPLMatches),
			strconv.Itoa(s.TotalRuns),
			strconv.Itoa(s.TotalWickets),
			dash(s.Centuries),
			strconv.Itoa(len(p.Trophies)),
		)
	}
	table.Render()
}

// PrintPlayerDetail prints one record with a per-format breakdown.
func PrintPlayerDetail(w io.Writer, p model.RosterPlayer) {
	fmt.Fprintf(w, "\n%s %s  (%s)\n", p.CountryFlag, p.Name, p.ID)
	fmt.Fprintf(w, "Country: %s [%s]  |  Role: %s  |  Register id: %s\n\n", p.Country, p.CountryCode, p.PrimaryRole, p.CricsheetID)

	s := p.Stats
	table := newTable(w)
	table.Header("FORMAT", "MATCHES", "RUNS", "WICKETS", "100s")
	table.Append("Test", strconv.Itoa(s.TestMatches), strconv.Itoa(s.TestRuns), strconv.Itoa(s.TestWickets), "")
	table.Append("ODI", strconv.Itoa(s.ODIMatches), strconv.Itoa(s.ODIRuns), strconv.Itoa(s.ODIWickets), "")
	table.Append("T20I", strconv.Itoa(s.T20IMatches), strconv.Itoa(s.T20IRuns), strconv.Itoa(s.T20IWickets), "")
	table.Append("Intl", strconv.Itoa(s.IntlMatches()), strconv.Itoa(s.TotalRuns), strconv.Itoa(s.TotalWickets), strconv.Itoa(s.Centuries))
	table.Append("IPL", strconv.Itoa(s.IPLMatches), strconv.Itoa(s.IPLRuns), strconv.Itoa(s.IPLWickets), strconv.Itoa(s.IPLCenturies))
	table.Render()

	fmt.Fprintf(w, "\nIPL teams : %s\n", listOrDash(p.IPLTeams))
	fmt.Fprintf(w, "Trophies  : %s\n", listOrDash(p.Trophies))
	fmt.Fprintf(w, "Teammates : %d\n", len(p.Teammates))
	for _, line := range wrap(p.Teammates, 6) {
		fmt.Fprintf(w, "  %s\n", line)
	}
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "—"
	}
	return strings.Join(items, ", ")
}

// wrap joins items into lines of at most n entries.
func wrap(items []string, n int) []string {
	var lines []string
	for i := 0; i < len(items); i += n {
		end := min(i+n, len(items))
		lines = append(lines, strings.Join(items[i:end], ", "))
	}
	return lines
}

// PrintSourceTable prints what each match source contributed to a run.
func PrintSourceTable(w io.Writer, sources []model.SourceSummary) {
	table := newTable(w)
	table.Header("FORMAT", "SOURCE", "MATCHES", "SKIPPED", "ERRORS", "SHA256")
	for _, s := range sources {
		hash := "—"
		if len(s.Hash) >= 12 {
			hash = s.Hash[:12]
		}
		table.Append(s.Format, s.Name, strconv.Itoa(s.Matches), strconv.Itoa(s.Skipped), strconv.Itoa(s.Errors), hash)
	}
	table.Render()
}

// PrintFinalsTable prints detected finals in detection order.
func PrintFinalsTable(w io.Writer, finals []model.FinalCandidate) {
	table := newTable(w)
	table.Header("YEAR", "TROPHY", "EVENT", "WINNER", "PLAYERS")
	for _, f := range finals {
		table.Append(f.Year, f.Trophy, f.Event, f.Winner, strconv.Itoa(len(f.PlayerIDs)))
	}
	table.Render()
}

// Distribution is the run overview printed by the summary command.
type Distribution struct {
	Roles        map[model.Role]int
	Countries    map[string]int
	Trophies     map[string]int
	WithIPL      int
	WithTrophies int
	AvgTeammates float64
	TotalPlayers int
	Suspicious   int
}

// Summarize computes the overview of a roster.
func Summarize(players []model.RosterPlayer) Distribution {
	d := Distribution{
		Roles:        make(map[model.Role]int),
		Countries:    make(map[string]int),
		Trophies:     make(map[string]int),
		TotalPlayers: len(players),
	}
	teammates := 0
	for _, p := range players {
		d.Roles[p.PrimaryRole]++
		d.Countries[p.Country]++
		for _, t := range p.Trophies {
			d.Trophies[t]++
		}
		if p.Stats.IPLMatches > 0 {
			d.WithIPL++
		}
		if len(p.Trophies) > 0 {
			d.WithTrophies++
		}
		if enrich.Suspicious(p) {
			d.Suspicious++
		}
		teammates += len(p.Teammates)
	}
	if len(players) > 0 {
		d.AvgTeammates = float64(teammates) / float64(len(players))
	}
	return d
}

type count struct {
	key string
	n   int
}

// byCount orders counts descending, ties by key.
func byCount[K ~string](m map[K]int) []count {
	out := make([]count, 0, len(m))
	for k, n := range m {
		out = append(out, count{string(k), n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].key < out[j].key
	})
	return out
}

func pct(n, total int) string {
	if total == 0 {
		return "—"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(total))
}

// PrintDistribution prints role, country and trophy breakdowns. topCountries
// limits the country table when > 0.
func PrintDistribution(w io.Writer, d Distribution, topCountries int) {
	fmt.Fprintf(w, "Players: %d  |  With IPL history: %d  |  With trophies: %d  |  Avg teammates: %.1f  |  Suspicious: %d\n\n",
		d.TotalPlayers, d.WithIPL, d.WithTrophies, d.AvgTeammates, d.Suspicious)

	roles := newTable(w)
	roles.Header("ROLE", "PLAYERS", "SHARE")
	for _, c := range byCount(d.Roles) {
		roles.Append(c.key, strconv.Itoa(c.n), pct(c.n, d.TotalPlayers))
	}
	roles.Render()
	fmt.Fprintln(w)

	countries := newTable(w)
	countries.Header("COUNTRY", "PLAYERS")
	for i, c := range byCount(d.Countries) {
		if topCountries > 0 && i >= topCountries {
			break
		}
		countries.Append(c.key, strconv.Itoa(c.n))
	}
	countries.Render()

	if len(d.Trophies) == 0 {
		return
	}
	fmt.Fprintln(w)
	trophies := newTable(w)
	trophies.Header("TROPHY", "HOLDERS")
	for _, c := range byCount(d.Trophies) {
		trophies.Append(c.key, strconv.Itoa(c.n))
	}
	trophies.Render()
}

// PrintEnrichReport prints the tallies and applied changes of an enrichment pass.
func PrintEnrichReport(w io.Writer, rep *enrich.Report, dryRun bool) {
	verb := "Updated"
	if dryRun {
		verb = "Would update"
	}
	fmt.Fprintf(w, "\nCandidates: %d  |  %s: %d  |  Not confident: %d  |  Invalid: %d  |  Errors: %d\n\n",
		rep.Candidates, verb, rep.Updated, rep.NotConfident, rep.Invalid, rep.Errors)

	if len(rep.Changes) > 0 {
		table := newTable(w)
		table.Header("ID", "NAME", "OLD_RUNS", "NEW_RUNS", "DELTA", "OLD_ROLE", "NEW_ROLE")
		for _, c := range rep.Changes {
			table.Append(
				c.PlayerID,
				c.Name,
				strconv.Itoa(c.OldRuns),
				strconv.Itoa(c.NewRuns),
				fmt.Sprintf("%+d", c.NewRuns-c.OldRuns),
				string(c.OldRole),
				string(c.NewRole),
			)
		}
		table.Render()
	}

	if len(rep.Rejections) > 0 {
		fmt.Fprintln(w)
		table := newTable(w)
		table.Header("REJECTION", "COUNT")
		for _, c := range byCount(rep.Rejections) {
			table.Append(c.key, strconv.Itoa(c.n))
		}
		table.Render()
	}
}

// PrintEnrichmentLog prints persisted enrichment outcomes.
func PrintEnrichmentLog(w io.Writer, entries []model.EnrichmentEntry) {
	table := newTable(w)
	table.Header("PLAYER", "OUTCOME", "REASON", "AT")
	for _, e := range entries {
		table.Append(e.PlayerID, e.Outcome, e.Reason, e.AttemptedAt)
	}
	table.Render()
}
