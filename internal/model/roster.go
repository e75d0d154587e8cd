package model

import "sort"

// RosterStats is the nested stats object of an emitted roster record.
type RosterStats struct {
	TestRuns     int `json:"testRuns" db:"test_runs"`
	TestWickets  int `json:"testWickets" db:"test_wickets"`
	TestMatches  int `json:"testMatches" db:"test_matches"`
	ODIRuns      int `json:"odiRuns" db:"odi_runs"`
	ODIWickets   int `json:"odiWickets" db:"odi_wickets"`
	ODIMatches   int `json:"odiMatches" db:"odi_matches"`
	T20IRuns     int `json:"t20iRuns" db:"t20i_runs"`
	T20IWickets  int `json:"t20iWickets" db:"t20i_wickets"`
	T20IMatches  int `json:"t20iMatches" db:"t20i_matches"`
	IPLRuns      int `json:"iplRuns" db:"ipl_runs"`
	IPLWickets   int `json:"iplWickets" db:"ipl_wickets"`
	IPLMatches   int `json:"iplMatches" db:"ipl_matches"`
	TotalRuns    int `json:"totalRuns" db:"total_runs"`
	TotalWickets int `json:"totalWickets" db:"total_wickets"`
	Centuries    int `json:"centuries" db:"centuries"`
	IPLCenturies int `json:"iplCenturies" db:"ipl_centuries"`
}

// IntlMatches is the number of international matches in the record.
func (s *RosterStats) IntlMatches() int {
	return s.TestMatches + s.ODIMatches + s.T20IMatches
}

// Recompute refreshes the derived totals from the per-format fields.
func (s *RosterStats) Recompute() {
	s.TotalRuns = s.TestRuns + s.ODIRuns + s.T20IRuns
	s.TotalWickets = s.TestWickets + s.ODIWickets + s.T20IWickets
}

// StatsOf flattens an aggregate into the emitted stats object.
func StatsOf(p *PlayerAggregate) RosterStats {
	return RosterStats{
		TestRuns:     p.Formats[FormatTest].Runs,
		TestWickets:  p.Formats[FormatTest].Wickets,
		TestMatches:  p.Formats[FormatTest].MatchCount(),
		ODIRuns:      p.Formats[FormatODI].Runs,
		ODIWickets:   p.Formats[FormatODI].Wickets,
		ODIMatches:   p.Formats[FormatODI].MatchCount(),
		T20IRuns:     p.Formats[FormatT20I].Runs,
		T20IWickets:  p.Formats[FormatT20I].Wickets,
		T20IMatches:  p.Formats[FormatT20I].MatchCount(),
		IPLRuns:      p.Formats[FormatIPL].Runs,
		IPLWickets:   p.Formats[FormatIPL].Wickets,
		IPLMatches:   p.Formats[FormatIPL].MatchCount(),
		TotalRuns:    p.TotalRuns(),
		TotalWickets: p.TotalWickets(),
		Centuries:    p.Centuries(),
		IPLCenturies: p.IPLCenturies(),
	}
}

// RosterPlayer is one emitted roster record.
type RosterPlayer struct {
	ID          string      `json:"id"`
	CricsheetID string      `json:"cricsheetId"`
	Name        string      `json:"name"`
	Country     string      `json:"country"`
	CountryCode string      `json:"countryCode"`
	CountryFlag string      `json:"countryFlag"`
	IPLTeams    []string    `json:"iplTeams"`
	PrimaryRole Role        `json:"primaryRole"`
	Stats       RosterStats `json:"stats"`
	Trophies    []string    `json:"trophies"`
	Teammates   []string    `json:"teammates"`
}

// RunSummary is a lightweight record for list/summary commands.
type RunSummary struct {
	ID               string `db:"id"`
	CreatedAt        string `db:"created_at"`
	MatchesProcessed int    `db:"matches_processed"`
	MatchErrors      int    `db:"match_errors"`
	PlayersSeen      int    `db:"players_seen"`
	Eligible         int    `db:"eligible"`
	RosterSize       int    `db:"roster_size"`
	MinPlayers       int    `db:"min_players"`
	Finals           int    `db:"finals"`
}

// SortedKeys returns the keys of a string set in lexical order.
func SortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SourceSummary records what one match source contributed to a run.
type SourceSummary struct {
	RunID   string `db:"run_id"`
	Name    string `db:"name"`
	Format  string `db:"format"`
	Hash    string `db:"hash"`
	Matches int    `db:"matches"`
	Skipped int    `db:"skipped"`
	Errors  int    `db:"errors"`
}

// EnrichmentEntry is the persisted outcome of one enrichment attempt.
type EnrichmentEntry struct {
	RunID       string `db:"run_id"`
	PlayerID    string `db:"player_id"`
	Outcome     string `db:"outcome"`
	Reason      string `db:"reason"`
	AttemptedAt string `db:"attempted_at"`
}
