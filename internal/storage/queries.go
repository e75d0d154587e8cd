package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pable/cricroster/internal/model"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02 15:04:05.000000"

// playerRow is the flat roster_players row of one roster record.
type playerRow struct {
	RunID       string `db:"run_id"`
	Rank        int    `db:"rank"`
	ID          string `db:"id"`
	CricsheetID string `db:"cricsheet_id"`
	Name        string `db:"name"`
	Country     string `db:"country"`
	CountryCode string `db:"country_code"`
	CountryFlag string `db:"country_flag"`
	PrimaryRole string `db:"primary_role"`
	IPLTeams    string `db:"ipl_teams"`
	Trophies    string `db:"trophies"`
	model.RosterStats
}

func toRow(runID string, rank int, p model.RosterPlayer) playerRow {
	return playerRow{
		RunID:       runID,
		Rank:        rank,
		ID:          p.ID,
		CricsheetID: p.CricsheetID,
		Name:        p.Name,
		Country:     p.Country,
		CountryCode: p.CountryCode,
		CountryFlag: p.CountryFlag,
		PrimaryRole: string(p.PrimaryRole),
		IPLTeams:    joinList(p.IPLTeams),
		Trophies:    joinList(p.Trophies),
		RosterStats: p.Stats,
	}
}

func (r playerRow) toPlayer(teammates []string) model.RosterPlayer {
	if teammates == nil {
		teammates = []string{}
	}
	return model.RosterPlayer{
		ID:          r.ID,
		CricsheetID: r.CricsheetID,
		Name:        r.Name,
		Country:     r.Country,
		CountryCode: r.CountryCode,
		CountryFlag: r.CountryFlag,
		IPLTeams:    splitList(r.IPLTeams),
		PrimaryRole: model.Role(r.PrimaryRole),
		Stats:       r.RosterStats,
		Trophies:    splitList(r.Trophies),
		Teammates:   teammates,
	}
}

// joinList stores short code sets (franchises, trophies) as comma-separated text.
func joinList(items []string) string {
	return strings.Join(items, ",")
}

func splitList(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

const insertPlayerSQL = `
	INSERT INTO roster_players(
		run_id, rank, id, cricsheet_id, name, country, country_code, country_flag,
		primary_role, ipl_teams, trophies,
		test_runs, test_wickets, test_matches,
		odi_runs, odi_wickets, odi_matches,
		t20i_runs, t20i_wickets, t20i_matches,
		ipl_runs, ipl_wickets, ipl_matches,
		total_runs, total_wickets, centuries, ipl_centuries
	) VALUES (
		:run_id, :rank, :id, :cricsheet_id, :name, :country, :country_code, :country_flag,
		:primary_role, :ipl_teams, :trophies,
		:test_runs, :test_wickets, :test_matches,
		:odi_runs, :odi_wickets, :odi_matches,
		:t20i_runs, :t20i_wickets, :t20i_matches,
		:ipl_runs, :ipl_wickets, :ipl_matches,
		:total_runs, :total_wickets, :centuries, :ipl_centuries
	)`

// SaveRun stores a complete run in one transaction. It assigns run.ID and
// run.CreatedAt.
func (db *DB) SaveRun(run *model.RunSummary, sources []model.SourceSummary, players []model.RosterPlayer, finals []model.FinalCandidate) error {
	run.ID = uuid.NewString()
	run.CreatedAt = time.Now().UTC().Format(timeLayout)

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`
		INSERT INTO runs(id, created_at, matches_processed, match_errors, players_seen,
			eligible, roster_size, min_players, finals)
		VALUES (:id, :created_at, :matches_processed, :match_errors, :players_seen,
			:eligible, :roster_size, :min_players, :finals)`, run)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, s := range sources {
		s.RunID = run.ID
		_, err := tx.NamedExec(`
			INSERT INTO run_sources(run_id, name, format, hash, matches, skipped, errors)
			VALUES (:run_id, :name, :format, :hash, :matches, :skipped, :errors)`, s)
		if err != nil {
			return fmt.Errorf("insert run source %s: %w", s.Name, err)
		}
	}

	stmt, err := tx.PrepareNamed(insertPlayerSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()
	mateStmt, err := tx.Preparex(`INSERT INTO roster_teammates(run_id, player_id, teammate_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer mateStmt.Close()

	for i, p := range players {
		if _, err := stmt.Exec(toRow(run.ID, i+1, p)); err != nil {
			return fmt.Errorf("insert roster player %s: %w", p.ID, err)
		}
		for _, mate := range p.Teammates {
			if _, err := mateStmt.Exec(run.ID, p.ID, mate); err != nil {
				return fmt.Errorf("insert teammate of %s: %w", p.ID, err)
			}
		}
	}

	for i, f := range finals {
		_, err := tx.Exec(`
			INSERT INTO finals(run_id, seq, trophy, event, winner, year, player_ids)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i+1, f.Trophy, f.Event, f.Winner, f.Year, joinList(f.PlayerIDs))
		if err != nil {
			return fmt.Errorf("insert final: %w", err)
		}
	}
	return tx.Commit()
}

// ListRuns returns all stored runs ordered newest first.
func (db *DB) ListRuns() ([]model.RunSummary, error) {
	var runs []model.RunSummary
	err := db.conn.Select(&runs, `SELECT * FROM runs ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	return runs, nil
}

// GetRunByPrefix finds the run whose id starts with prefix. An empty prefix
// or "latest" selects the newest run.
func (db *DB) GetRunByPrefix(prefix string) (*model.RunSummary, error) {
	var (
		run model.RunSummary
		err error
	)
	if prefix == "" || prefix == "latest" {
		err = db.conn.Get(&run, `SELECT * FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	} else {
		err = db.conn.Get(&run, `SELECT * FROM runs WHERE id LIKE ? ORDER BY created_at DESC LIMIT 1`, prefix+"%")
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, prefix)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// DeleteRun removes a run and everything stored under it.
func (db *DB) DeleteRun(runID string) error {
	res, err := db.conn.Exec(`DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return nil
}

// GetSources returns the per-source counts of a run.
func (db *DB) GetSources(runID string) ([]model.SourceSummary, error) {
	var out []model.SourceSummary
	err := db.conn.Select(&out, `SELECT * FROM run_sources WHERE run_id = ? ORDER BY rowid`, runID)
	return out, err
}

// GetFinals returns the finals detected in a run, in detection order.
func (db *DB) GetFinals(runID string) ([]model.FinalCandidate, error) {
	var rows []struct {
		Trophy    string `db:"trophy"`
		Event     string `db:"event"`
		Winner    string `db:"winner"`
		Year      string `db:"year"`
		PlayerIDs string `db:"player_ids"`
	}
	err := db.conn.Select(&rows, `
		SELECT trophy, event, winner, year, player_ids
		FROM finals WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	out := make([]model.FinalCandidate, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.FinalCandidate{
			Trophy: r.Trophy, Event: r.Event, Winner: r.Winner, Year: r.Year,
			PlayerIDs: splitList(r.PlayerIDs),
		})
	}
	return out, nil
}

// GetRoster returns a run's roster in rank order, teammates included.
func (db *DB) GetRoster(runID string) ([]model.RosterPlayer, error) {
	var rows []playerRow
	if err := db.conn.Select(&rows, `SELECT * FROM roster_players WHERE run_id = ? ORDER BY rank`, runID); err != nil {
		return nil, err
	}
	var mates []struct {
		PlayerID   string `db:"player_id"`
		TeammateID string `db:"teammate_id"`
	}
	err := db.conn.Select(&mates, `
		SELECT player_id, teammate_id FROM roster_teammates
		WHERE run_id = ? ORDER BY player_id, teammate_id`, runID)
	if err != nil {
		return nil, err
	}
	byPlayer := make(map[string][]string, len(rows))
	for _, m := range mates {
		byPlayer[m.PlayerID] = append(byPlayer[m.PlayerID], m.TeammateID)
	}
	out := make([]model.RosterPlayer, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toPlayer(byPlayer[r.ID]))
	}
	return out, nil
}

// GetPlayer returns one roster record of a run.
func (db *DB) GetPlayer(runID, id string) (*model.RosterPlayer, error) {
	var row playerRow
	err := db.conn.Get(&row, `SELECT * FROM roster_players WHERE run_id = ? AND id = ?`, runID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrPlayerNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var mates []string
	err = db.conn.Select(&mates, `
		SELECT teammate_id FROM roster_teammates
		WHERE run_id = ? AND player_id = ? ORDER BY teammate_id`, runID, id)
	if err != nil {
		return nil, err
	}
	p := row.toPlayer(mates)
	return &p, nil
}

// UpdatePlayer overwrites the stats and role of a stored roster record.
func (db *DB) UpdatePlayer(runID string, p model.RosterPlayer) error {
	row := toRow(runID, 0, p)
	res, err := db.conn.NamedExec(`
		UPDATE roster_players SET
			primary_role = :primary_role,
			test_runs = :test_runs, test_wickets = :test_wickets, test_matches = :test_matches,
			odi_runs = :odi_runs, odi_wickets = :odi_wickets, odi_matches = :odi_matches,
			t20i_runs = :t20i_runs, t20i_wickets = :t20i_wickets, t20i_matches = :t20i_matches,
			ipl_runs = :ipl_runs, ipl_wickets = :ipl_wickets, ipl_matches = :ipl_matches,
			total_runs = :total_runs, total_wickets = :total_wickets,
			centuries = :centuries, ipl_centuries = :ipl_centuries
		WHERE run_id = :run_id AND id = :id`, row)
	if err != nil {
		return fmt.Errorf("update player %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrPlayerNotFound, p.ID)
	}
	return nil
}

// RecordEnrichment stores the outcome of one enrichment attempt, replacing
// any earlier attempt for the same player.
func (db *DB) RecordEnrichment(e model.EnrichmentEntry) error {
	if e.AttemptedAt == "" {
		e.AttemptedAt = time.Now().UTC().Format(timeLayout)
	}
	_, err := db.conn.NamedExec(`
		INSERT OR REPLACE INTO enrichment_log(run_id, player_id, outcome, reason, attempted_at)
		VALUES (:run_id, :player_id, :outcome, :reason, :attempted_at)`, e)
	if err != nil {
		return fmt.Errorf("record enrichment %s: %w", e.PlayerID, err)
	}
	return nil
}

// EnrichmentLog returns every enrichment attempt of a run in attempt order.
func (db *DB) EnrichmentLog(runID string) ([]model.EnrichmentEntry, error) {
	var out []model.EnrichmentEntry
	err := db.conn.Select(&out, `
		SELECT * FROM enrichment_log WHERE run_id = ? ORDER BY attempted_at, rowid`, runID)
	return out, err
}

// AttemptedPlayers returns the ids of players already tried in a run.
func (db *DB) AttemptedPlayers(runID string) (map[string]bool, error) {
	var ids []string
	if err := db.conn.Select(&ids, `SELECT player_id FROM enrichment_log WHERE run_id = ?`, runID); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// QueryRaw runs an arbitrary query and returns column names and rows rendered
// as strings. NULL renders as "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Queryx(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return nil, nil, err
		}
		out = append(out, formatRow(vals))
	}
	return cols, out, rows.Err()
}

func formatRow(vals []any) []string {
	row := make([]string, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case nil:
			row[i] = "NULL"
		case []byte:
			row[i] = string(x)
		case float64:
			row[i] = fmt.Sprintf("%.4g", x)
		default:
			row[i] = fmt.Sprint(x)
		}
	}
	return row
}
