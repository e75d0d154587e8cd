package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/pable/cricroster/internal/model"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleRoster() []model.RosterPlayer {
	return []model.RosterPlayer{
		{
			ID: "ind_sachin_tendulkar", CricsheetID: "c1", Name: "Sachin Tendulkar",
			Country: "India", CountryCode: "IND", CountryFlag: "\U0001F1EE\U0001F1F3",
			IPLTeams: []string{"MI"}, PrimaryRole: model.RoleBatsman,
			Stats: model.RosterStats{
				TestRuns: 15921, ODIRuns: 18426, T20IRuns: 10, TestMatches: 200,
				TotalRuns: 34357, Centuries: 100,
			},
			Trophies:  []string{"CWC"},
			Teammates: []string{"ind_anil_kumble", "ind_rahul_dravid"},
		},
		{
			ID: "ind_anil_kumble", CricsheetID: "c2", Name: "Anil Kumble",
			Country: "India", CountryCode: "IND", CountryFlag: "\U0001F1EE\U0001F1F3",
			IPLTeams: []string{}, PrimaryRole: model.RoleSpinBowler,
			Stats:    model.RosterStats{TestWickets: 619, TestMatches: 132, TotalWickets: 619},
			Trophies: []string{}, Teammates: []string{"ind_sachin_tendulkar"},
		},
	}
}

func saveSample(t *testing.T, db *DB) *model.RunSummary {
	t.Helper()
	run := &model.RunSummary{MatchesProcessed: 10, PlayersSeen: 40, Eligible: 2, RosterSize: 2, MinPlayers: 500, Finals: 1}
	sources := []model.SourceSummary{
		{Name: "tests_json.zip", Format: "Test", Hash: "abc", Matches: 6, Errors: 1},
		{Name: "odis_json.zip", Format: "ODI", Hash: "def", Matches: 4, Skipped: 2},
	}
	finals := []model.FinalCandidate{{Trophy: "CWC", Event: "ICC Cricket World Cup", Winner: "India", Year: "2011", PlayerIDs: []string{"c1", "c2"}}}
	if err := db.SaveRun(run, sources, sampleRoster(), finals); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	return run
}

func TestSaveRunAndList(t *testing.T) {
	db := openMemDB(t)
	first := saveSample(t, db)
	second := saveSample(t, db)

	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("expected distinct run ids, got %q and %q", first.ID, second.ID)
	}
	runs, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Newest first.
	if runs[0].ID != second.ID {
		t.Errorf("expected %s first, got %s", second.ID, runs[0].ID)
	}
	if runs[1].MatchesProcessed != 10 || runs[1].MinPlayers != 500 {
		t.Errorf("run fields not round-tripped: %+v", runs[1])
	}
}

func TestGetRunByPrefix(t *testing.T) {
	db := openMemDB(t)
	run := saveSample(t, db)

	got, err := db.GetRunByPrefix(run.ID[:8])
	if err != nil {
		t.Fatalf("GetRunByPrefix: %v", err)
	}
	if got.ID != run.ID {
		t.Errorf("unexpected run %s", got.ID)
	}
	latest, err := db.GetRunByPrefix("latest")
	if err != nil || latest.ID != run.ID {
		t.Errorf("latest: got %v, %v", latest, err)
	}
	if _, err := db.GetRunByPrefix("zzzz"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestGetRunByPrefixEmptyDB(t *testing.T) {
	db := openMemDB(t)
	if _, err := db.GetRunByPrefix(""); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound on empty db, got %v", err)
	}
}

func TestRosterRoundTrip(t *testing.T) {
	db := openMemDB(t)
	run := saveSample(t, db)

	got, err := db.GetRoster(run.ID)
	if err != nil {
		t.Fatalf("GetRoster: %v", err)
	}
	want := sampleRoster()
	if len(got) != len(want) {
		t.Fatalf("expected %d players, got %d", len(want), len(got))
	}
	for i := range want {
		g, w := got[i], want[i]
		if g.ID != w.ID || g.Name != w.Name || g.PrimaryRole != w.PrimaryRole || g.CountryFlag != w.CountryFlag {
			t.Errorf("player %d identity mismatch: %+v", i, g)
		}
		if g.Stats != w.Stats {
			t.Errorf("player %d stats mismatch: %+v", i, g.Stats)
		}
		if strings.Join(g.Teammates, ",") != strings.Join(w.Teammates, ",") {
			t.Errorf("player %d teammates: got %v want %v", i, g.Teammates, w.Teammates)
		}
		if strings.Join(g.Trophies, ",") != strings.Join(w.Trophies, ",") || g.IPLTeams == nil {
			t.Errorf("player %d sets: %v %v", i, g.Trophies, g.IPLTeams)
		}
	}
}

func TestGetPlayerAndUpdate(t *testing.T) {
	db := openMemDB(t)
	run := saveSample(t, db)

	p, err := db.GetPlayer(run.ID, "ind_anil_kumble")
	if err != nil {
		t.Fatalf("GetPlayer: %v", err)
	}
	if p.Stats.TestWickets != 619 || len(p.Teammates) != 1 {
		t.Errorf("unexpected player: %+v", p)
	}

	p.Stats.ODIWickets = 337
	p.Stats.Recompute()
	p.PrimaryRole = model.RoleAllRounder
	if err := db.UpdatePlayer(run.ID, *p); err != nil {
		t.Fatalf("UpdatePlayer: %v", err)
	}
	again, _ := db.GetPlayer(run.ID, "ind_anil_kumble")
	if again.Stats.TotalWickets != 956 || again.PrimaryRole != model.RoleAllRounder {
		t.Errorf("update not persisted: %+v", again)
	}

	if _, err := db.GetPlayer(run.ID, "nobody"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound, got %v", err)
	}
	if err := db.UpdatePlayer(run.ID, model.RosterPlayer{ID: "nobody"}); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("expected ErrPlayerNotFound on update, got %v", err)
	}
}

func TestSourcesAndFinals(t *testing.T) {
	db := openMemDB(t)
	run := saveSample(t, db)

	sources, err := db.GetSources(run.ID)
	if err != nil {
		t.Fatalf("GetSources: %v", err)
	}
	if len(sources) != 2 || sources[0].Format != "Test" || sources[1].Skipped != 2 {
		t.Errorf("unexpected sources: %+v", sources)
	}
	finals, err := db.GetFinals(run.ID)
	if err != nil {
		t.Fatalf("GetFinals: %v", err)
	}
	if len(finals) != 1 || finals[0].Trophy != "CWC" || len(finals[0].PlayerIDs) != 2 {
		t.Errorf("unexpected finals: %+v", finals)
	}
}

func TestEnrichmentLog(t *testing.T) {
	db := openMemDB(t)
	run := saveSample(t, db)

	entries := []model.EnrichmentEntry{
		{RunID: run.ID, PlayerID: "ind_sachin_tendulkar", Outcome: "updated"},
		{RunID: run.ID, PlayerID: "ind_anil_kumble", Outcome: "rejected", Reason: "not_confident"},
	}
	for _, e := range entries {
		if err := db.RecordEnrichment(e); err != nil {
			t.Fatalf("RecordEnrichment: %v", err)
		}
	}
	// A retry replaces the earlier attempt.
	if err := db.RecordEnrichment(model.EnrichmentEntry{RunID: run.ID, PlayerID: "ind_anil_kumble", Outcome: "updated"}); err != nil {
		t.Fatal(err)
	}

	log, err := db.EnrichmentLog(run.ID)
	if err != nil {
		t.Fatalf("EnrichmentLog: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(log))
	}
	attempted, err := db.AttemptedPlayers(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !attempted["ind_anil_kumble"] || !attempted["ind_sachin_tendulkar"] || len(attempted) != 2 {
		t.Errorf("unexpected attempted set: %v", attempted)
	}
}

func TestDeleteRunCascades(t *testing.T) {
	db := openMemDB(t)
	run := saveSample(t, db)

	if err := db.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	roster, err := db.GetRoster(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(roster) != 0 {
		t.Errorf("expected roster to be deleted, got %d rows", len(roster))
	}
	_, rows, err := db.QueryRaw(`SELECT COUNT(*) FROM roster_teammates`)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0][0] != "0" {
		t.Errorf("expected teammates to cascade, got %s", rows[0][0])
	}
	if err := db.DeleteRun(run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	saveSample(t, db)

	cols, rows, err := db.QueryRaw(`SELECT name, total_runs, NULL AS nothing FROM roster_players ORDER BY rank`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if strings.Join(cols, ",") != "name,total_runs,nothing" {
		t.Errorf("unexpected columns %v", cols)
	}
	if len(rows) != 2 || rows[0][0] != "Sachin Tendulkar" || rows[0][1] != "34357" || rows[0][2] != "NULL" {
		t.Errorf("unexpected rows %v", rows)
	}
	if _, _, err := db.QueryRaw(`SELECT * FROM nope`); err == nil {
		t.Error("expected error for unknown table")
	}
}
