package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pable/cricroster/internal/model"
	"github.com/pable/cricroster/internal/roster"
	"github.com/pable/cricroster/internal/storage"
)

func TestSearchRoster(t *testing.T) {
	players := []model.RosterPlayer{
		{ID: "ind_ms_dhoni", Name: "MS Dhoni"},
		{ID: "ind_sachin_tendulkar", Name: "Sachin Tendulkar"},
		{ID: "aus_shane_warne", Name: "Shane Warne"},
	}
	if got := searchRoster(players, "DHONI"); len(got) != 1 || got[0].ID != "ind_ms_dhoni" {
		t.Errorf("name search: %+v", got)
	}
	if got := searchRoster(players, "ind_"); len(got) != 2 {
		t.Errorf("id search found %d", len(got))
	}
	if got := searchRoster(players, "kallis"); len(got) != 0 {
		t.Errorf("expected no match, got %d", len(got))
	}
}

func TestParseShowArgs(t *testing.T) {
	a, err := parseShowArgs([]string{"--role", "Spin", "Bowler", "--top", "5", "--finals"})
	if err != nil {
		t.Fatal(err)
	}
	if a.role != "Spin Bowler" || a.top != 5 || !a.finals || a.sources {
		t.Errorf("unexpected args %+v", a)
	}
	if a, _ := parseShowArgs(nil); a.top != 25 || a.role != "" {
		t.Errorf("unexpected defaults %+v", a)
	}
	if _, err := parseShowArgs([]string{"--bogus"}); err == nil {
		t.Error("unknown flag should fail")
	}
}

func TestShellSession(t *testing.T) {
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	s := &shellSession{db: db}
	if s.exec("   ") || s.exec("use nope") || s.exec("bogus") {
		t.Error("only exit/quit may end the session")
	}
	if s.run != "" {
		t.Errorf("failed use must not select a run, got %q", s.run)
	}

	run := model.RunSummary{RosterSize: 1, MinPlayers: 1}
	roster := []model.RosterPlayer{{ID: "ind_x", Name: "X", Country: "India", PrimaryRole: model.RoleBatsman}}
	if err := db.SaveRun(&run, nil, roster, nil); err != nil {
		t.Fatal(err)
	}
	s.exec("use " + run.ID[:6])
	if s.run != run.ID[:8] {
		t.Errorf("expected run %s selected, got %q", run.ID[:8], s.run)
	}
	if !s.exec("quit") {
		t.Error("quit should end the session")
	}
}

const collectMatch = `{
  "info": {
    "gender": "male",
    "teams": ["India", "England"],
    "players": {"India": ["A Batter", "B Keeper"], "England": ["C Seamer", "D Opener"]},
    "registry": {"people": {"A Batter": "aa000001", "B Keeper": "bb000002", "C Seamer": "cc000003", "D Opener": "dd000004"}},
    "event": {"name": "Pataudi Trophy"},
    "dates": ["%d-07-01"]
  },
  "innings": [{
    "team": "India",
    "overs": [{"over": 0, "deliveries": [
      {"batter": "A Batter", "bowler": "C Seamer", "runs": {"batter": 4, "extras": 0, "total": 4}},
      {"batter": "A Batter", "bowler": "C Seamer", "runs": {"batter": 0, "extras": 0, "total": 0},
       "wickets": [{"kind": "bowled", "player_out": "A Batter"}]}
    ]}]
  }]
}`

// collectFixture points the collect globals at a fresh data dir holding n
// extracted Test matches and no people register.
func collectFixture(t *testing.T, n int) (dir, out string) {
	t.Helper()
	oldDir, oldConfig, oldOut := dataDir, configPath, collectOut
	oldQuick, oldMin, oldMetrics, oldNoStore := collectQuick, collectMinPlayers, collectMetrics, collectNoStore
	t.Cleanup(func() {
		dataDir, configPath, collectOut = oldDir, oldConfig, oldOut
		collectQuick, collectMinPlayers, collectMetrics, collectNoStore = oldQuick, oldMin, oldMetrics, oldNoStore
	})

	dir = t.TempDir()
	matches := filepath.Join(dir, "tests_json")
	if err := os.Mkdir(matches, 0o755); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		body := fmt.Sprintf(collectMatch, 2010+i)
		if err := os.WriteFile(filepath.Join(matches, fmt.Sprintf("%d.json", 1000+i)), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	out = filepath.Join(dir, "players.json")

	dataDir, configPath, collectOut = dir, "", out
	collectQuick, collectMinPlayers, collectMetrics, collectNoStore = false, 0, "", true
	return dir, out
}

func TestCollectWithoutRegister(t *testing.T) {
	dir, out := collectFixture(t, 5)
	if _, err := os.Stat(filepath.Join(dir, "people.csv")); !os.IsNotExist(err) {
		t.Fatalf("fixture must not contain a register: %v", err)
	}

	collectCmd.SetContext(context.Background())
	if err := runCollect(collectCmd, nil); err != nil {
		t.Fatalf("collect: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	players, err := roster.Read(f)
	if err != nil {
		t.Fatalf("read roster: %v", err)
	}
	if len(players) != 4 {
		t.Fatalf("expected all 4 five-Test players in the roster, got %d", len(players))
	}
	byName := make(map[string]model.RosterPlayer, len(players))
	for _, p := range players {
		byName[p.Name] = p
	}
	a, ok := byName["A Batter"]
	if !ok {
		t.Fatalf("A Batter missing from roster: %+v", players)
	}
	if a.CricsheetID != "aa000001" || a.Country != "India" {
		t.Errorf("in-match registry not used: %+v", a)
	}
	if a.Stats.TestMatches != 5 || a.Stats.TestRuns != 20 {
		t.Errorf("unexpected stats for A Batter: %+v", a.Stats)
	}
	if c := byName["C Seamer"]; c.Stats.TestWickets != 5 || c.Country != "England" {
		t.Errorf("unexpected record for C Seamer: %+v", c)
	}
}

func TestCollectNoSources(t *testing.T) {
	dir, _ := collectFixture(t, 0)
	if err := os.Remove(filepath.Join(dir, "tests_json")); err != nil {
		t.Fatal(err)
	}
	collectCmd.SetContext(context.Background())
	if err := runCollect(collectCmd, nil); err == nil {
		t.Error("expected an error when the data dir holds no archives")
	}
}
