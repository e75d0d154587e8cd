package aggregator

import (
	"fmt"
	"testing"

	"github.com/pable/cricroster/internal/config"
	"github.com/pable/cricroster/internal/model"
	"github.com/pable/cricroster/internal/trophy"
)

// makeMatch builds a men's match between two teams whose XIs are listed by
// display name. Every name resolves to the id "id-<name>".
func makeMatch(teamA string, xiA []string, teamB string, xiB []string) *model.Match {
	m := &model.Match{}
	m.Info.Gender = "male"
	m.Info.Teams = []string{teamA, teamB}
	m.Info.Players = map[string][]string{teamA: xiA, teamB: xiB}
	m.Info.Registry.People = make(map[string]string)
	for _, n := range append(append([]string(nil), xiA...), xiB...) {
		m.Info.Registry.People[n] = "id-" + n
	}
	m.Info.Dates = []string{"2011-04-02"}
	return m
}

func ball(batter, bowler string, runs int) model.Delivery {
	d := model.Delivery{Batter: batter, Bowler: bowler}
	d.Runs.Batter = runs
	return d
}

func wide(batter, bowler string) model.Delivery {
	d := ball(batter, bowler, 0)
	d.Extras.Wides = 1
	return d
}

func noBall(batter, bowler string, runs int) model.Delivery {
	d := ball(batter, bowler, runs)
	d.Extras.Noballs = 1
	return d
}

func out(batter, bowler, kind string, fielders ...string) model.Delivery {
	d := ball(batter, bowler, 0)
	w := model.Wicket{Kind: kind, PlayerOut: batter}
	for _, f := range fielders {
		w.Fielders = append(w.Fielders, model.Fielder{Name: f})
	}
	d.Wickets = []model.Wicket{w}
	return d
}

func innings(team string, deliveries ...model.Delivery) model.Innings {
	return model.Innings{Team: team, Overs: []model.Over{{Over: 0, Deliveries: deliveries}}}
}

func newReducer(t *testing.T) *Reducer {
	t.Helper()
	c, err := config.Defaults()
	if err != nil {
		t.Fatal(err)
	}
	d, err := trophy.NewDetector(c.TrophyPatterns)
	if err != nil {
		t.Fatal(err)
	}
	return NewReducer(NewStore(), nil, c.IPLTeams, d)
}

func mustGet(t *testing.T, s *Store, name string) *model.PlayerAggregate {
	t.Helper()
	p, ok := s.Get("id-" + name)
	if !ok {
		t.Fatalf("player %s not in store", name)
	}
	return p
}

// ---- Batting and bowling ----

func TestRunsAndInningsFlush(t *testing.T) {
	r := newReducer(t)
	m := makeMatch("India", []string{"Bat", "Partner"}, "Australia", []string{"Bowl"})
	m.Innings = []model.Innings{
		innings("India", ball("Bat", "Bowl", 60), ball("Partner", "Bowl", 1), ball("Bat", "Bowl", 45)),
		innings("India", ball("Bat", "Bowl", 30)),
	}
	r.ProcessMatch(m, "m1", model.FormatTest)

	bat := mustGet(t, r.Store(), "Bat")
	st := bat.Stats(model.FormatTest)
	if st.Runs != 135 {
		t.Errorf("expected 135 runs, got %d", st.Runs)
	}
	if len(st.InningsScore) != 2 || st.InningsScore[0] != 105 || st.InningsScore[1] != 30 {
		t.Errorf("expected innings [105 30], got %v", st.InningsScore)
	}
	if bat.Centuries() != 1 {
		t.Errorf("expected 1 century, got %d", bat.Centuries())
	}
	if p := mustGet(t, r.Store(), "Partner"); len(p.Stats(model.FormatTest).InningsScore) != 1 {
		t.Errorf("partner should have one innings entry")
	}
	if bowl := mustGet(t, r.Store(), "Bowl"); len(bowl.Stats(model.FormatTest).InningsScore) != 0 {
		t.Errorf("non-batter must not get innings entries")
	}
}

func TestLegalBalls(t *testing.T) {
	r := newReducer(t)
	m := makeMatch("India", []string{"Bat"}, "Australia", []string{"Bowl"})
	m.Innings = []model.Innings{innings("India",
		ball("Bat", "Bowl", 1),
		wide("Bat", "Bowl"),
		noBall("Bat", "Bowl", 4),
		ball("Bat", "Bowl", 0),
	)}
	r.ProcessMatch(m, "m1", model.FormatODI)

	if got := mustGet(t, r.Store(), "Bowl").Stats(model.FormatODI).BallsBowled; got != 2 {
		t.Errorf("expected 2 legal balls, got %d", got)
	}
	if got := mustGet(t, r.Store(), "Bat").Stats(model.FormatODI).Runs; got != 5 {
		t.Errorf("runs off a no-ball still count to the batter: got %d", got)
	}
}

func TestWicketKinds(t *testing.T) {
	tests := []struct {
		kind    string
		credits bool
	}{
		{"bowled", true},
		{"caught", true},
		{"lbw", true},
		{"stumped", true},
		{"hit wicket", true},
		{"caught and bowled", true},
		{"run out", false},
		{"retired hurt", false},
		{"obstructing the field", false},
	}
	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			r := newReducer(t)
			m := makeMatch("India", []string{"Bat"}, "Australia", []string{"Bowl", "Keeper"})
			m.Innings = []model.Innings{innings("India", out("Bat", "Bowl", tc.kind, "Keeper"))}
			r.ProcessMatch(m, "m1", model.FormatT20I)
			want := 0
			if tc.credits {
				want = 1
			}
			if got := mustGet(t, r.Store(), "Bowl").Stats(model.FormatT20I).Wickets; got != want {
				t.Errorf("wickets = %d, want %d", got, want)
			}
		})
	}
}

func TestStumpingCreditsEveryFielder(t *testing.T) {
	r := newReducer(t)
	m := makeMatch("India", []string{"Bat"}, "Australia", []string{"Bowl", "Keeper", "Other"})
	m.Innings = []model.Innings{innings("India",
		out("Bat", "Bowl", "stumped", "Keeper", "Other"),
		out("Bat", "Bowl", "stumped", "Keeper"),
		out("Bat", "Bowl", "caught", "Keeper"),
	)}
	r.ProcessMatch(m, "m1", model.FormatTest)

	if got := mustGet(t, r.Store(), "Keeper").Stumpings; got != 2 {
		t.Errorf("expected 2 stumpings for keeper, got %d", got)
	}
	if got := mustGet(t, r.Store(), "Other").Stumpings; got != 1 {
		t.Errorf("expected 1 stumping for second fielder, got %d", got)
	}
}

// ---- Identity, country and teams ----

func TestCountryFirstTeamWins(t *testing.T) {
	r := newReducer(t)
	m1 := makeMatch("Zimbabwe", []string{"Traveller"}, "Kenya", []string{"X"})
	m2 := makeMatch("England", []string{"Traveller"}, "Kenya", []string{"X"})
	r.ProcessMatch(m1, "m1", model.FormatODI)
	r.ProcessMatch(m2, "m2", model.FormatODI)

	p := mustGet(t, r.Store(), "Traveller")
	if p.Country != "Zimbabwe" {
		t.Errorf("country overwritten: got %s", p.Country)
	}
	if p.TotalMatches() != 2 {
		t.Errorf("expected 2 matches, got %d", p.TotalMatches())
	}
}

func TestLeagueDoesNotSetCountry(t *testing.T) {
	r := newReducer(t)
	m := makeMatch("Mumbai Indians", []string{"Star"}, "Chennai Super Kings", []string{"Other"})
	m.Info.Players["Unknown XI"] = []string{"Ghost"}
	m.Info.Registry.People["Ghost"] = "id-Ghost"
	r.ProcessMatch(m, "ipl1", model.FormatIPL)

	p := mustGet(t, r.Store(), "Star")
	if p.Country != "" {
		t.Errorf("league team must not set country, got %q", p.Country)
	}
	if _, ok := p.IPLTeams["MI"]; !ok || len(p.IPLTeams) != 1 {
		t.Errorf("expected IPL team MI, got %v", p.IPLTeams)
	}
	if p.Stats(model.FormatIPL).MatchCount() != 1 || p.TotalMatches() != 0 {
		t.Error("league match must count only toward IPL")
	}
	if g := mustGet(t, r.Store(), "Ghost"); len(g.IPLTeams) != 0 {
		t.Error("unmapped franchise must be dropped")
	}
}

func TestMatchCountedOnce(t *testing.T) {
	r := newReducer(t)
	m := makeMatch("India", []string{"A"}, "Australia", []string{"B"})
	r.ProcessMatch(m, "m1", model.FormatTest)
	r.ProcessMatch(m, "m1", model.FormatTest)
	if got := mustGet(t, r.Store(), "A").TotalMatches(); got != 1 {
		t.Errorf("same match id must count once, got %d", got)
	}
}

func TestUnresolvedNamesSkipped(t *testing.T) {
	r := newReducer(t)
	m := makeMatch("India", []string{"A"}, "Australia", []string{"B"})
	m.Info.Players["India"] = append(m.Info.Players["India"], "Nobody")
	m.Innings = []model.Innings{innings("India", ball("Nobody", "B", 50), ball("A", "Unlisted", 10))}
	r.ProcessMatch(m, "m1", model.FormatTest)

	if r.Store().Len() != 2 {
		t.Errorf("expected 2 resolved players, got %d", r.Store().Len())
	}
	if got := mustGet(t, r.Store(), "A").Stats(model.FormatTest).Runs; got != 10 {
		t.Errorf("expected 10 runs, got %d", got)
	}
}

func TestGenderFilter(t *testing.T) {
	r := newReducer(t)
	m := makeMatch("India", []string{"A"}, "Australia", []string{"B"})
	m.Info.Gender = "female"
	if r.ProcessMatch(m, "w1", model.FormatODI) {
		t.Error("women's match should be skipped")
	}
	if r.Store().Len() != 0 {
		t.Error("skipped match must not touch the store")
	}
	m.Info.Gender = ""
	if !r.ProcessMatch(m, "w1", model.FormatODI) {
		t.Error("missing gender counts as male")
	}
}

func TestInsertionOrder(t *testing.T) {
	r := newReducer(t)
	r.ProcessMatch(makeMatch("India", []string{"C", "A"}, "Australia", []string{"B"}), "m1", model.FormatTest)
	r.ProcessMatch(makeMatch("India", []string{"D", "A"}, "Australia", []string{"B"}), "m2", model.FormatTest)

	var got []string
	for _, p := range r.Store().Players() {
		got = append(got, p.Name)
	}
	want := []string{"C", "A", "B", "D"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("insertion order = %v, want %v", got, want)
	}
}

// ---- Teammates ----

func TestTeammatesSymmetric(t *testing.T) {
	r := newReducer(t)
	var xi, opp []string
	for i := 0; i < 11; i++ {
		xi = append(xi, fmt.Sprintf("IND%d", i))
		opp = append(opp, fmt.Sprintf("AUS%d", i))
	}
	r.ProcessMatch(makeMatch("India", xi, "Australia", opp), "m1", model.FormatODI)

	entries := 0
	for _, name := range xi {
		p := mustGet(t, r.Store(), name)
		entries += len(p.Teammates)
		if len(p.Teammates) != 10 {
			t.Errorf("%s: expected 10 teammates, got %d", name, len(p.Teammates))
		}
		if _, self := p.Teammates[p.ID]; self {
			t.Errorf("%s lists itself as a teammate", name)
		}
	}
	if entries != 110 {
		t.Errorf("expected 110 directed entries (55 pairs), got %d", entries)
	}

	for _, p := range r.Store().Players() {
		for id := range p.Teammates {
			other, _ := r.Store().Get(id)
			if _, ok := other.Teammates[p.ID]; !ok {
				t.Errorf("edge %s→%s has no reverse", p.ID, id)
			}
		}
	}
	if _, ok := mustGet(t, r.Store(), "IND0").Teammates["id-AUS0"]; ok {
		t.Error("opponents must not be teammates")
	}
}

// ---- Finals ----

func TestFinalDetection(t *testing.T) {
	r := newReducer(t)
	m := makeMatch("India", []string{"A", "B"}, "Sri Lanka", []string{"C"})
	m.Info.Event = model.Event{Name: "ICC Cricket World Cup", Stage: "Final"}
	m.Info.Outcome.Winner = "India"
	r.ProcessMatch(m, "final", model.FormatODI)

	finals := r.Finals()
	if len(finals) != 1 {
		t.Fatalf("expected 1 final, got %d", len(finals))
	}
	fc := finals[0]
	if fc.Trophy != "CWC" || fc.Year != "2011" || len(fc.PlayerIDs) != 2 {
		t.Errorf("unexpected final: %+v", fc)
	}

	n := trophy.Assign(r.Store(), finals)
	if n != 2 {
		t.Errorf("expected 2 trophy holders, got %d", n)
	}
	if _, ok := mustGet(t, r.Store(), "C").Trophies["CWC"]; ok {
		t.Error("losing finalist must not get the trophy")
	}
}

func TestNonFinalsIgnored(t *testing.T) {
	tests := []struct {
		name   string
		event  string
		stage  model.LooseString
		winner string
	}{
		{"group stage", "ICC Cricket World Cup", "Group B", "India"},
		{"no result", "ICC Cricket World Cup", "Final", ""},
		{"unknown tournament", "Asia Cup", "Final", "India"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newReducer(t)
			m := makeMatch("India", []string{"A"}, "Sri Lanka", []string{"C"})
			m.Info.Event = model.Event{Name: tc.event, Stage: tc.stage}
			m.Info.Outcome.Winner = tc.winner
			r.ProcessMatch(m, "x", model.FormatODI)
			if len(r.Finals()) != 0 {
				t.Errorf("unexpected final: %+v", r.Finals())
			}
		})
	}
}

func TestSourceRecordError(t *testing.T) {
	inner := fmt.Errorf("boom")
	err := &SourceRecordError{Source: "odis_json.zip", Entry: "1.json", Err: inner}
	if err.Error() != "odis_json.zip: 1.json: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if err.Unwrap() != inner {
		t.Error("Unwrap must return the cause")
	}
}
