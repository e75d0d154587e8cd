// Package aggregator folds decoded matches into per-player career aggregates.
package aggregator

import (
	"fmt"

	"github.com/pable/cricroster/internal/model"
	"github.com/pable/cricroster/internal/registry"
	"github.com/pable/cricroster/internal/trophy"
)

// bowlerWicketKinds are the dismissal kinds credited to the bowler.
var bowlerWicketKinds = map[string]bool{
	"bowled":            true,
	"caught":            true,
	"lbw":               true,
	"stumped":           true,
	"hit wicket":        true,
	"caught and bowled": true,
}

// SourceRecordError reports a match record that could not be used. It never
// aborts a run.
type SourceRecordError struct {
	Source string
	Entry  string
	Err    error
}

func (e *SourceRecordError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Entry, e.Err)
}

func (e *SourceRecordError) Unwrap() error { return e.Err }

// Store owns every PlayerAggregate keyed by stable id and remembers the order
// in which players first appeared.
type Store struct {
	players map[string]*model.PlayerAggregate
	order   []string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{players: make(map[string]*model.PlayerAggregate)}
}

// Get returns the aggregate for id.
func (s *Store) Get(id string) (*model.PlayerAggregate, bool) {
	p, ok := s.players[id]
	return p, ok
}

// Len returns the number of players in the store.
func (s *Store) Len() int { return len(s.order) }

// Players returns every aggregate in insertion order.
func (s *Store) Players() []*model.PlayerAggregate {
	out := make([]*model.PlayerAggregate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.players[id])
	}
	return out
}

func (s *Store) getOrCreate(id, name string) *model.PlayerAggregate {
	if p, ok := s.players[id]; ok {
		return p
	}
	p := model.NewPlayerAggregate(id, name)
	s.players[id] = p
	s.order = append(s.order, id)
	return p
}

// Reducer applies matches to a Store and collects detected finals.
type Reducer struct {
	store    *Store
	registry *registry.Registry
	iplTeams map[string]string
	detector *trophy.Detector
	finals   []model.FinalCandidate
}

// NewReducer returns a Reducer writing into store. reg may be nil, in which
// case only each match's own registry is used. iplTeams maps franchise names
// to abbreviations; detector may be nil to disable final detection.
func NewReducer(store *Store, reg *registry.Registry, iplTeams map[string]string, detector *trophy.Detector) *Reducer {
	return &Reducer{store: store, registry: reg, iplTeams: iplTeams, detector: detector}
}

// Store returns the store the reducer writes into.
func (r *Reducer) Store() *Store { return r.store }

// Finals returns the finals detected so far, in detection order.
func (r *Reducer) Finals() []model.FinalCandidate { return r.finals }

// ProcessMatch folds one match into the store. It reports false when the match
// was skipped because it is not a men's match.
func (r *Reducer) ProcessMatch(m *model.Match, matchID string, f model.Format) bool {
	info := &m.Info
	if info.Gender != "" && info.Gender != "male" {
		return false
	}
	people := info.Registry.People

	// ---- Pass 1: playing XIs, match sets, country, franchises. ----

	teamIDs := make(map[string][]string, len(info.Players))
	for _, team := range info.TeamOrder() {
		var ids []string
		for _, name := range info.Players[team] {
			id, ok := r.registry.Resolve(name, people)
			if !ok {
				continue
			}
			p := r.store.getOrCreate(id, r.registry.CanonicalName(id, name))
			p.Stats(f).Matches[matchID] = struct{}{}
			if f.IsInternational() && p.Country == "" {
				p.Country = team
			}
			if f == model.FormatIPL {
				if abbr, ok := r.iplTeams[team]; ok {
					p.IPLTeams[abbr] = struct{}{}
				}
			}
			ids = append(ids, id)
		}
		teamIDs[team] = ids
	}

	// ---- Pass 2: symmetric teammate edges within each XI. ----

	for _, ids := range teamIDs {
		for i, a := range ids {
			for _, b := range ids[i+1:] {
				pa, _ := r.store.Get(a)
				pb, _ := r.store.Get(b)
				pa.AddTeammate(b)
				pb.AddTeammate(a)
			}
		}
	}

	// ---- Pass 3: ball-by-ball batting, bowling and stumpings. ----

	for _, inn := range m.Innings {
		inningsRuns := make(map[string]int)
		var batted []string
		for _, over := range inn.Overs {
			for i := range over.Deliveries {
				d := &over.Deliveries[i]
				if batter := r.known(d.Batter, people); batter != nil {
					batter.Stats(f).Runs += d.Runs.Batter
					if _, seen := inningsRuns[batter.ID]; !seen {
						batted = append(batted, batter.ID)
					}
					inningsRuns[batter.ID] += d.Runs.Batter
				}
				bowler := r.known(d.Bowler, people)
				if bowler != nil && d.IsLegal() {
					bowler.Stats(f).BallsBowled++
				}
				for _, w := range d.Wickets {
					if bowlerWicketKinds[w.Kind] && bowler != nil {
						bowler.Stats(f).Wickets++
					}
					if w.Kind != "stumped" {
						continue
					}
					for _, fl := range w.Fielders {
						if keeper := r.known(fl.Name, people); keeper != nil {
							keeper.Stumpings++
						}
					}
				}
			}
		}
		// Innings totals are only final once the innings is over.
		for _, id := range batted {
			p, _ := r.store.Get(id)
			p.Stats(f).InningsScore = append(p.Stats(f).InningsScore, inningsRuns[id])
		}
	}

	// ---- Pass 4: final detection. ----

	if fc, ok := r.detector.Detect(info, teamIDs); ok {
		r.finals = append(r.finals, fc)
	}
	return true
}

// known resolves a delivery name to an aggregate already in the store.
// Players outside every playing XI are ignored.
func (r *Reducer) known(name string, people map[string]string) *model.PlayerAggregate {
	id, ok := r.registry.Resolve(name, people)
	if !ok {
		return nil
	}
	p, ok := r.store.Get(id)
	if !ok {
		return nil
	}
	return p
}
