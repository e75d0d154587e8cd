// Package pipeline runs the full batch: match sources into the aggregate
// store, then classification, trophies and roster selection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pable/cricroster/internal/aggregator"
	"github.com/pable/cricroster/internal/classify"
	"github.com/pable/cricroster/internal/config"
	"github.com/pable/cricroster/internal/metrics"
	"github.com/pable/cricroster/internal/model"
	"github.com/pable/cricroster/internal/parser"
	"github.com/pable/cricroster/internal/registry"
	"github.com/pable/cricroster/internal/roster"
	"github.com/pable/cricroster/internal/trophy"
)

// ErrNoMatches is returned when no source yielded a single usable match.
var ErrNoMatches = errors.New("no matches processed")

const (
	// QuickLimit caps matches per source in quick mode.
	QuickLimit = 200

	loggedErrorsPerSource = 3
	progressEvery         = 500
)

var errQuickLimit = errors.New("quick limit reached")

// Options tunes a single Run.
type Options struct {
	MinPlayers int
	Quick      bool
	Metrics    *metrics.Run // optional
}

// Result is everything a run produced.
type Result struct {
	Store         *aggregator.Store
	Finals        []model.FinalCandidate
	Ranked        []*model.PlayerAggregate // every eligible player, by significance
	Roster        []model.RosterPlayer
	Sources       []model.SourceSummary
	RoleCounts    map[model.Role]int
	TrophyHolders int
}

// MatchesProcessed sums processed matches across sources.
func (r *Result) MatchesProcessed() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Matches
	}
	return n
}

// MatchErrors sums malformed records across sources.
func (r *Result) MatchErrors() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Errors
	}
	return n
}

// Pipeline holds the compiled curated data shared by every run.
type Pipeline struct {
	registry   *registry.Registry
	curated    *config.Curated
	classifier *classify.Classifier
	detector   *trophy.Detector
	builder    *roster.Builder
}

// New compiles the curated lists. reg may be nil.
func New(reg *registry.Registry, curated *config.Curated) (*Pipeline, error) {
	detector, err := trophy.NewDetector(curated.TrophyPatterns)
	if err != nil {
		return nil, err
	}
	rules := classify.NewRuleTable(curated.Spinners, curated.Wicketkeepers, curated.Blacklist)
	return &Pipeline{
		registry:   reg,
		curated:    curated,
		classifier: classify.New(rules),
		detector:   detector,
		builder:    roster.NewBuilder(curated),
	}, nil
}

// Run processes sources in the given order and builds the roster.
func (p *Pipeline) Run(ctx context.Context, sources []parser.Source, opts Options) (*Result, error) {
	m := opts.Metrics
	store := aggregator.NewStore()
	reducer := aggregator.NewReducer(store, p.registry, p.curated.IPLTeams, p.detector)
	res := &Result{Store: store}

	start := time.Now()
	for _, src := range sources {
		stats, err := p.runSource(ctx, reducer, src, opts)
		if err != nil {
			return nil, err
		}
		res.Sources = append(res.Sources, stats)
	}
	m.ObservePhase("aggregate", start)

	if res.MatchesProcessed() == 0 {
		return nil, ErrNoMatches
	}

	start = time.Now()
	p.applyCountryHints(store)
	res.RoleCounts = p.classifier.ClassifyAll(store.Players())
	res.Finals = reducer.Finals()
	res.TrophyHolders = trophy.Assign(store, res.Finals)
	m.ObservePhase("classify", start)

	start = time.Now()
	res.Ranked = roster.Rank(store.Players())
	selected := roster.Select(store.Players(), opts.MinPlayers)
	res.Roster = p.builder.Build(selected)
	m.ObservePhase("select", start)

	if m != nil {
		m.PlayersSeen.Set(float64(store.Len()))
		m.Eligible.Set(float64(len(res.Ranked)))
		m.RosterSize.Set(float64(len(res.Roster)))
		m.Finals.Set(float64(len(res.Finals)))
	}

	log.Info().
		Int("matches", res.MatchesProcessed()).
		Int("errors", res.MatchErrors()).
		Int("players", store.Len()).
		Int("eligible", len(res.Ranked)).
		Int("roster", len(res.Roster)).
		Int("finals", len(res.Finals)).
		Int("trophy_holders", res.TrophyHolders).
		Msg("pipeline complete")
	return res, nil
}

func (p *Pipeline) runSource(ctx context.Context, reducer *aggregator.Reducer, src parser.Source, opts Options) (model.SourceSummary, error) {
	f := src.Format()
	stats := model.SourceSummary{Name: src.Name(), Format: f.String()}
	if h, ok := src.(interface{ Hash() string }); ok {
		stats.Hash = h.Hash()
	}
	m := opts.Metrics

	logger := log.With().Str("source", src.Name()).Str("format", f.String()).Logger()
	logger.Info().Msg("processing matches")

	err := src.Each(ctx, func(rec parser.Record) error {
		if opts.Quick && stats.Matches >= QuickLimit {
			return errQuickLimit
		}
		var match *model.Match
		err := rec.Err
		if err == nil {
			match, err = parser.DecodeMatch(rec.Data)
		}
		if err != nil {
			stats.Errors++
			if m != nil {
				m.RecordErrors.WithLabelValues(f.String()).Inc()
			}
			if stats.Errors <= loggedErrorsPerSource {
				rerr := &aggregator.SourceRecordError{Source: src.Name(), Entry: rec.Entry, Err: err}
				logger.Warn().Err(rerr).Msg("skipping bad match record")
			}
			return nil
		}
		if !reducer.ProcessMatch(match, rec.MatchID, f) {
			stats.Skipped++
			if m != nil {
				m.MatchesSkipped.WithLabelValues(f.String(), "gender").Inc()
			}
			return nil
		}
		stats.Matches++
		if m != nil {
			m.MatchesProcessed.WithLabelValues(f.String()).Inc()
		}
		if stats.Matches%progressEvery == 0 {
			logger.Debug().Int("matches", stats.Matches).Msg("progress")
		}
		return nil
	})
	if err != nil && !errors.Is(err, errQuickLimit) {
		return stats, fmt.Errorf("read %s: %w", src.Name(), err)
	}

	ev := logger.Info().Int("matches", stats.Matches)
	if stats.Errors > 0 {
		ev = ev.Int("errors", stats.Errors)
	}
	ev.Msg("source done")
	return stats, nil
}

// applyCountryHints fills the country of players who never played an
// international match from the people register.
func (p *Pipeline) applyCountryHints(store *aggregator.Store) {
	if p.registry.Len() == 0 {
		return
	}
	for _, pl := range store.Players() {
		if pl.Country != "" {
			continue
		}
		if person, ok := p.registry.Lookup(pl.ID); ok && person.CountryHint != "" {
			pl.Country = person.CountryHint
		}
	}
}

// OpenSources opens one source per format found in dataDir, in processing
// order. An extracted "<key>_json" directory takes precedence over the zip
// archive. Formats with neither are logged and skipped.
func OpenSources(dataDir string) ([]parser.Source, error) {
	var out []parser.Source
	for _, f := range model.Formats {
		dir := filepath.Join(dataDir, f.ArchiveKey()+"_json")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			d, err := parser.OpenDir(dir, f)
			if err != nil {
				CloseSources(out)
				return nil, err
			}
			out = append(out, d)
			continue
		}

		path := parser.ArchivePath(dataDir, f)
		a, err := parser.OpenArchive(path, f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				log.Warn().Str("archive", path).Msg("archive not found, skipping")
				continue
			}
			CloseSources(out)
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// CloseSources closes every source, logging failures.
func CloseSources(sources []parser.Source) {
	for _, s := range sources {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Str("source", s.Name()).Msg("close source")
		}
	}
}

// Summary returns the run record for storage. The store assigns ID and
// CreatedAt.
func (r *Result) Summary(minPlayers int) model.RunSummary {
	return model.RunSummary{
		MatchesProcessed: r.MatchesProcessed(),
		MatchErrors:      r.MatchErrors(),
		PlayersSeen:      r.Store.Len(),
		Eligible:         len(r.Ranked),
		RosterSize:       len(r.Roster),
		MinPlayers:       minPlayers,
		Finals:           len(r.Finals),
	}
}
