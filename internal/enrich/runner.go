package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/pable/cricroster/internal/classify"
	"github.com/pable/cricroster/internal/metrics"
	"github.com/pable/cricroster/internal/model"
)

// Outcome of one enrichment attempt.
const (
	OutcomeUpdated      = "updated"
	OutcomeNotConfident = ReasonNotConfident
	OutcomeInvalid      = "invalid"
	OutcomeError        = "error"
)

// DryRunLimit caps the players attempted in a dry run.
const DryRunLimit = 5

// breakerTrip is the number of consecutive request failures that opens the breaker.
const breakerTrip = 5

// Store persists enrichment results.
type Store interface {
	UpdatePlayer(runID string, p model.RosterPlayer) error
	RecordEnrichment(e model.EnrichmentEntry) error
	AttemptedPlayers(runID string) (map[string]bool, error)
}

// Options selects and paces the players to enrich.
type Options struct {
	OnlySuspicious bool
	Resume         bool
	DryRun         bool
	Limit          int // 0 means no limit
}

// Change describes an applied override.
type Change struct {
	PlayerID string
	Name     string
	OldRuns  int
	NewRuns  int
	OldRole  model.Role
	NewRole  model.Role
}

// Report tallies one enrichment pass.
type Report struct {
	Candidates   int
	Updated      int
	NotConfident int
	Invalid      int
	Errors       int
	Changes      []Change
	Rejections   map[string]int // by reason
}

// Runner applies proposals to stored roster records one player at a time.
type Runner struct {
	proposer Proposer
	store    Store
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	metrics  *metrics.Run
}

// NewRunner paces requests at most one per delay and stops the pass once
// the proposer keeps failing. m may be nil.
func NewRunner(p Proposer, s Store, delay time.Duration, m *metrics.Run) *Runner {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	st := gobreaker.Settings{
		Name:    "enrich",
		Timeout: time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrip
		},
		// A reply that cannot be parsed still proves the service is up.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnparseable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
		},
	}
	return &Runner{
		proposer: p,
		store:    s,
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  gobreaker.NewCircuitBreaker(st),
		metrics:  m,
	}
}

// Select returns the players a pass would attempt, in roster order.
func Select(players []model.RosterPlayer, attempted map[string]bool, opts Options) []model.RosterPlayer {
	var out []model.RosterPlayer
	for _, p := range players {
		if attempted[p.ID] {
			continue
		}
		if opts.OnlySuspicious && !Suspicious(p) {
			continue
		}
		out = append(out, p)
	}
	limit := opts.Limit
	if opts.DryRun && (limit == 0 || limit > DryRunLimit) {
		limit = DryRunLimit
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Run enriches players of runID. Each outcome is recorded before the next
// request so an interrupted pass can resume. A dry run records nothing.
func (r *Runner) Run(ctx context.Context, runID string, players []model.RosterPlayer, opts Options) (*Report, error) {
	var attempted map[string]bool
	if opts.Resume {
		var err error
		attempted, err = r.store.AttemptedPlayers(runID)
		if err != nil {
			return nil, fmt.Errorf("load checkpoint: %w", err)
		}
		log.Info().Int("done", len(attempted)).Msg("resuming enrichment")
	}
	todo := Select(players, attempted, opts)
	rep := &Report{Candidates: len(todo), Rejections: make(map[string]int)}

	for i, p := range todo {
		if err := r.limiter.Wait(ctx); err != nil {
			return rep, err
		}
		logger := log.With().Str("player", p.ID).Int("n", i+1).Int("of", len(todo)).Logger()

		res, err := r.breaker.Execute(func() (interface{}, error) {
			return r.proposer.Propose(ctx, p)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return rep, fmt.Errorf("enrichment stopped after %d players: %w", i, err)
		}
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}

		entry := model.EnrichmentEntry{RunID: runID, PlayerID: p.ID}
		if err != nil {
			rep.Errors++
			entry.Outcome, entry.Reason = OutcomeError, err.Error()
			logger.Warn().Err(err).Msg("proposal failed")
		} else {
			next, change, verr := apply(p, res.(*Proposal))
			var rej *Rejection
			switch {
			case errors.As(verr, &rej) && rej.Reason == ReasonNotConfident:
				rep.NotConfident++
				rep.Rejections[rej.Reason]++
				entry.Outcome, entry.Reason = OutcomeNotConfident, rej.Error()
				logger.Info().Msg("not recognised")
			case errors.As(verr, &rej):
				rep.Invalid++
				rep.Rejections[rej.Reason]++
				entry.Outcome, entry.Reason = OutcomeInvalid, rej.Error()
				logger.Info().Str("reason", rej.Reason).Str("detail", rej.Detail).Msg("proposal rejected")
			default:
				if !opts.DryRun {
					if err := r.store.UpdatePlayer(runID, next); err != nil {
						return rep, err
					}
				}
				rep.Updated++
				rep.Changes = append(rep.Changes, change)
				entry.Outcome = OutcomeUpdated
				logger.Info().Int("old_runs", change.OldRuns).Int("new_runs", change.NewRuns).Msg("updated")
			}
		}

		if r.metrics != nil {
			r.metrics.EnrichOutcomes.WithLabelValues(entry.Outcome).Inc()
		}
		if opts.DryRun {
			continue
		}
		if err := r.store.RecordEnrichment(entry); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// apply validates prop against p and returns the updated record.
func apply(p model.RosterPlayer, prop *Proposal) (model.RosterPlayer, Change, error) {
	if prop == nil {
		return p, Change{}, &Rejection{Reason: ReasonMissingField, Detail: "empty proposal"}
	}
	stats, err := Validate(prop, p.Stats)
	if err != nil {
		return p, Change{}, err
	}
	change := Change{
		PlayerID: p.ID,
		Name:     p.Name,
		OldRuns:  p.Stats.TotalRuns,
		NewRuns:  stats.TotalRuns,
		OldRole:  p.PrimaryRole,
		NewRole:  p.PrimaryRole,
	}
	p.Stats = stats
	if role, ok := classify.FromDescription(prop.PlayingRole); ok {
		p.PrimaryRole = role
		change.NewRole = role
	}
	return p, change, nil
}
