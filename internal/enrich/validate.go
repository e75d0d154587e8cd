// Package enrich overrides undercounted roster statistics with career figures
// proposed by a language model, behind a plausibility gate.
package enrich

import (
	"fmt"
	"math"

	"github.com/pable/cricroster/internal/model"
)

// Rejection reasons.
const (
	ReasonNotConfident = "not_confident"
	ReasonMissingField = "missing_field"
	ReasonNegative     = "negative_value"
	ReasonImplausible  = "implausible"
	ReasonRegression   = "regression"
)

// Plausibility bounds for a proposal.
const (
	maxTotalMatches = 700
	maxCenturies    = 200
	maxFormatRuns   = 20000
	maxTestWickets  = 900
	maxODIWickets   = 600

	// Upper bound on any single proposed figure, checked before int conversion.
	maxFieldValue = 1e6

	// The match archive only ever misses matches, so proposals must not fall
	// meaningfully below what it already counted.
	minTotalRatio   = 0.95
	minMatchesRatio = 0.5
)

// Rejection explains why a proposal was not applied.
type Rejection struct {
	Reason string
	Detail string
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return "proposal rejected: " + r.Reason
	}
	return fmt.Sprintf("proposal rejected: %s: %s", r.Reason, r.Detail)
}

func reject(reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Validate checks p against the current stats and returns the stats to store
// when it is accepted. League figures and league centuries are carried over
// unchanged; totals are recomputed.
func Validate(p *Proposal, old model.RosterStats) (model.RosterStats, error) {
	if p.Confident != nil && !*p.Confident {
		return old, &Rejection{Reason: ReasonNotConfident}
	}

	fields := p.required()
	values := make(map[string]int, len(fields))
	for _, f := range fields {
		if f.value == nil {
			return old, reject(ReasonMissingField, "%s", f.name)
		}
		if *f.value < 0 {
			return old, reject(ReasonNegative, "%s=%v", f.name, *f.value)
		}
		if v := *f.value; math.IsNaN(v) || v > maxFieldValue || v != math.Trunc(v) {
			return old, reject(ReasonImplausible, "%s=%v", f.name, v)
		}
		values[f.name] = int(*f.value)
	}

	next := old
	next.TestRuns = values["testRuns"]
	next.TestWickets = values["testWickets"]
	next.TestMatches = values["testMatches"]
	next.ODIRuns = values["odiRuns"]
	next.ODIWickets = values["odiWickets"]
	next.ODIMatches = values["odiMatches"]
	next.T20IRuns = values["t20iRuns"]
	next.T20IWickets = values["t20iWickets"]
	next.T20IMatches = values["t20iMatches"]
	next.Centuries = values["centuries"]
	next.Recompute()

	total := next.IntlMatches()
	switch {
	case total > maxTotalMatches:
		return old, reject(ReasonImplausible, "%d international matches", total)
	case next.Centuries > maxCenturies:
		return old, reject(ReasonImplausible, "%d centuries", next.Centuries)
	case next.Centuries > total:
		return old, reject(ReasonImplausible, "%d centuries in %d matches", next.Centuries, total)
	case next.TestRuns > maxFormatRuns:
		return old, reject(ReasonImplausible, "%d Test runs", next.TestRuns)
	case next.ODIRuns > maxFormatRuns:
		return old, reject(ReasonImplausible, "%d ODI runs", next.ODIRuns)
	case next.TestWickets > maxTestWickets:
		return old, reject(ReasonImplausible, "%d Test wickets", next.TestWickets)
	case next.ODIWickets > maxODIWickets:
		return old, reject(ReasonImplausible, "%d ODI wickets", next.ODIWickets)
	}

	if float64(next.TotalRuns) < float64(old.TotalRuns)*minTotalRatio {
		return old, reject(ReasonRegression, "runs %d < %d", next.TotalRuns, old.TotalRuns)
	}
	if float64(next.TotalWickets) < float64(old.TotalWickets)*minTotalRatio {
		return old, reject(ReasonRegression, "wickets %d < %d", next.TotalWickets, old.TotalWickets)
	}
	for _, m := range []struct {
		name     string
		new, old int
	}{
		{"testMatches", next.TestMatches, old.TestMatches},
		{"odiMatches", next.ODIMatches, old.ODIMatches},
		{"t20iMatches", next.T20IMatches, old.T20IMatches},
	} {
		if float64(m.new) < float64(m.old)*minMatchesRatio {
			return old, reject(ReasonRegression, "%s %d < %d", m.name, m.new, m.old)
		}
	}
	return next, nil
}

// Suspicious reports whether a record's international figures look
// undercounted for its match count.
func Suspicious(p model.RosterPlayer) bool {
	s := p.Stats
	intl := s.IntlMatches()
	bowler := p.PrimaryRole.IsBowler()
	switch {
	case intl >= 30 && s.TotalRuns < 2000 && !bowler:
		return true
	case s.TestMatches >= 20 && s.TestRuns < 600:
		return true
	case s.ODIMatches >= 50 && s.ODIRuns < 1000:
		return true
	case intl >= 100 && s.TotalRuns < 3000 && !bowler:
		return true
	case intl >= 50 && s.TotalWickets < 30 && bowler:
		return true
	}
	return false
}
