// Package classify assigns each player aggregate a single primary role.
package classify

import (
	"github.com/pable/cricroster/internal/model"
)

// Thresholds used by the role cascade.
const (
	spinMinWickets = 15
	spinMinBalls   = 300

	keeperMinStumpings = 3

	allRounderMinRuns    = 3000
	allRounderMinWickets = 75
	allRounderMinRatio   = 15.0
	allRounderMaxRatio   = 100.0

	fastMinWickets = 20
	fastMinBalls   = 400
	fastMaxRuns    = 5000

	leagueFastMinWickets = 25
	leagueFastMinBalls   = 250
	leagueFastMaxRuns    = 2000
)

// Classifier evaluates the ordered role cascade against a rule table.
type Classifier struct {
	rules *RuleTable
}

// New returns a Classifier backed by rules.
func New(rules *RuleTable) *Classifier {
	return &Classifier{rules: rules}
}

// Role returns the primary role for p without modifying it. The first
// satisfied rule wins:
//
//  1. curated spinner with ≥15 wickets and ≥300 balls (international + IPL) → Spin Bowler
//  2. ≥3 stumpings or curated keeper → WK-Bat
//  3. ≥3000 runs, ≥75 wickets, not a curated spinner, runs/wicket in [15,100] → All-Rounder
//  4. ≥20 wickets, ≥400 balls, <5000 runs (international) → Fast Bowler
//  5. ≥25 wickets, ≥250 balls, <2000 runs (IPL) → Fast Bowler
//  6. Batsman
func (c *Classifier) Role(p *model.PlayerAggregate) model.Role {
	isSpinner := c.rules.Has(p.Name, HintSpinner)
	isKeeper := p.Stumpings >= keeperMinStumpings || c.rules.Has(p.Name, HintKeeper)

	ipl := p.Stats(model.FormatIPL)
	runs := p.TotalRuns()
	wickets := p.TotalWickets()
	balls := p.TotalBallsBowled()

	switch {
	case isSpinner && wickets+ipl.Wickets >= spinMinWickets && balls+ipl.BallsBowled >= spinMinBalls:
		return model.RoleSpinBowler
	case isKeeper:
		return model.RoleWKBat
	case runs >= allRounderMinRuns && wickets >= allRounderMinWickets && !isSpinner && inBalanceBand(runs, wickets):
		return model.RoleAllRounder
	case wickets >= fastMinWickets && balls >= fastMinBalls && runs < fastMaxRuns:
		return model.RoleFastBowler
	case ipl.Wickets >= leagueFastMinWickets && ipl.BallsBowled >= leagueFastMinBalls && ipl.Runs < leagueFastMaxRuns:
		return model.RoleFastBowler
	default:
		return model.RoleBatsman
	}
}

// inBalanceBand separates genuine all-rounders from players who clear both
// raw thresholds while being batting- or bowling-dominant.
func inBalanceBand(runs, wickets int) bool {
	ratio := float64(runs) / float64(max(wickets, 1))
	return ratio >= allRounderMinRatio && ratio <= allRounderMaxRatio
}

// ClassifyAll sets the provisional role on every aggregate and returns the
// per-role counts.
func (c *Classifier) ClassifyAll(players []*model.PlayerAggregate) map[model.Role]int {
	counts := make(map[model.Role]int)
	for _, p := range players {
		p.Role = c.Role(p)
		counts[p.Role]++
	}
	return counts
}
