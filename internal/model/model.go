package model

// Format identifies one of the four competitions a match belongs to.
type Format int

const (
	FormatTest Format = iota
	FormatODI
	FormatT20I
	FormatIPL
)

// Formats lists every format in processing order.
var Formats = []Format{FormatTest, FormatODI, FormatT20I, FormatIPL}

// InternationalFormats are the formats that count toward career totals.
var InternationalFormats = []Format{FormatTest, FormatODI, FormatT20I}

func (f Format) String() string {
	switch f {
	case FormatTest:
		return "Test"
	case FormatODI:
		return "ODI"
	case FormatT20I:
		return "T20I"
	case FormatIPL:
		return "IPL"
	default:
		return "?"
	}
}

// ArchiveKey is the Cricsheet download key for the format ("tests", "odis", ...).
func (f Format) ArchiveKey() string {
	switch f {
	case FormatTest:
		return "tests"
	case FormatODI:
		return "odis"
	case FormatT20I:
		return "t20s"
	case FormatIPL:
		return "ipl"
	default:
		return ""
	}
}

// IsInternational reports whether team names in this format are countries.
func (f Format) IsInternational() bool {
	return f != FormatIPL
}

// ParseFormat maps an archive key or display name back to a Format.
func ParseFormat(s string) (Format, bool) {
	for _, f := range Formats {
		if s == f.ArchiveKey() || s == f.String() {
			return f, true
		}
	}
	return 0, false
}

// Role is the single primary role assigned to a player.
type Role string

const (
	RoleBatsman    Role = "Batsman"
	RoleWKBat      Role = "WK-Bat"
	RoleSpinBowler Role = "Spin Bowler"
	RoleFastBowler Role = "Fast Bowler"
	RoleAllRounder Role = "All-Rounder"
)

// IsBowler reports whether the role is one of the two bowling roles.
func (r Role) IsBowler() bool {
	return r == RoleSpinBowler || r == RoleFastBowler
}

// Valid reports whether r is one of the five known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBatsman, RoleWKBat, RoleSpinBowler, RoleFastBowler, RoleAllRounder:
		return true
	}
	return false
}

// FormatStats holds one player's running totals for a single format.
type FormatStats struct {
	Runs         int
	Wickets      int
	Matches      map[string]struct{} // match ids, deduplicated by construction
	BallsBowled  int
	InningsScore []int // one entry per completed innings batted
}

func newFormatStats() *FormatStats {
	return &FormatStats{Matches: make(map[string]struct{})}
}

// MatchCount returns the number of distinct matches played.
func (s *FormatStats) MatchCount() int {
	return len(s.Matches)
}

// Centuries counts innings scores of 100 or more.
func (s *FormatStats) Centuries() int {
	n := 0
	for _, score := range s.InningsScore {
		if score >= 100 {
			n++
		}
	}
	return n
}

// PlayerAggregate accumulates a player's career across every processed match.
type PlayerAggregate struct {
	ID      string
	Name    string
	Country string

	Formats   map[Format]*FormatStats
	IPLTeams  map[string]struct{}
	Teammates map[string]struct{}
	Trophies  map[string]struct{}
	Stumpings int

	// Role is provisional (Batsman) until the classification pass runs.
	Role Role
}

// NewPlayerAggregate returns an empty aggregate with the default role.
func NewPlayerAggregate(id, name string) *PlayerAggregate {
	p := &PlayerAggregate{
		ID:        id,
		Name:      name,
		Formats:   make(map[Format]*FormatStats, len(Formats)),
		IPLTeams:  make(map[string]struct{}),
		Teammates: make(map[string]struct{}),
		Trophies:  make(map[string]struct{}),
		Role:      RoleBatsman,
	}
	for _, f := range Formats {
		p.Formats[f] = newFormatStats()
	}
	return p
}

// Stats returns the sub-aggregate for format f.
func (p *PlayerAggregate) Stats(f Format) *FormatStats {
	return p.Formats[f]
}

// TotalRuns is the sum of Test, ODI and T20I runs. League runs are excluded.
func (p *PlayerAggregate) TotalRuns() int {
	n := 0
	for _, f := range InternationalFormats {
		n += p.Formats[f].Runs
	}
	return n
}

// TotalWickets is the sum of Test, ODI and T20I wickets.
func (p *PlayerAggregate) TotalWickets() int {
	n := 0
	for _, f := range InternationalFormats {
		n += p.Formats[f].Wickets
	}
	return n
}

// TotalMatches is the number of international matches played.
func (p *PlayerAggregate) TotalMatches() int {
	n := 0
	for _, f := range InternationalFormats {
		n += p.Formats[f].MatchCount()
	}
	return n
}

// TotalBallsBowled is the number of legal international balls bowled.
func (p *PlayerAggregate) TotalBallsBowled() int {
	n := 0
	for _, f := range InternationalFormats {
		n += p.Formats[f].BallsBowled
	}
	return n
}

// Centuries counts international hundreds.
func (p *PlayerAggregate) Centuries() int {
	n := 0
	for _, f := range InternationalFormats {
		n += p.Formats[f].Centuries()
	}
	return n
}

// IPLCenturies counts league hundreds.
func (p *PlayerAggregate) IPLCenturies() int {
	return p.Formats[FormatIPL].Centuries()
}

// Significance is the selection ranking key.
func (p *PlayerAggregate) Significance() int {
	return p.TotalMatches() + p.Formats[FormatIPL].MatchCount()
}

// AddTeammate records a one-directional teammate edge. Callers insert both
// directions together.
func (p *PlayerAggregate) AddTeammate(id string) {
	if id == p.ID {
		return
	}
	p.Teammates[id] = struct{}{}
}

// FinalCandidate is a detected tournament final awaiting trophy assignment.
type FinalCandidate struct {
	Trophy    string
	Event     string
	Winner    string
	PlayerIDs []string
	Year      string
}
