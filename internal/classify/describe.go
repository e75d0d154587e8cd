package classify

import (
	"strings"

	"github.com/pable/cricroster/internal/model"
)

var describedRoles = map[string]model.Role{
	"top order batter":     model.RoleBatsman,
	"middle order batter":  model.RoleBatsman,
	"opening batter":       model.RoleBatsman,
	"batter":               model.RoleBatsman,
	"batsman":              model.RoleBatsman,
	"wicketkeeper batter":  model.RoleWKBat,
	"wicketkeeper":         model.RoleWKBat,
	"wicketkeeper batsman": model.RoleWKBat,
	"bowling allrounder":   model.RoleAllRounder,
	"batting allrounder":   model.RoleAllRounder,
	"allrounder":           model.RoleAllRounder,
	"all-rounder":          model.RoleAllRounder,
}

// FromDescription maps a free-text playing-role description such as
// "Wicketkeeper batter" or "Slow left-arm orthodox" onto a primary role.
func FromDescription(desc string) (model.Role, bool) {
	s := strings.ToLower(strings.TrimSpace(desc))
	if s == "" {
		return "", false
	}
	if r, ok := describedRoles[s]; ok {
		return r, true
	}
	switch {
	case strings.Contains(s, "spin") || strings.Contains(s, "slow") ||
		strings.Contains(s, "break") || strings.Contains(s, "googly") || strings.Contains(s, "orthodox"):
		return model.RoleSpinBowler, true
	case strings.Contains(s, "fast") || strings.Contains(s, "pace") ||
		strings.Contains(s, "medium") || strings.Contains(s, "seam"):
		return model.RoleFastBowler, true
	case strings.Contains(s, "bowler"):
		return model.RoleFastBowler, true
	case strings.Contains(s, "allrounder") || strings.Contains(s, "all-rounder"):
		return model.RoleAllRounder, true
	case strings.Contains(s, "batter") || strings.Contains(s, "batsman"):
		return model.RoleBatsman, true
	case strings.Contains(s, "wicketkeeper") || strings.Contains(s, "keeper"):
		return model.RoleWKBat, true
	}
	return "", false
}
