package model

import (
	"slices"
	"testing"
)

func TestTeamOrder(t *testing.T) {
	info := MatchInfo{
		Teams: []string{"India", "Australia", "India"},
		Players: map[string][]string{
			"Australia": {"SPD Smith"},
			"India":     {"V Kohli"},
			"Zimbabwe":  {"X"},
			"Kenya":     {"Y"},
		},
	}
	want := []string{"India", "Australia", "Kenya", "Zimbabwe"}
	if got := info.TeamOrder(); !slices.Equal(got, want) {
		t.Errorf("TeamOrder = %v, want %v", got, want)
	}
}

func TestYear(t *testing.T) {
	tests := []struct {
		dates []string
		want  string
	}{
		{nil, ""},
		{[]string{"2011-04-02", "2011-04-03"}, "2011"},
		{[]string{"99"}, "99"},
	}
	for _, tc := range tests {
		info := MatchInfo{Dates: tc.dates}
		if got := info.Year(); got != tc.want {
			t.Errorf("Year(%v) = %q, want %q", tc.dates, got, tc.want)
		}
	}
}
