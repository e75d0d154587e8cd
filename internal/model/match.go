package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ---- Cricsheet match record ----

// Match is one decoded Cricsheet JSON match file.
type Match struct {
	Info    MatchInfo `json:"info"`
	Innings []Innings `json:"innings"`
}

// MatchInfo is the match-level metadata block: teams, XIs, register ids,
// event and result.
type MatchInfo struct {
	Gender   string              `json:"gender"`
	Teams    []string            `json:"teams"`
	Players  map[string][]string `json:"players"`
	Registry struct {
		People map[string]string `json:"people"`
	} `json:"registry"`
	Event   Event    `json:"event"`
	Outcome Outcome  `json:"outcome"`
	Dates   []string `json:"dates"`
}

// Event names the competition a match belongs to and its stage.
type Event struct {
	Name  string      `json:"name"`
	Stage LooseString `json:"stage"`
}

// Outcome holds the winning team; Winner is empty for draws and no results.
type Outcome struct {
	Winner string `json:"winner"`
}

// Innings is one team's batting innings.
type Innings struct {
	Team  string `json:"team"`
	Overs []Over `json:"overs"`
}

// Over is one over of deliveries, numbered from zero.
type Over struct {
	Over       int        `json:"over"`
	Deliveries []Delivery `json:"deliveries"`
}

// Delivery is a single ball bowled.
type Delivery struct {
	Batter string `json:"batter"`
	Bowler string `json:"bowler"`
	Runs   struct {
		Batter int `json:"batter"`
	} `json:"runs"`
	Extras struct {
		Wides   int `json:"wides"`
		Noballs int `json:"noballs"`
	} `json:"extras"`
	Wickets []Wicket `json:"wickets"`
}

// IsLegal reports whether the delivery counts toward the bowler's ball tally.
func (d *Delivery) IsLegal() bool {
	return d.Extras.Wides == 0 && d.Extras.Noballs == 0
}

// Wicket is a dismissal recorded on a delivery.
type Wicket struct {
	Kind      string    `json:"kind"`
	PlayerOut string    `json:"player_out"`
	Fielders  []Fielder `json:"fielders"`
}

// Fielder accepts both the bare-string and the {"name": ...} encodings.
type Fielder struct {
	Name string
}

func (f *Fielder) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		f.Name = s
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("fielder: %w", err)
	}
	f.Name = obj.Name
	return nil
}

// LooseString decodes a JSON string and treats any other JSON type as empty.
type LooseString string

func (s *LooseString) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		*s = ""
		return nil
	}
	*s = LooseString(v)
	return nil
}

// TeamOrder returns the XI keys in the record's team order, followed by any
// remaining keys in lexical order.
func (i *MatchInfo) TeamOrder() []string {
	seen := make(map[string]bool, len(i.Players))
	out := make([]string, 0, len(i.Players))
	for _, t := range i.Teams {
		if _, ok := i.Players[t]; ok && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	var rest []string
	for t := range i.Players {
		if !seen[t] {
			rest = append(rest, t)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// Year returns the four-character year prefix of the first match date.
func (i *MatchInfo) Year() string {
	if len(i.Dates) == 0 {
		return ""
	}
	d := i.Dates[0]
	if len(d) < 4 {
		return d
	}
	return d[:4]
}
