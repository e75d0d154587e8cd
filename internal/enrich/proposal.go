package enrich

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnparseable is returned when a model reply holds no usable JSON object.
var ErrUnparseable = errors.New("unparseable proposal")

// Proposal is a model's claim about a player's international career.
// Absent fields stay nil.
type Proposal struct {
	TestRuns    *float64 `json:"testRuns"`
	TestWickets *float64 `json:"testWickets"`
	TestMatches *float64 `json:"testMatches"`
	ODIRuns     *float64 `json:"odiRuns"`
	ODIWickets  *float64 `json:"odiWickets"`
	ODIMatches  *float64 `json:"odiMatches"`
	T20IRuns    *float64 `json:"t20iRuns"`
	T20IWickets *float64 `json:"t20iWickets"`
	T20IMatches *float64 `json:"t20iMatches"`
	Centuries   *float64 `json:"centuries"`

	// Confident defaults to true when absent.
	Confident   *bool  `json:"confident"`
	PlayingRole string `json:"playingRole"`
}

type field struct {
	name  string
	value *float64
}

func (p *Proposal) required() []field {
	return []field{
		{"testRuns", p.TestRuns},
		{"testWickets", p.TestWickets},
		{"testMatches", p.TestMatches},
		{"odiRuns", p.ODIRuns},
		{"odiWickets", p.ODIWickets},
		{"odiMatches", p.ODIMatches},
		{"t20iRuns", p.T20IRuns},
		{"t20iWickets", p.T20IWickets},
		{"t20iMatches", p.T20IMatches},
		{"centuries", p.Centuries},
	}
}

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?\\s*")
	fenceClose = regexp.MustCompile("\\s*```$")
	firstObj   = regexp.MustCompile(`\{[\s\S]*?\}`)
)

// ParseProposal extracts the first JSON object from a model reply, tolerating
// markdown fences and surrounding prose.
func ParseProposal(text string) (*Proposal, error) {
	s := strings.TrimSpace(text)
	s = fenceOpen.ReplaceAllString(s, "")
	s = fenceClose.ReplaceAllString(s, "")
	if obj := firstObj.FindString(s); obj != "" {
		s = obj
	}
	var p Proposal
	if err := json.Unmarshal([]byte(s), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return &p, nil
}
