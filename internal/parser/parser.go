// Package parser decodes Cricsheet match records and reads them out of the
// downloaded per-format archives.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pable/cricroster/internal/model"
)

// ErrMissingInfo is returned for records without an info object.
var ErrMissingInfo = errors.New("match record has no info")

// record mirrors model.Match with a pointer info so its absence is visible.
type record struct {
	Info    *model.MatchInfo `json:"info"`
	Innings []model.Innings  `json:"innings"`
}

// DecodeMatch decodes one Cricsheet JSON match file.
func DecodeMatch(data []byte) (*model.Match, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode match: %w", err)
	}
	if r.Info == nil {
		return nil, ErrMissingInfo
	}
	return &model.Match{Info: *r.Info, Innings: r.Innings}, nil
}
