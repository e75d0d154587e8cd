package classify

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// Hint is a classification hint derived from a player's display name.
type Hint int

const (
	HintSpinner Hint = iota + 1
	HintKeeper
)

func (h Hint) String() string {
	switch h {
	case HintSpinner:
		return "spinner"
	case HintKeeper:
		return "keeper"
	default:
		return "none"
	}
}

// NameRule is one row of the curated rule table. A negated rule that matches
// suppresses its hint regardless of any positive rule.
type NameRule struct {
	Pattern string
	Hint    Hint
	Negated bool

	folded string
}

// RuleTable is an ordered set of name rules evaluated by a single
// word-boundary matcher.
type RuleTable struct {
	rules []NameRule
}

// fold case-folds s. Casers carry state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// NewRuleTable compiles curated lists into a rule table. Patterns equal to a
// blacklist entry are dropped from every list; each blacklist entry also
// becomes a negated spinner rule.
func NewRuleTable(spinners, keepers, blacklist []string) *RuleTable {
	banned := make(map[string]bool, len(blacklist))
	for _, b := range blacklist {
		banned[b] = true
	}
	t := &RuleTable{}
	for _, p := range spinners {
		if !banned[p] {
			t.add(NameRule{Pattern: p, Hint: HintSpinner})
		}
	}
	for _, p := range keepers {
		if !banned[p] {
			t.add(NameRule{Pattern: p, Hint: HintKeeper})
		}
	}
	for _, b := range blacklist {
		t.add(NameRule{Pattern: b, Hint: HintSpinner, Negated: true})
	}
	return t
}

func (t *RuleTable) add(r NameRule) {
	r.folded = fold(strings.TrimSpace(r.Pattern))
	if r.folded == "" {
		return
	}
	t.rules = append(t.rules, r)
}

// Rules returns a copy of the compiled rules in evaluation order.
func (t *RuleTable) Rules() []NameRule {
	return append([]NameRule(nil), t.rules...)
}

// Has reports whether name carries hint h: some positive rule for h matches
// and no negated rule for h does.
func (t *RuleTable) Has(name string, h Hint) bool {
	if t == nil {
		return false
	}
	folded := fold(name)
	hit := false
	for _, r := range t.rules {
		if r.Hint != h || !containsWord(folded, r.folded) {
			continue
		}
		if r.Negated {
			return false
		}
		hit = true
	}
	return hit
}

// containsWord reports whether pattern occurs in s delimited by word
// boundaries on both sides. Word characters are letters, digits and '_'.
func containsWord(s, pattern string) bool {
	if pattern == "" {
		return false
	}
	for off := 0; off <= len(s)-len(pattern); {
		i := strings.Index(s[off:], pattern)
		if i < 0 {
			return false
		}
		start := off + i
		end := start + len(pattern)
		if boundaryBefore(s, start, pattern) && boundaryAfter(s, end, pattern) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		off = start + size
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// boundaryBefore mirrors a leading \b: the match start sits between a word
// and a non-word character.
func boundaryBefore(s string, start int, pattern string) bool {
	first, _ := utf8.DecodeRuneInString(pattern)
	prevWord := false
	if start > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:start])
		prevWord = isWordRune(prev)
	}
	return prevWord != isWordRune(first)
}

func boundaryAfter(s string, end int, pattern string) bool {
	last, _ := utf8.DecodeLastRuneInString(pattern)
	nextWord := false
	if end < len(s) {
		next, _ := utf8.DecodeRuneInString(s[end:])
		nextWord = isWordRune(next)
	}
	return nextWord != isWordRune(last)
}
