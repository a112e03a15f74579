package scoring

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"dhankavach/internal/domain/services/extract"
)

// Language of a rule table
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// Rule maps keywords and patterns onto one weighted signal
type Rule struct {
	ID       string
	Label    string // signal label shared across languages
	Category string
	Language Language
	Keywords []string // case-insensitive phrases; ASCII phrases match on word boundaries
	Patterns []string // RE2, compiled case-insensitive
	Weight   int
	// Memorable phrases are kept in the profile as KEYWORD entities when the
	// analysis is flagged
	Memorable bool
}

// Match is one rule that fired against an input
type Match struct {
	RuleID    string
	Label     string
	Category  string
	Language  Language
	Weight    int
	Phrases   []string
	Memorable bool
}

// RuleTable evaluates a fixed list of rules. It is immutable after construction
// and safe for concurrent use.
type RuleTable struct {
	rules      []Rule
	regexCache map[string]*regexp.Regexp
}

// NewRuleTable compiles the rules' patterns and normalizes their keywords
func NewRuleTable(rules []Rule) (*RuleTable, error) {
	t := &RuleTable{
		rules:      make([]Rule, 0, len(rules)),
		regexCache: make(map[string]*regexp.Regexp),
	}
	for _, r := range rules {
		if r.Label == "" {
			return nil, fmt.Errorf("rule %s has no label", r.ID)
		}
		keywords := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			keywords = append(keywords, extract.FoldText(k))
		}
		r.Keywords = keywords

		for _, p := range r.Patterns {
			if _, ok := t.regexCache[p]; ok {
				continue
			}
			compiled, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("rule %s: invalid pattern %q: %w", r.ID, p, err)
			}
			t.regexCache[p] = compiled
		}
		t.rules = append(t.rules, r)
	}
	return t, nil
}

func mustRuleTable(rules ...[]Rule) *RuleTable {
	var all []Rule
	for _, r := range rules {
		all = append(all, r...)
	}
	t, err := NewRuleTable(all)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of rules in the table
func (t *RuleTable) Len() int {
	return len(t.rules)
}

// Match returns the rules that fire against content, in table order
func (t *RuleTable) Match(content string) []Match {
	folded := extract.FoldText(content)

	var matches []Match
	for _, rule := range t.rules {
		var phrases []string

		for _, k := range rule.Keywords {
			if extract.ContainsPhrase(folded, k) {
				phrases = append(phrases, k)
			}
		}

		for _, p := range rule.Patterns {
			for _, found := range t.regexCache[p].FindAllString(folded, -1) {
				if phrase := trimPhrase(found); phrase != "" {
					phrases = append(phrases, phrase)
				}
			}
		}

		if len(phrases) > 0 {
			matches = append(matches, Match{
				RuleID:    rule.ID,
				Label:     rule.Label,
				Category:  rule.Category,
				Language:  rule.Language,
				Weight:    rule.Weight,
				Phrases:   dedupe(phrases),
				Memorable: rule.Memorable,
			})
		}
	}
	return matches
}

// mergeByLabel folds matches from parallel language tables into one per label.
// The highest weight wins and phrases are unioned, first appearance order kept.
func mergeByLabel(matches []Match) []Match {
	index := make(map[string]int, len(matches))
	var merged []Match
	for _, m := range matches {
		i, ok := index[m.Label]
		if !ok {
			index[m.Label] = len(merged)
			m.Phrases = append([]string(nil), m.Phrases...)
			merged = append(merged, m)
			continue
		}
		cur := &merged[i]
		cur.Weight = max(cur.Weight, m.Weight)
		cur.Phrases = dedupe(append(cur.Phrases, m.Phrases...))
		cur.Memorable = cur.Memorable || m.Memorable
	}
	return merged
}

func trimPhrase(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '%' && r != '₹'
	})
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
