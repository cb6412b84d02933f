// Package match ranks candidate labels against typed input for autocomplete
// and reference retargeting.
package match

import (
	"sort"
	"unicode"

	"github.com/hbollon/go-edlib"
)

// Tier identifies which rule matched an option. Lower tiers rank first.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierExactFold
	TierPrefix
	TierPrefixFold
	TierSubstring
	TierSubstringFold
	TierFuzzy
)

var tierNames = map[Tier]string{
	TierNone:          "none",
	TierExact:         "exact",
	TierExactFold:     "exact-fold",
	TierPrefix:        "prefix",
	TierPrefixFold:    "prefix-fold",
	TierSubstring:     "substring",
	TierSubstringFold: "substring-fold",
	TierFuzzy:         "fuzzy",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// Option is a rankable candidate.
type Option struct {
	Label  string
	Detail string
}

// Match is a ranked option. Index points back into the slice passed to Rank;
// Indices are rune offsets into Label for highlighting.
type Match struct {
	Option  Option
	Index   int
	Tier    Tier
	Indices []int
	Score   float64
}

// Rank orders options against query. Exact, prefix, and substring tiers keep
// input order; the fuzzy tier is sorted by similarity. Options that match no
// tier are dropped. An empty query returns every option unranked.
func Rank(options []Option, query string) []Match {
	if query == "" {
		out := make([]Match, len(options))
		for i, opt := range options {
			out[i] = Match{Option: opt, Index: i}
		}
		return out
	}

	q := []rune(query)
	qFold := fold(q)
	buckets := make(map[Tier][]Match)
	var fuzzy []Match
	for i, opt := range options {
		label := []rune(opt.Label)
		tier, start := classify(label, q, qFold)
		if tier != TierNone {
			buckets[tier] = append(buckets[tier], Match{
				Option:  opt,
				Index:   i,
				Tier:    tier,
				Indices: span(start, len(q)),
				Score:   1,
			})
			continue
		}
		indices, ok := subsequence(fold(label), qFold)
		if !ok {
			continue
		}
		fuzzy = append(fuzzy, Match{
			Option:  opt,
			Index:   i,
			Tier:    TierFuzzy,
			Indices: indices,
			Score:   similarity(string(fold(label)), string(qFold)),
		})
	}
	sort.SliceStable(fuzzy, func(i, j int) bool { return fuzzy[i].Score > fuzzy[j].Score })

	out := make([]Match, 0, len(options))
	for t := TierExact; t < TierFuzzy; t++ {
		out = append(out, buckets[t]...)
	}
	return append(out, fuzzy...)
}

// Labels is a convenience for building options from plain strings.
func Labels(labels ...string) []Option {
	out := make([]Option, len(labels))
	for i, l := range labels {
		out[i] = Option{Label: l}
	}
	return out
}

func classify(label, q, qFold []rune) (Tier, int) {
	lFold := fold(label)
	switch {
	case equal(label, q):
		return TierExact, 0
	case equal(lFold, qFold):
		return TierExactFold, 0
	case hasPrefix(label, q):
		return TierPrefix, 0
	case hasPrefix(lFold, qFold):
		return TierPrefixFold, 0
	}
	if i := index(label, q); i >= 0 {
		return TierSubstring, i
	}
	if i := index(lFold, qFold); i >= 0 {
		return TierSubstringFold, i
	}
	return TierNone, -1
}

func similarity(a, b string) float64 {
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(score)
}

// subsequence reports the leftmost-greedy positions of q inside label.
func subsequence(label, q []rune) ([]int, bool) {
	indices := make([]int, 0, len(q))
	j := 0
	for i := 0; i < len(label) && j < len(q); i++ {
		if label[i] == q[j] {
			indices = append(indices, i)
			j++
		}
	}
	return indices, j == len(q)
}

func span(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func fold(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func equal(a, b []rune) bool {
	return len(a) == len(b) && hasPrefix(a, b)
}

func hasPrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

func index(s, sub []rune) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if hasPrefix(s[i:], sub) {
			return i
		}
	}
	return -1
}
