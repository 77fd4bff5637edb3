package query

import (
	"math"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2/search"

	"github.com/Aman-CERP/litsearch/internal/analysis"
)

// Values returns the stored values of a field.
type Values func(field string) []string

// Matcher evaluates trees against stored field values, re-analyzing them
// with the registry so matching uses the same terms the index holds.
type Matcher struct {
	registry *analysis.Registry
}

// NewMatcher creates a Matcher.
func NewMatcher(registry *analysis.Registry) *Matcher {
	return &Matcher{registry: registry}
}

// Match reports whether a document with the given stored values matches n.
func (m *Matcher) Match(n Node, values Values) bool {
	d := &docView{registry: m.registry, values: values, tokens: map[string][][]analysis.Token{}}
	return d.match(n)
}

// docView caches the analyzed values of one document.
type docView struct {
	registry *analysis.Registry
	values   Values
	tokens   map[string][][]analysis.Token
}

func (d *docView) analyzed(field string) [][]analysis.Token {
	if t, ok := d.tokens[field]; ok {
		return t
	}
	vals := d.values(field)
	out := make([][]analysis.Token, len(vals))
	for i, v := range vals {
		out[i] = d.registry.Analyze(field, v)
	}
	d.tokens[field] = out
	return out
}

func (d *docView) match(n Node) bool {
	switch v := n.(type) {
	case Term:
		return d.anyToken(v.Field, func(t string) bool { return t == v.Value })
	case Phrase:
		for _, tokens := range d.analyzed(v.Field) {
			if PhraseMatches(tokens, v.Terms, v.Offsets, v.Slop) {
				return true
			}
		}
		return false
	case Fuzzy:
		return d.anyToken(v.Field, func(t string) bool { return fuzzyMatches(t, v.Term, v.Distance, v.Prefix) })
	case Range:
		for _, s := range d.values(v.Field) {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err == nil && f >= v.Min && f <= v.Max {
				return true
			}
		}
		return false
	case Bool:
		for _, c := range v.Must {
			if !d.match(c) {
				return false
			}
		}
		for _, c := range v.MustNot {
			if d.match(c) {
				return false
			}
		}
		if len(v.Must) == 0 && len(v.Should) > 0 {
			for _, c := range v.Should {
				if d.match(c) {
					return true
				}
			}
			return false
		}
		return true
	case MatchAll:
		return true
	default:
		return false
	}
}

func (d *docView) anyToken(field string, pred func(string) bool) bool {
	for _, tokens := range d.analyzed(field) {
		for _, t := range tokens {
			if pred(t.Term) {
				return true
			}
		}
	}
	return false
}

func fuzzyMatches(candidate, term string, distance, prefix int) bool {
	if prefix > 0 {
		p := []rune(term)
		if len(p) > prefix {
			p = p[:prefix]
		}
		if !strings.HasPrefix(candidate, string(p)) {
			return false
		}
	}
	return search.LevenshteinDistance(candidate, term) <= distance
}

// PhraseMatches reports whether terms occur in order in tokens with a total
// displacement from offsets of at most slop. The displacement of a match at
// positions p0 < p1 < ... is the sum over i of |(p_i - p_{i-1}) - (o_i - o_{i-1})|.
func PhraseMatches(tokens []analysis.Token, terms []string, offsets []int, slop int) bool {
	if len(terms) == 0 {
		return false
	}
	if len(offsets) != len(terms) {
		offsets = make([]int, len(terms))
		for i := range offsets {
			offsets[i] = i
		}
	}

	positions := make([][]int, len(terms))
	for i, term := range terms {
		for _, t := range tokens {
			if t.Term == term {
				positions[i] = append(positions[i], t.Position)
			}
		}
		if len(positions[i]) == 0 {
			return false
		}
	}

	// cost[j] is the least displacement of a partial match ending at
	// positions[i][j].
	cost := make([]int, len(positions[0]))
	for i := 1; i < len(terms); i++ {
		want := offsets[i] - offsets[i-1]
		next := make([]int, len(positions[i]))
		for j, p := range positions[i] {
			best := math.MaxInt
			for k, q := range positions[i-1] {
				if q >= p || cost[k] == math.MaxInt {
					continue
				}
				c := cost[k] + abs((p-q)-want)
				if c < best {
					best = c
				}
			}
			next[j] = best
		}
		cost = next
	}

	for _, c := range cost {
		if c <= slop {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
