// Package query builds boolean query trees from search requests and
// evaluates them.
//
// A tree is built once per request from analyzed terms, compiled to a bleve
// query that selects a superset of the matching documents, and then checked
// exactly against each candidate's stored fields with Matcher.
package query

import (
	"fmt"
	"strings"
)

// Node is a query tree node. The concrete types are Term, Phrase, Fuzzy,
// Range, Bool, MatchAll and MatchNone.
type Node interface {
	node()
	String() string
}

// Term matches an analyzed term exactly.
type Term struct {
	Field string
	Value string
}

// Phrase matches Terms in order within one field value. Offsets[i] is the
// expected position of Terms[i] relative to Terms[0]; Slop is the total
// position displacement tolerated.
type Phrase struct {
	Field   string
	Terms   []string
	Offsets []int
	Slop    int
}

// Fuzzy matches any term within Distance edits of Term whose first Prefix
// characters are identical.
type Fuzzy struct {
	Field    string
	Term     string
	Distance int
	Prefix   int
}

// Range matches numeric values in [Min, Max].
type Range struct {
	Field string
	Min   float64
	Max   float64
}

// Bool composes clauses. All Must clauses and no MustNot clause must match.
// Should clauses are optional when there is a Must clause, otherwise at least
// one must match.
type Bool struct {
	Must    []Node
	Should  []Node
	MustNot []Node
}

// MatchAll matches every document.
type MatchAll struct{}

// MatchNone matches nothing.
type MatchNone struct{}

func (Term) node()      {}
func (Phrase) node()    {}
func (Fuzzy) node()     {}
func (Range) node()     {}
func (Bool) node()      {}
func (MatchAll) node()  {}
func (MatchNone) node() {}

func (t Term) String() string { return fmt.Sprintf("%s:%s", t.Field, t.Value) }

func (p Phrase) String() string {
	return fmt.Sprintf("%s:%q~%d", p.Field, strings.Join(p.Terms, " "), p.Slop)
}

func (f Fuzzy) String() string { return fmt.Sprintf("%s:%s~%d", f.Field, f.Term, f.Distance) }

func (r Range) String() string {
	return fmt.Sprintf("%s:[%g TO %g]", r.Field, r.Min, r.Max)
}

func (b Bool) String() string {
	var parts []string
	for _, n := range b.Must {
		parts = append(parts, "+"+n.String())
	}
	for _, n := range b.Should {
		parts = append(parts, n.String())
	}
	for _, n := range b.MustNot {
		parts = append(parts, "-"+n.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (MatchAll) String() string  { return "*:*" }
func (MatchNone) String() string { return "-*:*" }

// and combines clauses with MUST. No clauses yields MatchNone; one clause is
// returned as is.
func and(clauses []Node) Node {
	switch len(clauses) {
	case 0:
		return MatchNone{}
	case 1:
		return clauses[0]
	default:
		return Bool{Must: clauses}
	}
}

// or combines clauses with SHOULD, dropping MatchNone.
func or(clauses []Node) Node {
	var kept []Node
	for _, c := range clauses {
		if _, none := c.(MatchNone); none {
			continue
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return MatchNone{}
	case 1:
		return kept[0]
	default:
		return Bool{Should: kept}
	}
}

// NeedsVerification reports whether the bleve compilation of n can return
// false positives, which is the case for any multi-term phrase.
func NeedsVerification(n Node) bool {
	switch v := n.(type) {
	case Phrase:
		return len(v.Terms) > 1
	case Bool:
		for _, group := range [][]Node{v.Must, v.Should, v.MustNot} {
			for _, c := range group {
				if NeedsVerification(c) {
					return true
				}
			}
		}
	}
	return false
}

// Fields returns the distinct fields n refers to.
func Fields(n Node) []string {
	seen := map[string]bool{}
	var out []string
	var walk func(Node)
	walk = func(n Node) {
		var f string
		switch v := n.(type) {
		case Term:
			f = v.Field
		case Phrase:
			f = v.Field
		case Fuzzy:
			f = v.Field
		case Range:
			f = v.Field
		case Bool:
			for _, group := range [][]Node{v.Must, v.Should, v.MustNot} {
				for _, c := range group {
					walk(c)
				}
			}
			return
		}
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	walk(n)
	return out
}
