package query

import (
	"github.com/blevesearch/bleve/v2"
	bq "github.com/blevesearch/bleve/v2/search/query"
)

// Compile translates n into a bleve query that matches a superset of the
// documents n matches. Phrases compile to the conjunction of their terms, so
// results of a tree for which NeedsVerification is true must be re-checked
// with a Matcher.
func Compile(n Node) bq.Query {
	return compileSuperset(n)
}

// compileSuperset never drops a document n matches.
func compileSuperset(n Node) bq.Query {
	switch v := n.(type) {
	case Term:
		return termQuery(v.Field, v.Value)
	case Phrase:
		if len(v.Terms) == 1 {
			return termQuery(v.Field, v.Terms[0])
		}
		conj := make([]bq.Query, len(v.Terms))
		for i, t := range v.Terms {
			conj[i] = termQuery(v.Field, t)
		}
		return bleve.NewConjunctionQuery(conj...)
	case Fuzzy:
		q := bleve.NewFuzzyQuery(v.Term)
		q.SetField(v.Field)
		q.SetFuzziness(min(v.Distance, maxBleveFuzziness))
		q.SetPrefix(v.Prefix)
		return q
	case Range:
		inclusive := true
		lo, hi := v.Min, v.Max
		q := bleve.NewNumericRangeInclusiveQuery(&lo, &hi, &inclusive, &inclusive)
		q.SetField(v.Field)
		return q
	case Bool:
		return compileBool(v, compileSuperset, compileSubset)
	case MatchNone:
		return bleve.NewMatchNoneQuery()
	default:
		return bleve.NewMatchAllQuery()
	}
}

// compileSubset never returns a document n does not match; nil means no
// such query exists and the caller must treat it as matching nothing.
// It is used under MUST_NOT, where a superset would exclude too much.
func compileSubset(n Node) bq.Query {
	switch v := n.(type) {
	case Phrase:
		if len(v.Terms) == 1 {
			return termQuery(v.Field, v.Terms[0])
		}
		return nil
	case Bool:
		for _, c := range v.Must {
			if compileSubset(c) == nil {
				return nil
			}
		}
		if len(v.Must) == 0 && len(v.Should) > 0 {
			found := false
			for _, c := range v.Should {
				if compileSubset(c) != nil {
					found = true
					break
				}
			}
			if !found {
				return nil
			}
		}
		return compileBool(v, compileSubset, compileSuperset)
	default:
		return compileSuperset(n)
	}
}

// compileBool builds a boolean query. Positive clauses use pos, negated
// clauses use neg; nil results are dropped.
func compileBool(b Bool, pos, neg func(Node) bq.Query) bq.Query {
	var must, should, mustNot []bq.Query
	for _, c := range b.Must {
		if q := pos(c); q != nil {
			must = append(must, q)
		}
	}
	for _, c := range b.Should {
		if q := pos(c); q != nil {
			should = append(should, q)
		}
	}
	for _, c := range b.MustNot {
		if q := neg(c); q != nil {
			mustNot = append(mustNot, q)
		}
	}

	if len(must) == 0 && len(should) == 0 {
		// bleve needs a positive clause to negate against
		must = append(must, bleve.NewMatchAllQuery())
	}

	q := bq.NewBooleanQuery(must, should, mustNot)
	if len(should) > 0 && len(must) == 0 {
		q.SetMinShould(1)
	}
	return q
}

func termQuery(field, value string) bq.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}
