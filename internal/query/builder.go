package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

// maxBleveFuzziness is the largest edit distance bleve's fuzzy query accepts.
const maxBleveFuzziness = 2

// Settings are the global matching constants, fixed at boot.
type Settings struct {
	Slop          int
	EditDistance  int
	PrefixLength  int
	YearTolerance int
}

// DefaultSettings returns the stock constants.
func DefaultSettings() Settings {
	return Settings{
		Slop:          1,
		EditDistance:  2,
		PrefixLength:  0,
		YearTolerance: 20,
	}
}

// Strategy returns the MUST clauses one kind contributes for a request.
// An empty result means the request has no criteria for that kind.
type Strategy func(b *Builder, r *Request) []Node

// Builder turns requests into query trees. It is immutable and safe for
// concurrent use.
type Builder struct {
	registry   *analysis.Registry
	settings   Settings
	strategies map[catalog.Kind]Strategy
}

// NewBuilder creates a Builder. Edit distances above what the index can
// serve are clamped.
func NewBuilder(registry *analysis.Registry, settings Settings) *Builder {
	if settings.EditDistance > maxBleveFuzziness {
		settings.EditDistance = maxBleveFuzziness
	}
	if settings.EditDistance < 0 {
		settings.EditDistance = 0
	}
	if settings.Slop < 0 {
		settings.Slop = 0
	}
	return &Builder{
		registry:   registry,
		settings:   settings,
		strategies: defaultStrategies(),
	}
}

// Settings returns the frozen constants.
func (b *Builder) Settings() Settings {
	return b.settings
}

// Registry returns the analyzer registry queries are analyzed with.
func (b *Builder) Registry() *analysis.Registry {
	return b.registry
}

// Field parses free text for one field: a single token becomes a term query,
// several become a phrase. Text that analyzes to nothing yields nil.
func (b *Builder) Field(text, field string) Node {
	tokens := b.registry.Analyze(field, text)
	switch len(tokens) {
	case 0:
		return nil
	case 1:
		return Term{Field: field, Value: tokens[0].Term}
	}

	p := Phrase{Field: field, Slop: b.settings.Slop}
	base := tokens[0].Position
	for _, t := range tokens {
		p.Terms = append(p.Terms, t.Term)
		p.Offsets = append(p.Offsets, t.Position-base)
	}
	return p
}

// Phrase is Field for prose: the shared phrase fragment.
func (b *Builder) Phrase(field, text string) Node {
	return b.Field(text, field)
}

// Exact analyzes value and requires every token to match exactly.
func (b *Builder) Exact(field, value string) Node {
	terms := b.registry.Terms(field, value)
	if len(terms) == 0 {
		return nil
	}
	nodes := make([]Node, len(terms))
	for i, t := range terms {
		nodes[i] = Term{Field: field, Value: t}
	}
	return and(nodes)
}

// Fuzzy requires every token of value to match within the edit distance.
func (b *Builder) Fuzzy(field, value string) Node {
	terms := b.registry.Terms(field, value)
	if len(terms) == 0 {
		return nil
	}
	nodes := make([]Node, len(terms))
	for i, t := range terms {
		nodes[i] = Fuzzy{
			Field:    field,
			Term:     t,
			Distance: b.settings.EditDistance,
			Prefix:   b.settings.PrefixLength,
		}
	}
	return and(nodes)
}

// Year matches year ± the configured tolerance, inclusive.
func (b *Builder) Year(year int) Node {
	tol := float64(b.settings.YearTolerance)
	return Range{
		Field: analysis.FieldPublicationYear,
		Min:   float64(year) - tol,
		Max:   float64(year) + tol,
	}
}

// AuthorFilter returns fuzzy MUST clauses on the author's first and last
// name, skipping empty parts.
func (b *Builder) AuthorFilter(a *AuthorCriteria) []Node {
	if a == nil {
		return nil
	}
	var out []Node
	out = appendNode(out, b.Fuzzy(analysis.FieldFirstName, a.FirstName))
	out = appendNode(out, b.Fuzzy(analysis.FieldLastName, a.LastName))
	return out
}

// ForKind builds the tree one kind's strategy produces for r, restricted to
// that kind's category. A kind with no criteria yields MatchNone.
func (b *Builder) ForKind(kind catalog.Kind, r *Request) Node {
	strategy, ok := b.strategies[kind]
	if !ok {
		return MatchNone{}
	}
	clauses := strategy(b, r)
	if len(clauses) == 0 {
		return MatchNone{}
	}
	return and(append([]Node{b.category(kind)}, clauses...))
}

// Composite ORs the kind trees of every target. The same tree is run
// against each target namespace.
func (b *Builder) Composite(r *Request, targets []catalog.Kind) Node {
	trees := make([]Node, 0, len(targets))
	for _, k := range targets {
		trees = append(trees, b.ForKind(k, r))
	}
	return or(trees)
}

// Build turns a request into a tree and its target namespaces. A request
// with neither clauses nor criteria fails with ErrQueryEmpty; a malformed
// clause fails with ErrInvalidQuery.
func (b *Builder) Build(r *Request) (Node, []catalog.Kind, error) {
	if r == nil {
		return nil, nil, lserrors.ErrQueryEmpty
	}
	targets := r.Targets()

	var parts []Node
	if len(r.Clauses) > 0 {
		tree, err := b.FromClauses(r.Clauses)
		if err != nil {
			return nil, nil, err
		}
		parts = append(parts, tree)
	}
	if r.HasCriteria() {
		parts = append(parts, b.Composite(r, targets))
	}
	if len(parts) == 0 {
		return nil, nil, lserrors.ErrQueryEmpty
	}
	return and(parts), targets, nil
}

// FromClauses builds a tree from structured clauses. Clauses with an empty
// value are skipped; if none remain the result is ErrQueryEmpty.
func (b *Builder) FromClauses(clauses []Clause) (Node, error) {
	var out Bool
	for i, c := range clauses {
		if strings.TrimSpace(c.Value) == "" {
			continue
		}
		if c.Field == "" {
			return nil, lserrors.InvalidQuery(fmt.Sprintf("clause %d has no field", i))
		}

		n, err := b.clause(c)
		if err != nil {
			return nil, err
		}
		if n == nil {
			continue
		}

		switch Join(strings.ToUpper(string(c.Join))) {
		case "", JoinMust:
			out.Must = append(out.Must, n)
		case JoinShould:
			out.Should = append(out.Should, n)
		case JoinMustNot:
			out.MustNot = append(out.MustNot, n)
		default:
			return nil, lserrors.InvalidQuery(fmt.Sprintf("clause %d has unknown join %q", i, c.Join))
		}
	}

	if len(out.Must)+len(out.Should)+len(out.MustNot) == 0 {
		return nil, lserrors.ErrQueryEmpty
	}
	if len(out.Must) == 1 && len(out.Should) == 0 && len(out.MustNot) == 0 {
		return out.Must[0], nil
	}
	return out, nil
}

func (b *Builder) clause(c Clause) (Node, error) {
	numeric := b.registry.IsNumeric(c.Field)

	switch Operator(strings.ToLower(string(c.Operator))) {
	case OpTerm:
		if numeric {
			v, err := parseNumber(c)
			if err != nil {
				return nil, err
			}
			return Range{Field: c.Field, Min: v, Max: v}, nil
		}
		return b.Exact(c.Field, c.Value), nil
	case OpPhrase:
		if numeric {
			return nil, lserrors.InvalidQuery(fmt.Sprintf("phrase on numeric field %s", c.Field))
		}
		return b.Field(c.Value, c.Field), nil
	case OpFuzzy:
		if numeric {
			return nil, lserrors.InvalidQuery(fmt.Sprintf("fuzzy on numeric field %s", c.Field))
		}
		return b.Fuzzy(c.Field, c.Value), nil
	case OpRange:
		if !numeric {
			return nil, lserrors.InvalidQuery(fmt.Sprintf("range on non-numeric field %s", c.Field))
		}
		v, err := parseNumber(c)
		if err != nil {
			return nil, err
		}
		tol := float64(b.settings.YearTolerance)
		return Range{Field: c.Field, Min: v - tol, Max: v + tol}, nil
	default:
		return nil, lserrors.InvalidQuery(fmt.Sprintf("unknown operator %q", c.Operator))
	}
}

func parseNumber(c Clause) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return 0, lserrors.InvalidQuery(fmt.Sprintf("%s value %q is not a number", c.Field, c.Value))
	}
	return v, nil
}

func (b *Builder) category(kind catalog.Kind) Node {
	return Term{Field: analysis.FieldCategory, Value: strings.ToLower(string(kind))}
}

func appendNode(nodes []Node, n Node) []Node {
	if n == nil {
		return nodes
	}
	return append(nodes, n)
}
