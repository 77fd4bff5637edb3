package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

func newTestBuilder() *Builder {
	return NewBuilder(analysis.MustRegistry(), DefaultSettings())
}

func TestBuilder_Field(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		name  string
		text  string
		field string
		want  Node
	}{
		{"single token is a term", "Donne", analysis.FieldLastName, Term{Field: analysis.FieldLastName, Value: "donne"}},
		{"stop words only is nothing", "the of", analysis.FieldText, nil},
		{
			"several tokens are a phrase keeping stop word gaps",
			"the quick fox", analysis.FieldText,
			Phrase{Field: analysis.FieldText, Terms: []string{"quick", "fox"}, Offsets: []int{0, 1}, Slop: 1},
		},
		{
			"names keep stop words",
			"The Flea", analysis.FieldTitle,
			Phrase{Field: analysis.FieldTitle, Terms: []string{"the", "flea"}, Offsets: []int{0, 1}, Slop: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Field(tt.text, tt.field))
		})
	}
}

func TestBuilder_Year_AppliesTolerance(t *testing.T) {
	b := newTestBuilder()

	assert.Equal(t, Range{Field: analysis.FieldPublicationYear, Min: 1580, Max: 1620}, b.Year(1600))
}

func TestBuilder_ClampsEditDistance(t *testing.T) {
	b := NewBuilder(analysis.MustRegistry(), Settings{Slop: -1, EditDistance: 5})

	assert.Equal(t, 2, b.Settings().EditDistance)
	assert.Equal(t, 0, b.Settings().Slop)
}

func TestBuilder_FromClauses(t *testing.T) {
	b := newTestBuilder()

	// Given: one clause of each join
	tree, err := b.FromClauses([]Clause{
		{Field: analysis.FieldLastName, Operator: OpTerm, Value: "Donne"},
		{Field: analysis.FieldTitle, Operator: OpFuzzy, Value: "flee", Join: JoinShould},
		{Field: analysis.FieldPublicationYear, Operator: OpRange, Value: "1600", Join: JoinMustNot},
		{Field: analysis.FieldText, Operator: OpPhrase, Value: "   "},
	})

	// Then: the empty clause is skipped and the rest are grouped by join
	require.NoError(t, err)
	assert.Equal(t, Bool{
		Must:    []Node{Term{Field: analysis.FieldLastName, Value: "donne"}},
		Should:  []Node{Fuzzy{Field: analysis.FieldTitle, Term: "flee", Distance: 2}},
		MustNot: []Node{Range{Field: analysis.FieldPublicationYear, Min: 1580, Max: 1620}},
	}, tree)
}

func TestBuilder_FromClauses_SingleMustUnwrapped(t *testing.T) {
	b := newTestBuilder()

	tree, err := b.FromClauses([]Clause{{Field: analysis.FieldPublicationYear, Operator: "TERM", Value: "1633"}})

	require.NoError(t, err)
	assert.Equal(t, Range{Field: analysis.FieldPublicationYear, Min: 1633, Max: 1633}, tree)
}

func TestBuilder_FromClauses_Invalid(t *testing.T) {
	b := newTestBuilder()

	tests := []struct {
		name   string
		clause Clause
	}{
		{"unknown operator", Clause{Field: analysis.FieldText, Operator: "regex", Value: "x"}},
		{"missing field", Clause{Operator: OpTerm, Value: "x"}},
		{"range on text", Clause{Field: analysis.FieldTitle, Operator: OpRange, Value: "1600"}},
		{"range not a number", Clause{Field: analysis.FieldPublicationYear, Operator: OpRange, Value: "c. 1600"}},
		{"phrase on number", Clause{Field: analysis.FieldPublicationYear, Operator: OpPhrase, Value: "1600"}},
		{"unknown join", Clause{Field: analysis.FieldText, Operator: OpTerm, Value: "x", Join: "MAYBE"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.FromClauses([]Clause{tt.clause})
			assert.ErrorIs(t, err, lserrors.ErrInvalidQuery)
		})
	}
}

func TestBuilder_FromClauses_Empty(t *testing.T) {
	b := newTestBuilder()

	_, err := b.FromClauses([]Clause{{Field: analysis.FieldText, Operator: OpTerm, Value: ""}})

	assert.ErrorIs(t, err, lserrors.ErrQueryEmpty)
}

func TestBuilder_ForKind(t *testing.T) {
	b := newTestBuilder()
	req := &Request{Title: "Flea", PublicationYear: 1633, Author: &AuthorCriteria{LastName: "Donne"}}

	// Then: poems use title, year and author, wrapped in the category filter
	assert.Equal(t, Bool{Must: []Node{
		Term{Field: analysis.FieldCategory, Value: "poem"},
		Fuzzy{Field: analysis.FieldTitle, Term: "flea", Distance: 2},
		Range{Field: analysis.FieldPublicationYear, Min: 1613, Max: 1653},
		Fuzzy{Field: analysis.FieldLastName, Term: "donne", Distance: 2},
	}}, b.ForKind(catalog.KindPoem, req))

	// and dialogue has no criteria for this request
	assert.Equal(t, MatchNone{}, b.ForKind(catalog.KindDialogue, req))
	assert.Equal(t, MatchNone{}, b.ForKind(catalog.KindAuthor, req))
}

func TestBuilder_Build(t *testing.T) {
	b := newTestBuilder()

	t.Run("composite ors the kinds with criteria", func(t *testing.T) {
		req := &Request{Text: "mark this flea", SearchPoems: true, SearchDialog: true}

		tree, targets, err := b.Build(req)

		require.NoError(t, err)
		assert.Equal(t, []catalog.Kind{catalog.KindDialogue, catalog.KindPoem}, targets)
		composite, ok := tree.(Bool)
		require.True(t, ok)
		assert.Len(t, composite.Should, 2)
		assert.True(t, NeedsVerification(tree))
	})

	t.Run("clauses and criteria are both required", func(t *testing.T) {
		req := &Request{
			Clauses:    []Clause{{Field: analysis.FieldPeriod, Operator: OpTerm, Value: "Renaissance"}},
			Period:     "Renaissance",
			Namespaces: []catalog.Kind{catalog.KindPoem},
		}

		tree, targets, err := b.Build(req)

		require.NoError(t, err)
		assert.Equal(t, []catalog.Kind{catalog.KindPoem}, targets)
		both, ok := tree.(Bool)
		require.True(t, ok)
		assert.Len(t, both.Must, 2)
	})

	t.Run("nothing to search", func(t *testing.T) {
		_, _, err := b.Build(&Request{SearchPoems: true})
		assert.ErrorIs(t, err, lserrors.ErrQueryEmpty)
	})
}

func TestRequest_Targets(t *testing.T) {
	assert.Equal(t, SearchableKinds(), (&Request{}).Targets())
	assert.Equal(t,
		[]catalog.Kind{catalog.KindSection, catalog.KindShortStory, catalog.KindAuthor},
		(&Request{SearchBooks: true, Namespaces: []catalog.Kind{catalog.KindAuthor}}).Targets())
}

func TestBuilder_SimilarTitle(t *testing.T) {
	b := newTestBuilder()

	assert.Equal(t, Bool{Must: []Node{
		Term{Field: analysis.FieldLastName, Value: "donne"},
		Phrase{Field: analysis.FieldTitle, Terms: []string{"the", "flea"}, Offsets: []int{0, 1}, Slop: 1},
	}}, b.SimilarTitle("The Flea", "Donne"))
	assert.Equal(t, MatchNone{}, b.SimilarTitle("The Flea", ""))
}

func TestBuilder_Author(t *testing.T) {
	b := newTestBuilder()

	tree := b.Author("John", "Donne")
	assert.Equal(t, Bool{Must: []Node{
		Term{Field: analysis.FieldCategory, Value: "author"},
		Term{Field: analysis.FieldFirstName, Value: "john"},
		Term{Field: analysis.FieldLastName, Value: "donne"},
	}}, tree)
	assert.Equal(t, MatchNone{}, b.Author("", ""))
}

func TestBuilder_Basic(t *testing.T) {
	b := newTestBuilder()

	tree, ok := b.Basic("donne").(Bool)

	require.True(t, ok)
	assert.Len(t, tree.Should, len(BasicFields()))
	assert.Equal(t, MatchNone{}, b.Basic("  "))
}

func TestNode_String(t *testing.T) {
	tree := Bool{
		Must:    []Node{Term{Field: "a", Value: "x"}},
		MustNot: []Node{Range{Field: "y", Min: 1, Max: 2}},
	}
	assert.Equal(t, "(+a:x -y:[1 TO 2])", tree.String())
}

func TestFields(t *testing.T) {
	tree := Bool{Must: []Node{
		Term{Field: "a"}, Phrase{Field: "b"}, Bool{Should: []Node{Fuzzy{Field: "a"}, Range{Field: "c"}}},
	}}
	assert.Equal(t, []string{"a", "b", "c"}, Fields(tree))
}
