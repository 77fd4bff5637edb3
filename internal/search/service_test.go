package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	"github.com/Aman-CERP/litsearch/internal/document"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
	"github.com/Aman-CERP/litsearch/internal/query"
	"github.com/Aman-CERP/litsearch/internal/store"
)

type fixture struct {
	gateway *store.Gateway
	service *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := analysis.MustRegistry()
	g, err := store.New(reg, store.Options{BasePath: t.TempDir(), LockTimeout: time.Second})
	require.NoError(t, err)
	svc := NewService(g, query.NewBuilder(reg, query.DefaultSettings()), Options{})
	return &fixture{gateway: g, service: svc}
}

func (f *fixture) add(t *testing.T, items ...catalog.Item) {
	t.Helper()
	for _, item := range items {
		doc, err := document.Map(item)
		require.NoError(t, err)
		res := f.gateway.Add(context.Background(), item.Kind(), doc)
		require.True(t, res.OK(), "%v", res.Err)
	}
}

func poem(id int64, title, last string, year int, lines ...string) *catalog.Poem {
	return &catalog.Poem{
		Common: catalog.Common{
			ID: id, Title: title, PublicationYear: year,
			Author: catalog.Author{FirstName: "John", LastName: last},
		},
		Lines: lines,
	}
}

func ids(results []Result) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

func TestService_Search_PhraseSlop(t *testing.T) {
	// Given: passages with one and with two intervening words
	f := newFixture(t)
	f.add(t,
		poem(1, "One", "Donne", 0, "the quick brown fox"),
		poem(2, "Two", "Donne", 0, "the quick brown lazy fox"),
		poem(3, "Three", "Donne", 0, "the fox was quick"),
	)

	// When: searching for the phrase with the default slop of one
	results := f.service.Search(context.Background(), &query.Request{Text: "the quick fox", SearchPoems: true})

	// Then: only the passage within the slop matches, highlighted
	require.Equal(t, []string{"1"}, ids(results))
	assert.Contains(t, results[0].Context, "<span class='highlight'>quick</span>")
	assert.Equal(t, catalog.KindPoem, results[0].Namespace)
}

func TestService_Search_YearTolerance(t *testing.T) {
	f := newFixture(t)
	f.add(t,
		poem(1, "A", "Donne", 1615),
		poem(2, "B", "Donne", 1580),
		poem(3, "C", "Donne", 1570),
		poem(4, "D", "Donne", 1625),
	)

	results := f.service.Search(context.Background(), &query.Request{PublicationYear: 1600, SearchPoems: true})

	assert.ElementsMatch(t, []string{"1", "2"}, ids(results))
}

func TestService_SimilarExists(t *testing.T) {
	// Given: "The Flea" by Donne
	f := newFixture(t)
	f.add(t, poem(1, "The Flea", "Donne", 1633, "Mark but this flea"))
	ctx := context.Background()

	// Then: the guard fires only for the matching author
	assert.True(t, f.service.SimilarExists(ctx, "The Flea", "Donne"))
	assert.False(t, f.service.SimilarExists(ctx, "The Flea", "Herbert"))
	assert.False(t, f.service.SimilarExists(ctx, "The Sun Rising", "Donne"))
	assert.False(t, f.service.SimilarExists(ctx, "", "Donne"))
}

func TestService_Execute_ErrorMarker(t *testing.T) {
	// Given: a readable POEM namespace and a SECTION namespace that fails to open
	f := newFixture(t)
	f.add(t, poem(1, "The Flea", "Donne", 0, "mark but this flea"))
	f.gateway.SetFailureInjector(func(op store.Op, ns catalog.Kind) error {
		if op == store.OpRead && ns == catalog.KindSection {
			return errors.New("permission denied")
		}
		return nil
	})

	// When: searching both
	tree := f.service.Builder().Field("flea", analysis.FieldText)
	results := f.service.Execute(context.Background(), tree,
		[]catalog.Kind{catalog.KindPoem, catalog.KindSection}, 0)

	// Then: the poem is returned and the section slot holds a marker
	require.Len(t, results, 2)
	assert.Equal(t, "1", results[0].ID)
	assert.True(t, results[1].IsError())
	assert.Equal(t, catalog.KindSection, results[1].Namespace)
	assert.Equal(t, "search unavailable for SECTION", results[1].Error)
	assert.Equal(t, lserrors.ErrCodeReaderOpen, results[1].Code)
	assert.NotContains(t, results[1].Error, "permission denied")
}

func TestService_Execute_ConcatenatesInNamespaceOrder(t *testing.T) {
	f := newFixture(t)
	f.add(t,
		poem(1, "The Flea", "Donne", 0, "flea"),
		&catalog.Section{Common: catalog.Common{ID: 9, Title: "On Fleas"}, Text: "a flea a flea a flea"},
	)
	tree := f.service.Builder().Field("flea", analysis.FieldText)

	results := f.service.Execute(context.Background(), tree,
		[]catalog.Kind{catalog.KindSection, catalog.KindPoem}, 0)

	require.Len(t, results, 2)
	assert.Equal(t, catalog.KindSection, results[0].Namespace)
	assert.Equal(t, catalog.KindPoem, results[1].Namespace)
}

func TestService_Execute_CapsPerNamespace(t *testing.T) {
	f := newFixture(t)
	for i := int64(1); i <= 5; i++ {
		f.add(t, poem(i, "P", "Donne", 0, "flea"))
	}
	tree := f.service.Builder().Field("flea", analysis.FieldText)

	results := f.service.Execute(context.Background(), tree, []catalog.Kind{catalog.KindPoem}, 3)

	assert.Len(t, results, 3)
}

func TestService_AnalyzerSymmetry(t *testing.T) {
	// Given: a poem indexed with inflected text
	f := newFixture(t)
	value := "Busy old fool, unruly Sun"
	f.add(t, poem(1, "The Sun Rising", "Donne", 0, value))

	// Then: every token the text analyzer derives from the value retrieves it
	for _, tok := range f.service.Builder().Registry().Analyze(analysis.FieldText, value) {
		tree := query.Term{Field: analysis.FieldText, Value: tok.Term}
		results := f.service.Execute(context.Background(), tree, []catalog.Kind{catalog.KindPoem}, 0)
		assert.Equal(t, []string{"1"}, ids(results), tok.Term)
	}
}

func TestService_BasicSearch(t *testing.T) {
	f := newFixture(t)
	f.add(t,
		poem(1, "The Flea", "Donne", 0, "mark but this flea"),
		&catalog.DialogueLine{ID: 5, PlayID: 2, PlayTitle: "Hamlet", Body: []string{"Donne is not here"}},
		&catalog.Author{ID: 7, LastName: "Donne"},
	)

	results := f.service.BasicSearch(context.Background(), "Donne")

	// authors are not part of basic search
	assert.Equal(t, []string{"1", "5"}, ids(results))
	assert.Empty(t, f.service.BasicSearch(context.Background(), ""))
}

func TestService_SearchAuthor(t *testing.T) {
	f := newFixture(t)
	f.add(t,
		&catalog.Author{ID: 1, FirstName: "John", LastName: "Donne"},
		&catalog.Author{ID: 2, FirstName: "George", LastName: "Herbert"},
		&catalog.Author{ID: 3, FirstName: "Walter", LastName: "de la Mare"},
	)
	ctx := context.Background()

	assert.Equal(t, []string{"1"}, ids(f.service.SearchAuthor(ctx, "John", "Donne")))
	assert.Equal(t, []string{"3"}, ids(f.service.SearchAuthor(ctx, "", "de la Mare")))
	assert.Empty(t, f.service.SearchAuthor(ctx, "", ""))
}

func TestService_Search_MalformedReturnsEmpty(t *testing.T) {
	f := newFixture(t)
	f.add(t, poem(1, "The Flea", "Donne", 0, "flea"))

	results := f.service.Search(context.Background(), &query.Request{
		Clauses: []query.Clause{{Field: analysis.FieldText, Operator: "regex", Value: "fl.*"}},
	})

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestService_Search_Clauses(t *testing.T) {
	f := newFixture(t)
	f.add(t,
		poem(1, "The Flea", "Donne", 1633, "mark but this flea"),
		poem(2, "Easter Wings", "Herbert", 1633, "Lord, who createdst man"),
	)

	results := f.service.Search(context.Background(), &query.Request{
		Namespaces: []catalog.Kind{catalog.KindPoem},
		Clauses: []query.Clause{
			{Field: analysis.FieldPublicationYear, Operator: query.OpRange, Value: "1640"},
			{Field: analysis.FieldLastName, Operator: query.OpFuzzy, Value: "Herbet", Join: query.JoinMustNot},
		},
	})

	assert.Equal(t, []string{"1"}, ids(results))
}

func TestService_EmptyNamespace(t *testing.T) {
	f := newFixture(t)

	results := f.service.Search(context.Background(), &query.Request{Text: "anything"})

	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestEncode(t *testing.T) {
	empty, err := Encode(nil)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(empty))

	marker, err := Encode([]Result{ErrorMarker(catalog.KindPoem, errors.New("boom"))})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"namespace":"POEM","error":"search unavailable for POEM","code":"ERR_503_SEARCH_FAILED"}]`, string(marker))

	hit, err := Encode([]Result{{ID: "1", Title: "The Flea", Context: "x", Namespace: catalog.KindPoem}})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1","title":"The Flea","context":"x","namespace":"POEM"}]`, string(hit))
}

func TestService_Execute_NoContextWithoutTextMatch(t *testing.T) {
	// Given: a poem whose title matches but whose text does not
	f := newFixture(t)
	f.add(t, poem(1, "Slow Dog", "Donne", 0, "slow dog", "nothing here"))
	f.add(t, poem(2, "Slow Dog", "Donne", 0, "nothing here"))

	// When: searching the title only
	tree := f.service.Builder().Field("slow dog", analysis.FieldTitle)
	results := f.service.Execute(context.Background(), tree, []catalog.Kind{catalog.KindPoem}, 0)

	// Then: neither hit carries a context fragment
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Empty(t, r.Context, r.ID)
	}
}
