package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	"github.com/Aman-CERP/litsearch/internal/document"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := New(analysis.MustRegistry(), Options{
		BasePath:    t.TempDir(),
		LockTimeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	return g
}

func poemDoc(t *testing.T, id int64, title string, lines ...string) document.Document {
	t.Helper()
	doc, err := document.Map(&catalog.Poem{
		Common: catalog.Common{ID: id, Title: title, Author: catalog.Author{LastName: "Donne"}},
		Lines:  lines,
	})
	require.NoError(t, err)
	return doc
}

func searchIDs(t *testing.T, g *Gateway, ns catalog.Kind, field, term string) []string {
	t.Helper()
	var ids []string
	err := g.WithReader(context.Background(), ns, func(r *Reader) error {
		q := bleve.NewTermQuery(term)
		q.SetField(field)
		res, err := r.Search(context.Background(), bleve.NewSearchRequestOptions(q, 100, 0, false))
		if err != nil {
			return err
		}
		for _, hit := range res.Hits {
			ids = append(ids, hit.ID)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func TestGateway_AddAndCount(t *testing.T) {
	// Given: an empty gateway
	g := newTestGateway(t)
	ctx := context.Background()

	// When: adding two poems
	r1 := g.Add(ctx, catalog.KindPoem, poemDoc(t, 1, "The Flea", "Mark but this flea"))
	r2 := g.Add(ctx, catalog.KindPoem, poemDoc(t, 2, "The Sun Rising", "Busy old fool"))

	// Then: both commit and are counted
	assert.True(t, r1.OK())
	assert.True(t, r2.OK())
	n, err := g.Count(ctx, catalog.KindPoem)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
	assert.DirExists(t, g.Path(catalog.KindPoem))
}

func TestGateway_Update_IsIdempotent(t *testing.T) {
	// Given: a stored poem
	g := newTestGateway(t)
	ctx := context.Background()
	doc := poemDoc(t, 7, "The Flea", "Mark but this flea")
	require.True(t, g.Add(ctx, catalog.KindPoem, doc).OK())

	// When: updating it twice with the same document
	require.True(t, g.Update(ctx, catalog.KindPoem, doc.ID, doc).OK())
	require.True(t, g.Update(ctx, catalog.KindPoem, doc.ID, doc).OK())

	// Then: exactly one document carries that id
	n, err := g.Count(ctx, catalog.KindPoem)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, []string{"7"}, searchIDs(t, g, catalog.KindPoem, analysis.FieldID, "7"))
}

func TestGateway_Update_ReplacesWholesale(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	require.True(t, g.Add(ctx, catalog.KindPoem, poemDoc(t, 7, "The Flea", "Mark but this flea")).OK())

	updated := poemDoc(t, 7, "The Canonization", "For God's sake hold your tongue")
	require.True(t, g.Update(ctx, catalog.KindPoem, "7", updated).OK())

	assert.Empty(t, searchIDs(t, g, catalog.KindPoem, analysis.FieldTitle, "flea"))
	assert.Equal(t, []string{"7"}, searchIDs(t, g, catalog.KindPoem, analysis.FieldTitle, "canonization"))
}

func TestGateway_NamespaceIsolation(t *testing.T) {
	// Given: a document in the POEM namespace
	g := newTestGateway(t)
	ctx := context.Background()
	require.True(t, g.Add(ctx, catalog.KindPoem, poemDoc(t, 1, "The Flea", "Mark but this flea")).OK())

	// When: querying SECTION with the same field values
	ids := searchIDs(t, g, catalog.KindSection, analysis.FieldTitle, "flea")

	// Then: nothing is returned
	assert.Empty(t, ids)
	assert.Equal(t, []string{"1"}, searchIDs(t, g, catalog.KindPoem, analysis.FieldTitle, "flea"))
}

func TestGateway_DegradedWrite(t *testing.T) {
	// Given: a gateway whose add operation fails with an I/O error
	g := newTestGateway(t)
	ctx := context.Background()
	ioErr := errors.New("disk full")
	g.SetFailureInjector(func(op Op, ns catalog.Kind) error {
		if op == OpAdd {
			return ioErr
		}
		return nil
	})

	// When: adding a document
	res := g.Add(ctx, catalog.KindPoem, poemDoc(t, 1, "The Flea"))

	// Then: the write is reported degraded, not fatal, and nothing is stored
	assert.Equal(t, StatusDegraded, res.Status)
	assert.ErrorIs(t, res.Err, ioErr)
	assert.Equal(t, lserrors.ErrCodeIndexIO, lserrors.GetCode(res.Err))
	n, err := g.Count(ctx, catalog.KindPoem)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGateway_AddBulk_ReplaceAll(t *testing.T) {
	// Given: a namespace with an old document
	g := newTestGateway(t)
	ctx := context.Background()
	require.True(t, g.Add(ctx, catalog.KindPoem, poemDoc(t, 99, "Old")).OK())

	// When: bulk loading three documents with replaceAll
	docs := []document.Document{
		poemDoc(t, 1, "One"), poemDoc(t, 2, "Two"), poemDoc(t, 3, "Three"),
	}
	g.batchSize = 2
	res := g.AddBulk(ctx, catalog.KindPoem, docs, true)

	// Then: only the new documents remain
	require.True(t, res.OK(), "%v", res.Err)
	n, err := g.Count(ctx, catalog.KindPoem)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
	assert.Empty(t, searchIDs(t, g, catalog.KindPoem, analysis.FieldID, "99"))
}

func TestGateway_AddBulk_Append(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	require.True(t, g.Add(ctx, catalog.KindPoem, poemDoc(t, 99, "Old")).OK())

	require.True(t, g.AddBulk(ctx, catalog.KindPoem, []document.Document{poemDoc(t, 1, "One")}, false).OK())

	n, err := g.Count(ctx, catalog.KindPoem)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestGateway_DeleteAndClear(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	require.True(t, g.Add(ctx, catalog.KindPoem, poemDoc(t, 1, "One")).OK())
	require.True(t, g.Add(ctx, catalog.KindPoem, poemDoc(t, 2, "Two")).OK())

	require.True(t, g.Delete(ctx, catalog.KindPoem, "1").OK())
	n, err := g.Count(ctx, catalog.KindPoem)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)

	require.True(t, g.Clear(ctx, catalog.KindPoem).OK())
	assert.NoDirExists(t, g.Path(catalog.KindPoem))
	n, err = g.Count(ctx, catalog.KindPoem)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGateway_Replace_ByParent(t *testing.T) {
	// Given: two dialogue lines of play 20 and one of play 21
	g := newTestGateway(t)
	ctx := context.Background()
	line := func(id, play int64) document.Document {
		d, err := document.Map(&catalog.DialogueLine{ID: id, PlayID: play, PlayTitle: "P", Body: []string{"x"}})
		require.NoError(t, err)
		return d
	}
	require.True(t, g.AddBulk(ctx, catalog.KindDialogue,
		[]document.Document{line(1, 20), line(2, 20), line(3, 21)}, true).OK())

	// When: replacing play 20's lines with a single new one
	res := g.Replace(ctx, catalog.KindDialogue, analysis.FieldParentID, "20", []document.Document{line(4, 20)})

	// Then: play 21 is untouched and play 20 has only the new line
	require.True(t, res.OK(), "%v", res.Err)
	assert.ElementsMatch(t, []string{"4"}, searchIDs(t, g, catalog.KindDialogue, analysis.FieldParentID, "20"))
	assert.ElementsMatch(t, []string{"3"}, searchIDs(t, g, catalog.KindDialogue, analysis.FieldParentID, "21"))

	require.True(t, g.DeleteByField(ctx, catalog.KindDialogue, analysis.FieldParentID, "21").OK())
	assert.Empty(t, searchIDs(t, g, catalog.KindDialogue, analysis.FieldParentID, "21"))
}

func TestGateway_RecoversCorruptNamespace(t *testing.T) {
	// Given: a namespace directory with a broken index_meta.json
	g := newTestGateway(t)
	ctx := context.Background()
	dir := g.Path(catalog.KindPoem)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index_meta.json"), []byte("{not json"), 0644))

	// When: writing to it
	res := g.Add(ctx, catalog.KindPoem, poemDoc(t, 1, "One"))

	// Then: the namespace is rebuilt and the write commits
	require.True(t, res.OK(), "%v", res.Err)
	n, err := g.Count(ctx, catalog.KindPoem)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestGateway_Reader_EmptyNamespace(t *testing.T) {
	g := newTestGateway(t)

	r, err := g.Reader(context.Background(), catalog.KindAuthor)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	assert.True(t, r.Empty())
	res, err := r.Search(context.Background(), bleve.NewSearchRequest(bleve.NewMatchAllQuery()))
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
}

func TestGateway_Reader_InjectedFailure(t *testing.T) {
	g := newTestGateway(t)
	g.SetFailureInjector(func(op Op, _ catalog.Kind) error {
		if op == OpRead {
			return errors.New("permission denied")
		}
		return nil
	})

	_, err := g.Reader(context.Background(), catalog.KindPoem)

	require.Error(t, err)
	assert.Equal(t, lserrors.ErrCodeReaderOpen, lserrors.GetCode(err))
}

func TestGateway_Reader_CloseIsIdempotent(t *testing.T) {
	g := newTestGateway(t)
	ctx := context.Background()
	require.True(t, g.Add(ctx, catalog.KindPoem, poemDoc(t, 1, "One")).OK())

	r, err := g.Reader(ctx, catalog.KindPoem)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Search(ctx, bleve.NewSearchRequest(bleve.NewMatchAllQuery()))
	assert.Error(t, err)

	// the shared lock was released, so a writer can proceed
	assert.True(t, g.Add(ctx, catalog.KindPoem, poemDoc(t, 2, "Two")).OK())
}

func TestGateway_LockContention_Degrades(t *testing.T) {
	// Given: another holder owns the namespace lock exclusively
	g := newTestGateway(t)
	g.lockTimeout = 20 * time.Millisecond
	g.retry = lserrors.RetryConfig{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
	holder := NewNamespaceLock(g.lockPath(catalog.KindPoem))
	require.NoError(t, holder.Acquire(context.Background(), true, time.Second))
	defer func() { _ = holder.Release() }()

	// When: writing to the namespace
	res := g.Add(context.Background(), catalog.KindPoem, poemDoc(t, 1, "One"))

	// Then: the write gives up and reports a degraded result
	assert.Equal(t, StatusDegraded, res.Status)
	assert.ErrorIs(t, res.Err, lserrors.ErrLockTimeout)
}

func TestNew_RequiresBasePath(t *testing.T) {
	_, err := New(analysis.MustRegistry(), Options{})
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	degraded := Degraded(errors.New("io"))
	fatal := Fatal(errors.New("missing id"))

	assert.Equal(t, StatusOK, Merge().Status)
	assert.Equal(t, degraded, Merge(Ok(), degraded, Ok()))
	assert.Equal(t, fatal, Merge(degraded, fatal))
	assert.Equal(t, "degraded", StatusDegraded.String())
}
