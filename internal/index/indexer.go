package index

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	"github.com/Aman-CERP/litsearch/internal/document"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
	"github.com/Aman-CERP/litsearch/internal/store"
)

// Indexer is called by the CRUD layer after a relational write commits.
// Index failures come back as degraded results, never as errors, so the
// caller's write still succeeds. Only an entity that cannot be mapped yields
// a fatal result.
type Indexer struct {
	gateway *store.Gateway
	logger  *slog.Logger
}

// NewIndexer creates an Indexer. A nil logger uses slog.Default().
func NewIndexer(gateway *store.Gateway, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{gateway: gateway, logger: logger}
}

// Index adds a newly created entity. A play also indexes its dialogue lines.
// A hidden poem is removed instead, as a rebuild would leave it out.
func (ix *Indexer) Index(ctx context.Context, item catalog.Item) store.WriteResult {
	if hidden(item) {
		return ix.Remove(ctx, catalog.KindPoem, item.ItemID())
	}
	if play, ok := item.(*catalog.Play); ok {
		return ix.writePlay(ctx, "", play)
	}
	doc, err := document.Map(item)
	if err != nil {
		return ix.fatal(item, err)
	}
	return ix.gateway.Add(ctx, item.Kind(), doc)
}

// Update replaces the document stored under id with the entity's current
// state. A play also replaces its dialogue lines.
func (ix *Indexer) Update(ctx context.Context, id int64, item catalog.Item) store.WriteResult {
	if hidden(item) {
		return ix.Remove(ctx, catalog.KindPoem, id)
	}
	key := strconv.FormatInt(id, 10)
	if play, ok := item.(*catalog.Play); ok {
		return ix.writePlay(ctx, key, play)
	}
	doc, err := document.Map(item)
	if err != nil {
		return ix.fatal(item, err)
	}
	return ix.gateway.Update(ctx, item.Kind(), key, doc)
}

// Remove deletes an entity's document. Removing a play also removes its
// dialogue lines.
func (ix *Indexer) Remove(ctx context.Context, kind catalog.Kind, id int64) store.WriteResult {
	key := strconv.FormatInt(id, 10)
	res := ix.gateway.Delete(ctx, kind, key)
	if kind == catalog.KindPlay {
		res = store.Merge(res, ix.gateway.DeleteByField(ctx, catalog.KindDialogue, analysis.FieldParentID, key))
	}
	return res
}

// hidden reports whether item is a poem withheld from search. A poem without
// an id still goes to the mapper, which rejects it.
func hidden(item catalog.Item) bool {
	p, ok := item.(*catalog.Poem)
	return ok && p.Hidden && p.ID != 0
}

// writePlay stores a play document and swaps in its dialogue lines. An empty
// key adds; otherwise the document under key is replaced.
func (ix *Indexer) writePlay(ctx context.Context, key string, play *catalog.Play) store.WriteResult {
	doc, lines, err := document.MapPlay(play)
	if err != nil {
		return ix.fatal(play, err)
	}

	var res store.WriteResult
	if key == "" {
		res = ix.gateway.Add(ctx, catalog.KindPlay, doc)
	} else {
		res = ix.gateway.Update(ctx, catalog.KindPlay, key, doc)
	}

	parent := doc.ID
	if key != "" {
		parent = key
	}
	return store.Merge(res, ix.gateway.Replace(ctx, catalog.KindDialogue, analysis.FieldParentID, parent, lines))
}

func (ix *Indexer) fatal(item catalog.Item, err error) store.WriteResult {
	attrs := []any{slog.String("kind", string(item.Kind()))}
	for _, a := range lserrors.LogAttrs(err) {
		attrs = append(attrs, a)
	}
	ix.logger.Error("index_entity_rejected", attrs...)
	return store.Fatal(err)
}
