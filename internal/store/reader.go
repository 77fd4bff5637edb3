package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/highlight"

	"github.com/Aman-CERP/litsearch/internal/catalog"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

// Reader is a scoped, read-only handle on one namespace. It sees the index as
// of the moment it was opened. Close must be called to release the shared
// lock; WithReader does that automatically.
type Reader struct {
	ns     catalog.Kind
	idx    bleve.Index
	lock   *NamespaceLock
	logger *slog.Logger
	closed bool
}

// Reader opens a namespace for reading. A namespace that has never been
// written yields an empty reader rather than an error.
func (g *Gateway) Reader(ctx context.Context, ns catalog.Kind) (*Reader, error) {
	if g.inject != nil {
		if err := g.inject(OpRead, ns); err != nil {
			return nil, lserrors.New(lserrors.ErrCodeReaderOpen,
				fmt.Sprintf("cannot open reader for %s", ns), err).WithDetail("namespace", string(ns))
		}
	}

	lock := NewNamespaceLock(g.lockPath(ns))
	err := lserrors.Retry(ctx, g.retry, func() error {
		return lock.Acquire(ctx, false, g.lockTimeout)
	})
	if err != nil {
		return nil, lserrors.New(lserrors.ErrCodeReaderOpen,
			fmt.Sprintf("cannot lock %s for reading", ns), err).WithDetail("namespace", string(ns))
	}

	r := &Reader{ns: ns, lock: lock, logger: g.logger}

	idx, err := bleve.OpenUsing(g.Path(ns), map[string]interface{}{"read_only": true})
	switch {
	case errors.Is(err, bleve.ErrorIndexPathDoesNotExist):
		return r, nil
	case err != nil:
		_ = lock.Release()
		return nil, lserrors.New(lserrors.ErrCodeReaderOpen,
			fmt.Sprintf("cannot open reader for %s", ns), err).WithDetail("namespace", string(ns))
	}
	r.idx = idx
	return r, nil
}

// WithReader opens a reader, runs fn and always releases the reader.
func (g *Gateway) WithReader(ctx context.Context, ns catalog.Kind, fn func(*Reader) error) error {
	r, err := g.Reader(ctx, ns)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()
	return fn(r)
}

// Namespace returns the namespace the reader is bound to.
func (r *Reader) Namespace() catalog.Kind {
	return r.ns
}

// Empty reports whether the namespace has no index on disk.
func (r *Reader) Empty() bool {
	return r.idx == nil
}

// Search runs req. An empty namespace returns an empty result.
func (r *Reader) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	if r.closed {
		return nil, fmt.Errorf("reader for %s is closed", r.ns)
	}
	if r.idx == nil {
		return &bleve.SearchResult{Request: req, Hits: search.DocumentMatchCollection{}}, nil
	}
	return r.idx.SearchInContext(ctx, req)
}

// BestFragments returns up to n highlighted fragments of field for hit,
// best first. The hit must carry term locations.
func (r *Reader) BestFragments(h highlight.Highlighter, hit *search.DocumentMatch, field string, n int) ([]string, error) {
	if r.idx == nil {
		return nil, nil
	}
	doc, err := r.idx.Document(hit.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", hit.ID, err)
	}
	if doc == nil {
		return nil, nil
	}
	return h.BestFragmentsInField(hit, doc, field, n), nil
}

// Count returns the namespace's document count.
func (r *Reader) Count() (uint64, error) {
	if r.idx == nil {
		return 0, nil
	}
	return r.idx.DocCount()
}

// Close releases the index and the shared lock. It is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.idx != nil {
		err = r.idx.Close()
	}
	if rerr := r.lock.Release(); rerr != nil {
		r.logger.Warn("namespace_unlock_failed",
			slog.String("namespace", string(r.ns)),
			slog.String("error", rerr.Error()))
	}
	return err
}
