// Package store is the index store gateway: one bleve index directory per
// item-kind namespace under a base path, written through short-lived scoped
// handles.
//
// Every write acquires the namespace lock, opens the index, commits one batch,
// closes the index and releases the lock before returning. Write failures are
// logged and reported as a degraded WriteResult rather than an error, because
// the relational write that triggered them has already committed.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	"github.com/Aman-CERP/litsearch/internal/document"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
)

const (
	// DefaultLockTimeout bounds how long a call waits for a namespace lock.
	DefaultLockTimeout = 5 * time.Second

	// DefaultBatchSize is the number of documents committed per bulk batch.
	DefaultBatchSize = 500
)

// Op names a gateway operation, for logging and failure injection.
type Op string

const (
	OpAdd     Op = "add"
	OpBulk    Op = "add_bulk"
	OpUpdate  Op = "update"
	OpDelete  Op = "delete"
	OpClear   Op = "clear"
	OpRead    Op = "read"
	OpByField Op = "delete_by_field"
)

// FailureInjector lets tests simulate I/O failures. A non-nil return fails
// the operation before it touches disk.
type FailureInjector func(op Op, ns catalog.Kind) error

// Options configures a Gateway.
type Options struct {
	BasePath        string
	LockTimeout     time.Duration
	BatchSize       int
	Logger          *slog.Logger
	FailureInjector FailureInjector
}

// Gateway reads and writes the per-namespace indexes.
type Gateway struct {
	base        string
	registry    *analysis.Registry
	lockTimeout time.Duration
	batchSize   int
	retry       lserrors.RetryConfig
	logger      *slog.Logger
	inject      FailureInjector
}

// New creates a Gateway rooted at opts.BasePath, creating the directory.
func New(registry *analysis.Registry, opts Options) (*Gateway, error) {
	if opts.BasePath == "" {
		return nil, lserrors.ConfigError("index base path is empty", nil)
	}
	if err := os.MkdirAll(opts.BasePath, 0755); err != nil {
		return nil, lserrors.IndexIOError("", "cannot create index base path", err)
	}
	if opts.LockTimeout <= 0 {
		opts.LockTimeout = DefaultLockTimeout
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		base:        opts.BasePath,
		registry:    registry,
		lockTimeout: opts.LockTimeout,
		batchSize:   opts.BatchSize,
		retry:       lserrors.DefaultRetryConfig(),
		logger:      logger,
		inject:      opts.FailureInjector,
	}, nil
}

// SetFailureInjector replaces the failure hook. Pass nil to clear it.
func (g *Gateway) SetFailureInjector(f FailureInjector) {
	g.inject = f
}

// BasePath returns the directory holding every namespace.
func (g *Gateway) BasePath() string {
	return g.base
}

// Path returns the index directory of a namespace.
func (g *Gateway) Path(ns catalog.Kind) string {
	return filepath.Join(g.base, string(ns))
}

func (g *Gateway) lockPath(ns catalog.Kind) string {
	return filepath.Join(g.base, string(ns)+".lock")
}

// Add indexes one document.
func (g *Gateway) Add(ctx context.Context, ns catalog.Kind, doc document.Document) WriteResult {
	return g.write(ctx, ns, OpAdd, func(idx bleve.Index) error {
		return idx.Index(doc.ID, doc.Source())
	})
}

// AddBulk indexes docs in batches under a single lock. With replaceAll the
// namespace is emptied first, so it is briefly empty mid-call.
func (g *Gateway) AddBulk(ctx context.Context, ns catalog.Kind, docs []document.Document, replaceAll bool) WriteResult {
	if replaceAll {
		return g.locked(ctx, ns, OpBulk, func() error {
			if err := os.RemoveAll(g.Path(ns)); err != nil {
				return fmt.Errorf("failed to clear namespace: %w", err)
			}
			return g.withIndex(ns, func(idx bleve.Index) error {
				return g.batch(idx, docs)
			})
		})
	}
	return g.write(ctx, ns, OpBulk, func(idx bleve.Index) error {
		return g.batch(idx, docs)
	})
}

func (g *Gateway) batch(idx bleve.Index, docs []document.Document) error {
	for start := 0; start < len(docs); start += g.batchSize {
		end := start + g.batchSize
		if end > len(docs) {
			end = len(docs)
		}
		b := idx.NewBatch()
		for _, doc := range docs[start:end] {
			if err := b.Index(doc.ID, doc.Source()); err != nil {
				return fmt.Errorf("failed to batch document %s: %w", doc.ID, err)
			}
		}
		if err := idx.Batch(b); err != nil {
			return fmt.Errorf("failed to commit batch: %w", err)
		}
	}
	return nil
}

// Update replaces the document stored under id with doc in one commit.
func (g *Gateway) Update(ctx context.Context, ns catalog.Kind, id string, doc document.Document) WriteResult {
	return g.write(ctx, ns, OpUpdate, func(idx bleve.Index) error {
		b := idx.NewBatch()
		b.Delete(id)
		if err := b.Index(doc.ID, doc.Source()); err != nil {
			return err
		}
		return idx.Batch(b)
	})
}

// Replace deletes every document whose field equals value and indexes docs,
// in one commit. Used to swap a play's dialogue lines.
func (g *Gateway) Replace(ctx context.Context, ns catalog.Kind, field, value string, docs []document.Document) WriteResult {
	return g.write(ctx, ns, OpByField, func(idx bleve.Index) error {
		ids, err := matchingIDs(idx, field, value)
		if err != nil {
			return err
		}
		b := idx.NewBatch()
		for _, id := range ids {
			b.Delete(id)
		}
		for _, doc := range docs {
			if err := b.Index(doc.ID, doc.Source()); err != nil {
				return err
			}
		}
		return idx.Batch(b)
	})
}

// DeleteByField removes every document whose literal field equals value.
func (g *Gateway) DeleteByField(ctx context.Context, ns catalog.Kind, field, value string) WriteResult {
	return g.Replace(ctx, ns, field, value, nil)
}

func matchingIDs(idx bleve.Index, field, value string) ([]string, error) {
	count, err := idx.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	q := bleve.NewTermQuery(value)
	q.SetField(field)
	req := bleve.NewSearchRequestOptions(q, int(count), 0, false)
	res, err := idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents by %s: %w", field, err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// Delete removes one document.
func (g *Gateway) Delete(ctx context.Context, ns catalog.Kind, id string) WriteResult {
	return g.write(ctx, ns, OpDelete, func(idx bleve.Index) error {
		return idx.Delete(id)
	})
}

// Clear removes a namespace's directory.
func (g *Gateway) Clear(ctx context.Context, ns catalog.Kind) WriteResult {
	return g.locked(ctx, ns, OpClear, func() error {
		return os.RemoveAll(g.Path(ns))
	})
}

// write runs fn against an open index under the exclusive lock.
func (g *Gateway) write(ctx context.Context, ns catalog.Kind, op Op, fn func(bleve.Index) error) WriteResult {
	return g.locked(ctx, ns, op, func() error {
		return g.withIndex(ns, fn)
	})
}

// locked runs fn while holding the namespace's exclusive lock. Any failure
// is logged and returned as a degraded result.
func (g *Gateway) locked(ctx context.Context, ns catalog.Kind, op Op, fn func() error) WriteResult {
	start := time.Now()

	if g.inject != nil {
		if err := g.inject(op, ns); err != nil {
			return g.degraded(ns, op, err)
		}
	}

	lock := NewNamespaceLock(g.lockPath(ns))
	err := lserrors.Retry(ctx, g.retry, func() error {
		return lock.Acquire(ctx, true, g.lockTimeout)
	})
	if err != nil {
		return g.degraded(ns, op, err)
	}
	defer func() {
		if err := lock.Release(); err != nil {
			g.logger.Warn("namespace_unlock_failed",
				slog.String("namespace", string(ns)),
				slog.String("error", err.Error()))
		}
	}()

	if err := fn(); err != nil {
		return g.degraded(ns, op, err)
	}

	g.logger.Debug("index_write",
		slog.String("namespace", string(ns)),
		slog.String("op", string(op)),
		slog.Duration("duration", time.Since(start)))
	return Ok()
}

// withIndex opens (or creates) the namespace index, runs fn, and closes it.
// The caller must hold the exclusive lock.
func (g *Gateway) withIndex(ns catalog.Kind, fn func(bleve.Index) error) (err error) {
	idx, err := g.openWriter(ns)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := idx.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close index: %w", cerr)
		}
	}()
	return fn(idx)
}

// openWriter opens a namespace for writing. A missing directory is created;
// a corrupt one is cleared and recreated empty.
func (g *Gateway) openWriter(ns catalog.Kind) (bleve.Index, error) {
	path := g.Path(ns)

	if validErr := validateIndexIntegrity(path); validErr != nil {
		g.logger.Warn("namespace_index_corrupted",
			slog.String("namespace", string(ns)),
			slog.String("error", validErr.Error()))
		if err := os.RemoveAll(path); err != nil {
			return nil, lserrors.New(lserrors.ErrCodeCorruptIndex,
				fmt.Sprintf("namespace %s corrupted and cannot be removed", ns), err)
		}
		g.logger.Info("namespace_index_cleared",
			slog.String("namespace", string(ns)),
			slog.String("reason", "corruption detected, reindex required"))
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return bleve.New(path, g.registry.IndexMapping())
	}
	if err != nil && isCorruptionError(err) {
		g.logger.Warn("namespace_index_open_failed",
			slog.String("namespace", string(ns)),
			slog.String("error", err.Error()))
		if rmErr := os.RemoveAll(path); rmErr != nil {
			return nil, lserrors.New(lserrors.ErrCodeCorruptIndex,
				fmt.Sprintf("namespace %s corrupted and cannot be cleared", ns), rmErr)
		}
		return bleve.New(path, g.registry.IndexMapping())
	}
	return idx, err
}

func (g *Gateway) degraded(ns catalog.Kind, op Op, err error) WriteResult {
	wrapped := lserrors.IndexIOError(string(ns), fmt.Sprintf("index %s failed", op), err)
	attrs := []any{
		slog.String("namespace", string(ns)),
		slog.String("op", string(op)),
	}
	for _, a := range lserrors.LogAttrs(wrapped) {
		attrs = append(attrs, a)
	}
	g.logger.Error("index_write_degraded", attrs...)
	return Degraded(wrapped)
}

// Count returns the number of documents in a namespace.
func (g *Gateway) Count(ctx context.Context, ns catalog.Kind) (uint64, error) {
	var n uint64
	err := g.WithReader(ctx, ns, func(r *Reader) error {
		var err error
		n, err = r.Count()
		return err
	})
	return n, err
}
