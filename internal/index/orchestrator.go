// Package index keeps the search namespaces in step with the catalog: a
// startup bulk rebuild per item kind, and single-document hooks called after
// each relational write.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/litsearch/internal/catalog"
	"github.com/Aman-CERP/litsearch/internal/document"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
	"github.com/Aman-CERP/litsearch/internal/store"
)

// OrchestratorConfig configures a bulk rebuild.
type OrchestratorConfig struct {
	// Kinds are the catalog kinds to rebuild. Defaults to RebuildKinds().
	Kinds []catalog.Kind

	// Workers bounds how many namespaces rebuild at once. Defaults to the
	// number of kinds.
	Workers int

	// Logger receives progress events. Defaults to slog.Default().
	Logger *slog.Logger
}

// KindReport describes the rebuild of one namespace.
type KindReport struct {
	// Kind is the rebuilt namespace.
	Kind catalog.Kind

	// Documents is the number of documents loaded.
	Documents int

	// Result is the outcome of the bulk write.
	Result store.WriteResult

	// Duration is the time spent streaming, mapping and loading.
	Duration time.Duration
}

// RebuildKinds are the kinds streamed from the catalog. Dialogue lines are
// rebuilt together with their plays.
func RebuildKinds() []catalog.Kind {
	return []catalog.Kind{
		catalog.KindPoem, catalog.KindSection, catalog.KindShortStory,
		catalog.KindPlay, catalog.KindAuthor, catalog.KindCharacter,
	}
}

// Orchestrator rebuilds namespaces from the catalog.
type Orchestrator struct {
	source  catalog.Source
	gateway *store.Gateway
	kinds   []catalog.Kind
	workers int
	logger  *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(source catalog.Source, gateway *store.Gateway, cfg OrchestratorConfig) (*Orchestrator, error) {
	if source == nil {
		return nil, fmt.Errorf("catalog source is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	kinds := cfg.Kinds
	if len(kinds) == 0 {
		kinds = RebuildKinds()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = len(kinds)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		source:  source,
		gateway: gateway,
		kinds:   kinds,
		workers: workers,
		logger:  logger,
	}, nil
}

// Run rebuilds every configured namespace, replacing its contents. Reports
// are returned in configured kind order, with the DILI report following PLAY.
// Catalog read failures and mapper invariant violations abort the run; index
// write failures are reported as degraded and do not.
func (o *Orchestrator) Run(ctx context.Context) ([]KindReport, error) {
	start := time.Now()
	o.logger.Info("reindex_started", slog.Int("kinds", len(o.kinds)))

	slots := make([][]KindReport, len(o.kinds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, kind := range o.kinds {
		g.Go(func() error {
			reports, err := o.rebuild(gctx, kind)
			if err != nil {
				return err
			}
			slots[i] = reports
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		o.logger.Error("reindex_failed", slog.String("error", err.Error()))
		return nil, err
	}

	var reports []KindReport
	for _, s := range slots {
		reports = append(reports, s...)
	}
	o.logger.Info("reindex_complete",
		slog.Int("namespaces", len(reports)),
		slog.Duration("duration", time.Since(start)))
	return reports, nil
}

func (o *Orchestrator) rebuild(ctx context.Context, kind catalog.Kind) ([]KindReport, error) {
	start := time.Now()

	var docs, lines []document.Document
	err := o.source.Stream(ctx, kind, func(item catalog.Item) error {
		if play, ok := item.(*catalog.Play); ok {
			doc, dialogue, err := document.MapPlay(play)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
			lines = append(lines, dialogue...)
			return nil
		}

		doc, err := document.Map(item)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		if lserrors.IsFatal(err) {
			return nil, err
		}
		return nil, lserrors.New(lserrors.ErrCodeCatalogAccess,
			fmt.Sprintf("failed to stream %s", kind), err).WithDetail("namespace", string(kind))
	}

	reports := []KindReport{o.load(ctx, kind, docs, start)}
	if kind == catalog.KindPlay {
		reports = append(reports, o.load(ctx, catalog.KindDialogue, lines, start))
	}
	return reports, nil
}

func (o *Orchestrator) load(ctx context.Context, kind catalog.Kind, docs []document.Document, start time.Time) KindReport {
	res := o.gateway.AddBulk(ctx, kind, docs, true)
	report := KindReport{
		Kind:      kind,
		Documents: len(docs),
		Result:    res,
		Duration:  time.Since(start),
	}
	o.logger.Info("namespace_reindexed",
		slog.String("namespace", string(kind)),
		slog.Int("documents", len(docs)),
		slog.String("status", res.Status.String()),
		slog.Duration("duration", report.Duration))
	return report
}
