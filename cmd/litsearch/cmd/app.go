package cmd

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	"github.com/Aman-CERP/litsearch/internal/index"
	"github.com/Aman-CERP/litsearch/internal/query"
	"github.com/Aman-CERP/litsearch/internal/search"
	"github.com/Aman-CERP/litsearch/internal/store"
)

// app holds the components every command is built from. They are created
// once from the loaded configuration.
type app struct {
	gateway *store.Gateway
	service *search.Service
}

func newApp(o *globalOptions) (*app, error) {
	cfg := o.cfg

	registry, err := analysis.NewRegistry(cfg.Analysis.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build analyzers: %w", err)
	}

	gateway, err := store.New(registry, store.Options{
		BasePath:    cfg.Index.BasePath,
		LockTimeout: cfg.Index.LockTimeout,
		Logger:      o.logger,
	})
	if err != nil {
		return nil, err
	}

	builder := query.NewBuilder(registry, query.Settings{
		Slop:          cfg.Search.Slop,
		EditDistance:  cfg.Search.EditDistance,
		PrefixLength:  cfg.Search.PrefixLength,
		YearTolerance: cfg.Search.YearTolerance,
	})

	service := search.NewService(gateway, builder, search.Options{
		MaxResults:      cfg.Search.MaxResults,
		FragmentSize:    cfg.Search.FragmentSize,
		MaxFragments:    cfg.Search.MaxFragments,
		CandidateWindow: cfg.Search.CandidateWindow,
		HighlightBefore: cfg.Search.HighlightBefore,
		HighlightAfter:  cfg.Search.HighlightAfter,
		Logger:          o.logger,
	})

	return &app{gateway: gateway, service: service}, nil
}

// reindex rebuilds every namespace from the catalog at dsn.
func (a *app) reindex(ctx context.Context, o *globalOptions) ([]index.KindReport, error) {
	source, err := catalog.OpenSQLite(o.cfg.Catalog.DSN)
	if err != nil {
		return nil, err
	}
	defer func() { _ = source.Close() }()

	orch, err := index.NewOrchestrator(source, a.gateway, index.OrchestratorConfig{
		Workers: o.cfg.Reindex.Workers,
		Logger:  o.logger,
	})
	if err != nil {
		return nil, err
	}
	return orch.Run(ctx)
}
