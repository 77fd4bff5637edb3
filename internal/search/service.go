// Package search executes query trees against index namespaces and
// highlights the best-matching fragments of each hit.
package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/highlight"
	"github.com/blevesearch/bleve/v2/search/highlight/format/html"
	simplefragmenter "github.com/blevesearch/bleve/v2/search/highlight/fragmenter/simple"
	simplehighlighter "github.com/blevesearch/bleve/v2/search/highlight/highlighter/simple"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
	lserrors "github.com/Aman-CERP/litsearch/internal/errors"
	"github.com/Aman-CERP/litsearch/internal/query"
	"github.com/Aman-CERP/litsearch/internal/store"
)

const (
	DefaultMaxResults      = 100
	DefaultFragmentSize    = 75
	DefaultMaxFragments    = 5
	DefaultCandidateWindow = 1000
	DefaultHighlightBefore = "<span class='highlight'>"
	DefaultHighlightAfter  = "</span>"

	// FragmentSeparator joins the fragments of one hit.
	FragmentSeparator = " ... "
)

// Options configures a Service. Zero values take the defaults above.
type Options struct {
	MaxResults      int
	FragmentSize    int
	MaxFragments    int
	CandidateWindow int
	HighlightBefore string
	HighlightAfter  string
	Logger          *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.MaxResults <= 0 {
		o.MaxResults = DefaultMaxResults
	}
	if o.FragmentSize <= 0 {
		o.FragmentSize = DefaultFragmentSize
	}
	if o.MaxFragments <= 0 {
		o.MaxFragments = DefaultMaxFragments
	}
	if o.CandidateWindow <= 0 {
		o.CandidateWindow = DefaultCandidateWindow
	}
	if o.HighlightBefore == "" && o.HighlightAfter == "" {
		o.HighlightBefore = DefaultHighlightBefore
		o.HighlightAfter = DefaultHighlightAfter
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Service runs searches. It holds no index handles between calls.
type Service struct {
	gateway     *store.Gateway
	builder     *query.Builder
	matcher     *query.Matcher
	highlighter highlight.Highlighter
	opts        Options
	logger      *slog.Logger
}

// NewService creates a Service.
func NewService(gateway *store.Gateway, builder *query.Builder, opts Options) *Service {
	opts.applyDefaults()
	h := simplehighlighter.NewHighlighter(
		simplefragmenter.NewFragmenter(opts.FragmentSize),
		html.NewFragmentFormatter(opts.HighlightBefore, opts.HighlightAfter),
		FragmentSeparator,
	)
	return &Service{
		gateway:     gateway,
		builder:     builder,
		matcher:     query.NewMatcher(builder.Registry()),
		highlighter: h,
		opts:        opts,
		logger:      opts.Logger,
	}
}

// Builder returns the query builder the service uses.
func (s *Service) Builder() *query.Builder {
	return s.builder
}

// Execute runs tree against every namespace and concatenates the results in
// namespace order, each namespace ranked by relevance and capped at
// maxResults. A namespace that cannot be read contributes one error marker.
// maxResults <= 0 uses the configured maximum.
func (s *Service) Execute(ctx context.Context, tree query.Node, namespaces []catalog.Kind, maxResults int) []Result {
	if maxResults <= 0 {
		maxResults = s.opts.MaxResults
	}
	if _, none := tree.(query.MatchNone); none || tree == nil {
		return []Result{}
	}

	start := time.Now()
	slots := make([][]Result, len(namespaces))
	g, gctx := errgroup.WithContext(ctx)
	for i, ns := range namespaces {
		g.Go(func() error {
			res, err := s.searchNamespace(gctx, tree, ns, maxResults)
			if err != nil {
				attrs := []any{slog.String("namespace", string(ns))}
				for _, a := range lserrors.LogAttrs(err) {
					attrs = append(attrs, a)
				}
				s.logger.Warn("search_namespace_failed", attrs...)
				slots[i] = []Result{ErrorMarker(ns, err)}
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	_ = g.Wait()

	out := []Result{}
	for _, slot := range slots {
		out = append(out, slot...)
	}

	s.logger.Debug("search_executed",
		slog.String("query", tree.String()),
		slog.Int("namespaces", len(namespaces)),
		slog.Int("results", len(out)),
		slog.Duration("duration", time.Since(start)))
	return out
}

func (s *Service) searchNamespace(ctx context.Context, tree query.Node, ns catalog.Kind, maxResults int) ([]Result, error) {
	verify := query.NeedsVerification(tree)
	size := maxResults
	if verify && s.opts.CandidateWindow > size {
		size = s.opts.CandidateWindow
	}

	req := bleve.NewSearchRequestOptions(query.Compile(tree), size, 0, false)
	req.Fields = []string{"*"}
	req.IncludeLocations = true

	out := []Result{}
	err := s.gateway.WithReader(ctx, ns, func(r *store.Reader) error {
		res, err := r.Search(ctx, req)
		if err != nil {
			return lserrors.New(lserrors.ErrCodeSearchFailed, "search failed", err).
				WithDetail("namespace", string(ns))
		}

		for _, hit := range res.Hits {
			values := storedValues(hit.Fields)
			if verify && !s.matcher.Match(tree, values) {
				continue
			}

			result := newResult(ns, hit, values)
			if len(hit.Locations[analysis.FieldText]) > 0 {
				frags, err := r.BestFragments(s.highlighter, hit, analysis.FieldText, s.opts.MaxFragments)
				if err != nil {
					s.logger.Debug("highlight_failed",
						slog.String("namespace", string(ns)),
						slog.String("id", hit.ID),
						slog.String("error", err.Error()))
				}
				result.Context = strings.Join(frags, FragmentSeparator)
			}

			out = append(out, result)
			if len(out) >= maxResults {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search runs a structured request. Malformed or empty requests return an
// empty list.
func (s *Service) Search(ctx context.Context, req *query.Request) []Result {
	tree, targets, err := s.builder.Build(req)
	if err != nil {
		if !errors.Is(err, lserrors.ErrQueryEmpty) {
			s.logger.Info("search_request_rejected", slog.String("error", err.Error()))
		}
		return []Result{}
	}
	return s.Execute(ctx, tree, targets, s.opts.MaxResults)
}

// BasicSearch matches free text against text, author names and title across
// poems, sections, short stories, plays and dialogue.
func (s *Service) BasicSearch(ctx context.Context, text string) []Result {
	return s.Execute(ctx, s.builder.Basic(text), query.BasicKinds(), s.opts.MaxResults)
}

// SimilarExists reports whether a poem with this title by an author with
// this last name is already indexed. Read failures report false.
func (s *Service) SimilarExists(ctx context.Context, title, lastName string) bool {
	results := s.Execute(ctx, s.builder.SimilarTitle(title, lastName), []catalog.Kind{catalog.KindPoem}, 1)
	return len(results) > 0 && !results[0].IsError()
}

// SearchAuthor finds authors by exact first and last name.
func (s *Service) SearchAuthor(ctx context.Context, firstName, lastName string) []Result {
	return s.Execute(ctx, s.builder.Author(firstName, lastName), []catalog.Kind{catalog.KindAuthor}, s.opts.MaxResults)
}
