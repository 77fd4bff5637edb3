// Package analysis holds the field/analyzer registry: one immutable table
// that decides how every index field is tokenized, used both to build the
// bleve index mapping and to analyze query text.
package analysis

import (
	"fmt"
	"sort"

	"github.com/blevesearch/bleve/v2"
	blevanalysis "github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/porter"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// TextAnalyzerName is the default analyzer for prose fields.
	TextAnalyzerName = "litsearch_text"

	// NameAnalyzerName is the analyzer for titles and person names.
	NameAnalyzerName = "litsearch_name"

	// LiteralAnalyzerName keeps a value as a single token.
	LiteralAnalyzerName = "litsearch_literal"

	// DefaultCacheSize is the number of analyzed strings memoized.
	DefaultCacheSize = 4096

	// maxCachedText bounds the length of memoized inputs; long bodies are
	// analyzed directly.
	maxCachedText = 256
)

// Token is one analyzed term with its 1-based position and byte offsets in
// the input.
type Token struct {
	Term     string
	Position int
	Start    int
	End      int
}

// Registry is the frozen field/analyzer table. It is safe for concurrent use.
type Registry struct {
	mapping   *mapping.IndexMappingImpl
	analyzers map[Pipeline]blevanalysis.Analyzer
	cache     *lru.Cache[string, []Token]
}

// NewRegistry builds the analyzers and the index mapping. cacheSize <= 0 uses
// DefaultCacheSize.
func NewRegistry(cacheSize int) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	im, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}

	analyzers := make(map[Pipeline]blevanalysis.Analyzer, 3)
	for p, name := range map[Pipeline]string{
		PipelineText:    TextAnalyzerName,
		PipelineName:    NameAnalyzerName,
		PipelineLiteral: LiteralAnalyzerName,
	} {
		a := im.AnalyzerNamed(name)
		if a == nil {
			return nil, fmt.Errorf("analyzer %s not registered", name)
		}
		analyzers[p] = a
	}

	cache, err := lru.New[string, []Token](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis cache: %w", err)
	}

	return &Registry{mapping: im, analyzers: analyzers, cache: cache}, nil
}

// MustRegistry is NewRegistry for tests and static setup.
func MustRegistry() *Registry {
	r, err := NewRegistry(0)
	if err != nil {
		panic(err)
	}
	return r
}

func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	defs := map[string]map[string]interface{}{
		TextAnalyzerName: {
			"type":      custom.Name,
			"tokenizer": unicode.Name,
			"token_filters": []string{
				en.PossessiveName,
				lowercase.Name,
				en.StopName,
				porter.Name,
			},
		},
		NameAnalyzerName: {
			"type":          custom.Name,
			"tokenizer":     unicode.Name,
			"token_filters": []string{lowercase.Name},
		},
		LiteralAnalyzerName: {
			"type":          custom.Name,
			"tokenizer":     single.Name,
			"token_filters": []string{lowercase.Name},
		},
	}
	for name, cfg := range defs {
		if err := im.AddCustomAnalyzer(name, cfg); err != nil {
			return nil, fmt.Errorf("failed to add analyzer %s: %w", name, err)
		}
	}
	im.DefaultAnalyzer = TextAnalyzerName

	doc := bleve.NewDocumentMapping()
	for field, p := range fieldRules {
		doc.AddFieldMappingsAt(field, fieldMapping(p))
	}
	im.DefaultMapping = doc

	return im, nil
}

func fieldMapping(p Pipeline) *mapping.FieldMapping {
	if p == PipelineNumeric {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		return fm
	}

	fm := bleve.NewTextFieldMapping()
	fm.Analyzer = analyzerName(p)
	fm.Store = true
	fm.IncludeTermVectors = p == PipelineText
	return fm
}

func analyzerName(p Pipeline) string {
	switch p {
	case PipelineName:
		return NameAnalyzerName
	case PipelineLiteral, PipelineNumeric:
		return LiteralAnalyzerName
	default:
		return TextAnalyzerName
	}
}

// IndexMapping returns the mapping every namespace is created with.
func (r *Registry) IndexMapping() mapping.IndexMapping {
	return r.mapping
}

// PipelineFor returns the field's pipeline; unknown fields use PipelineText.
func (r *Registry) PipelineFor(field string) Pipeline {
	if p, ok := fieldRules[field]; ok {
		return p
	}
	return PipelineText
}

// AnalyzerFor returns the bleve analyzer name for field.
func (r *Registry) AnalyzerFor(field string) string {
	return analyzerName(r.PipelineFor(field))
}

// IsNumeric reports whether field is indexed as a number.
func (r *Registry) IsNumeric(field string) bool {
	return r.PipelineFor(field) == PipelineNumeric
}

// Fields returns the known field names, sorted.
func (r *Registry) Fields() []string {
	out := make([]string, 0, len(fieldRules))
	for f := range fieldRules {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Analyze runs field's pipeline over text. The returned slice is shared and
// must not be modified.
func (r *Registry) Analyze(field, text string) []Token {
	p := r.PipelineFor(field)
	if p == PipelineNumeric {
		p = PipelineLiteral
	}

	if len(text) > maxCachedText {
		return r.run(p, text)
	}

	key := analyzerName(p) + "\x00" + text
	if tokens, ok := r.cache.Get(key); ok {
		return tokens
	}
	tokens := r.run(p, text)
	r.cache.Add(key, tokens)
	return tokens
}

// Terms returns just the analyzed terms of text.
func (r *Registry) Terms(field, text string) []string {
	tokens := r.Analyze(field, text)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Term
	}
	return out
}

func (r *Registry) run(p Pipeline, text string) []Token {
	stream := r.analyzers[p].Analyze([]byte(text))
	out := make([]Token, 0, len(stream))
	for _, t := range stream {
		out = append(out, Token{
			Term:     string(t.Term),
			Position: t.Position,
			Start:    t.Start,
			End:      t.End,
		})
	}
	return out
}
