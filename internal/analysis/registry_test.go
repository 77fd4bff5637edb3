package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_TextPipeline_StemsAndDropsStopWords(t *testing.T) {
	// Given: the default registry
	r := MustRegistry()

	// When: analyzing prose
	tokens := r.Analyze(FieldText, "The Quick dogs jumping")

	// Then: the stop word is dropped but its position gap is kept
	require.Len(t, tokens, 3)
	assert.Equal(t, "quick", tokens[0].Term)
	assert.Equal(t, 2, tokens[0].Position)
	assert.Equal(t, "dog", tokens[1].Term)
	assert.Equal(t, "jump", tokens[2].Term)
	assert.Equal(t, 4, tokens[2].Position)
}

func TestRegistry_NamePipeline_KeepsStopWords(t *testing.T) {
	r := MustRegistry()

	assert.Equal(t, []string{"the", "flea"}, r.Terms(FieldTitle, "The Flea"))
	assert.Equal(t, []string{"donne"}, r.Terms(FieldLastName, "Donne"))
}

func TestRegistry_LiteralPipeline_SingleToken(t *testing.T) {
	r := MustRegistry()

	assert.Equal(t, []string{"petrarchan sonnet"}, r.Terms(FieldPoemForm, "Petrarchan Sonnet"))
	assert.Equal(t, []string{"42"}, r.Terms(FieldID, "42"))
}

func TestRegistry_UnknownFieldFallsBackToText(t *testing.T) {
	r := MustRegistry()

	assert.Equal(t, PipelineText, r.PipelineFor("no_such_field"))
	assert.Equal(t, TextAnalyzerName, r.AnalyzerFor("no_such_field"))
	assert.Equal(t, r.Terms(FieldText, "running dogs"), r.Terms("no_such_field", "running dogs"))
}

func TestRegistry_Numeric(t *testing.T) {
	r := MustRegistry()

	assert.True(t, r.IsNumeric(FieldPublicationYear))
	assert.False(t, r.IsNumeric(FieldTitle))
	assert.Equal(t, []string{"1633"}, r.Terms(FieldPublicationYear, "1633"))
}

func TestRegistry_Analyze_Memoizes(t *testing.T) {
	// Given: a registry with a small cache
	r, err := NewRegistry(8)
	require.NoError(t, err)

	// When: the same short text is analyzed twice
	first := r.Analyze(FieldText, "mark but this flea")
	second := r.Analyze(FieldText, "mark but this flea")

	// Then: both calls agree and the result came from the cache
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.cache.Len())
}

func TestRegistry_Offsets(t *testing.T) {
	r := MustRegistry()
	text := "Mark but this flea / and mark in this"

	for _, tok := range r.Analyze(FieldText, text) {
		require.LessOrEqual(t, tok.End, len(text))
		assert.Less(t, tok.Start, tok.End)
	}
}

func TestRegistry_FieldsSorted(t *testing.T) {
	r := MustRegistry()
	fields := r.Fields()

	assert.Contains(t, fields, FieldText)
	assert.IsNonDecreasing(t, fields)
}

func TestPipeline_String(t *testing.T) {
	assert.Equal(t, "text", PipelineText.String())
	assert.Equal(t, "literal", PipelineLiteral.String())
	assert.Equal(t, "unknown", Pipeline(99).String())
}
