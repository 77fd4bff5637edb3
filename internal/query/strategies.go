package query

import (
	"github.com/Aman-CERP/litsearch/internal/analysis"
	"github.com/Aman-CERP/litsearch/internal/catalog"
)

func defaultStrategies() map[catalog.Kind]Strategy {
	return map[catalog.Kind]Strategy{
		catalog.KindPoem:       poemStrategy,
		catalog.KindSection:    sectionStrategy,
		catalog.KindShortStory: shortStoryStrategy,
		catalog.KindPlay:       playStrategy,
		catalog.KindDialogue:   dialogueStrategy,
		catalog.KindCharacter:  characterStrategy,
	}
}

// workClauses are the criteria every dated work supports.
func workClauses(b *Builder, r *Request) []Node {
	var out []Node
	if r.PublicationYear != 0 {
		out = append(out, b.Year(r.PublicationYear))
	}
	if r.Period != "" {
		out = appendNode(out, b.Exact(analysis.FieldPeriod, r.Period))
	}
	if r.Text != "" {
		out = appendNode(out, b.Phrase(analysis.FieldText, r.Text))
	}
	return append(out, b.AuthorFilter(r.Author)...)
}

func poemStrategy(b *Builder, r *Request) []Node {
	var out []Node
	if r.Title != "" {
		out = appendNode(out, b.Fuzzy(analysis.FieldTitle, r.Title))
	}
	out = append(out, workClauses(b, r)...)
	if r.Form != "" {
		out = appendNode(out, b.Exact(analysis.FieldPoemForm, r.Form))
	}
	if r.Topics != "" {
		out = appendNode(out, b.Phrase(analysis.FieldTopicModel, r.Topics))
	}
	return out
}

func sectionStrategy(b *Builder, r *Request) []Node {
	return workClauses(b, r)
}

func shortStoryStrategy(b *Builder, r *Request) []Node {
	var out []Node
	if r.Title != "" {
		out = appendNode(out, b.Fuzzy(analysis.FieldTitle, r.Title))
	}
	return append(out, workClauses(b, r)...)
}

func playStrategy(b *Builder, r *Request) []Node {
	var out []Node
	if r.Title != "" {
		out = appendNode(out, b.Fuzzy(analysis.FieldTitle, r.Title))
	}
	if r.PublicationYear != 0 {
		out = append(out, b.Year(r.PublicationYear))
	}
	if r.Period != "" {
		out = appendNode(out, b.Exact(analysis.FieldPeriod, r.Period))
	}
	return append(out, b.AuthorFilter(r.Author)...)
}

// dialogueStrategy matches speeches by body text and speaking character.
func dialogueStrategy(b *Builder, r *Request) []Node {
	var out []Node
	if r.Text != "" {
		out = appendNode(out, b.Phrase(analysis.FieldText, r.Text))
	}
	if r.CharFirstName != "" {
		out = appendNode(out, b.Fuzzy(analysis.FieldActorFirstName, r.CharFirstName))
	}
	if r.CharLastName != "" {
		out = appendNode(out, b.Fuzzy(analysis.FieldActorLastName, r.CharLastName))
	}
	return out
}

func characterStrategy(b *Builder, r *Request) []Node {
	var out []Node
	if r.CharFirstName != "" {
		out = appendNode(out, b.Fuzzy(analysis.FieldCharFirstName, r.CharFirstName))
	}
	if r.CharLastName != "" {
		out = appendNode(out, b.Fuzzy(analysis.FieldCharLastName, r.CharLastName))
	}
	if r.CharGender != "" {
		out = appendNode(out, b.Exact(analysis.FieldCharGender, r.CharGender))
	}
	if r.Text != "" {
		out = appendNode(out, b.Phrase(analysis.FieldText, r.Text))
	}
	return append(out, b.AuthorFilter(r.Author)...)
}

// Author builds the author lookup: an exact first name and an exact last
// name, where a multi-word last name is matched as a phrase.
func (b *Builder) Author(firstName, lastName string) Node {
	var out []Node
	if firstName != "" {
		out = appendNode(out, b.Exact(analysis.FieldFirstName, firstName))
	}
	if lastName != "" {
		out = appendNode(out, b.Field(lastName, analysis.FieldLastName))
	}
	if len(out) == 0 {
		return MatchNone{}
	}
	return and(append([]Node{b.category(catalog.KindAuthor)}, out...))
}

// SimilarTitle is the duplicate-submission probe: the author's last name
// and the title as a phrase, both required.
func (b *Builder) SimilarTitle(title, lastName string) Node {
	last := b.Exact(analysis.FieldLastName, lastName)
	t := b.Field(title, analysis.FieldTitle)
	if last == nil || t == nil {
		return MatchNone{}
	}
	return and([]Node{last, t})
}

// Basic matches free text against text, first name, last name and title;
// any field may match.
func (b *Builder) Basic(text string) Node {
	var should []Node
	for _, f := range BasicFields() {
		should = appendNode(should, b.Field(text, f))
	}
	return or(should)
}

// BasicFields are the fields a basic search covers.
func BasicFields() []string {
	return []string{
		analysis.FieldText,
		analysis.FieldFirstName,
		analysis.FieldLastName,
		analysis.FieldTitle,
	}
}

// BasicKinds are the namespaces a basic search covers.
func BasicKinds() []catalog.Kind {
	return []catalog.Kind{
		catalog.KindPoem, catalog.KindSection, catalog.KindShortStory,
		catalog.KindPlay, catalog.KindDialogue,
	}
}
