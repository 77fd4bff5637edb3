package query

import (
	"github.com/Aman-CERP/litsearch/internal/catalog"
)

// Operator is a clause's match type.
type Operator string

const (
	OpTerm   Operator = "term"
	OpPhrase Operator = "phrase"
	OpFuzzy  Operator = "fuzzy"
	OpRange  Operator = "range"
)

// Join is how a clause combines with the others.
type Join string

const (
	JoinMust    Join = "MUST"
	JoinShould  Join = "SHOULD"
	JoinMustNot Join = "MUST_NOT"
)

// Clause is one structured search criterion. An empty Join means MUST.
type Clause struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Join     Join     `json:"join,omitempty"`
}

// AuthorCriteria filters by author name.
type AuthorCriteria struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// Request is a search request. Clauses and the form-style criteria may be
// combined; both must match. Target namespaces are the union of Namespaces
// and the Search* flags, defaulting to every searchable kind.
type Request struct {
	Clauses    []Clause       `json:"clauses,omitempty"`
	Namespaces []catalog.Kind `json:"namespaces,omitempty"`

	Title           string          `json:"title,omitempty"`
	Author          *AuthorCriteria `json:"author,omitempty"`
	PublicationYear int             `json:"publicationYear,omitempty"`
	Period          string          `json:"period,omitempty"`
	Topics          string          `json:"topics,omitempty"`
	Text            string          `json:"text,omitempty"`
	Form            string          `json:"form,omitempty"`
	CharFirstName   string          `json:"charFirstName,omitempty"`
	CharLastName    string          `json:"charLastName,omitempty"`
	CharGender      string          `json:"charGender,omitempty"`

	SearchPoems      bool `json:"searchPoems,omitempty"`
	SearchBooks      bool `json:"searchBooks,omitempty"`
	SearchCharacters bool `json:"searchBookCharacters,omitempty"`
	SearchDialog     bool `json:"searchDialog,omitempty"`
	SearchPlays      bool `json:"searchPlays,omitempty"`
	SearchStories    bool `json:"searchShortStories,omitempty"`
}

// SearchableKinds are the namespaces a request targets by default.
func SearchableKinds() []catalog.Kind {
	return []catalog.Kind{
		catalog.KindDialogue, catalog.KindPoem, catalog.KindCharacter,
		catalog.KindSection, catalog.KindShortStory, catalog.KindPlay,
	}
}

// Targets returns the namespaces to search, deduplicated, in the order
// dialogue, poems, characters, sections, short stories, plays, followed by
// any other explicitly named kind.
func (r *Request) Targets() []catalog.Kind {
	flagged := map[catalog.Kind]bool{
		catalog.KindDialogue:   r.SearchDialog,
		catalog.KindPoem:       r.SearchPoems,
		catalog.KindCharacter:  r.SearchCharacters,
		catalog.KindSection:    r.SearchBooks,
		catalog.KindShortStory: r.SearchBooks || r.SearchStories,
		catalog.KindPlay:       r.SearchPlays,
	}
	for _, k := range r.Namespaces {
		flagged[k] = true
	}

	var out []catalog.Kind
	for _, k := range SearchableKinds() {
		if flagged[k] {
			out = append(out, k)
		}
	}
	for _, k := range r.Namespaces {
		if !contains(out, k) {
			out = append(out, k)
		}
	}
	if len(out) == 0 {
		return SearchableKinds()
	}
	return out
}

// HasCriteria reports whether any form-style field is set.
func (r *Request) HasCriteria() bool {
	if r.Author != nil && (r.Author.FirstName != "" || r.Author.LastName != "") {
		return true
	}
	return r.Title != "" || r.PublicationYear != 0 || r.Period != "" || r.Topics != "" ||
		r.Text != "" || r.Form != "" || r.CharFirstName != "" || r.CharLastName != "" ||
		r.CharGender != ""
}

func contains(kinds []catalog.Kind, k catalog.Kind) bool {
	for _, have := range kinds {
		if have == k {
			return true
		}
	}
	return false
}
