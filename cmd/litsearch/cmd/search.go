package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/litsearch/internal/catalog"
	"github.com/Aman-CERP/litsearch/internal/output"
	"github.com/Aman-CERP/litsearch/internal/query"
	"github.com/Aman-CERP/litsearch/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	kinds   []string
	clauses []string

	title       string
	authorFirst string
	authorLast  string
	year        int
	period      string
	topics      string
	text        string
	form        string
	charFirst   string
	charLast    string
	charGender  string
}

func newSearchCmd(o *globalOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Structured search across namespaces",
		Long: `Search with form-style criteria, structured clauses, or both.

Clauses take the form field=operator:value[:join], where operator is
term, phrase, fuzzy or range and join is MUST (default), SHOULD or MUST_NOT.

Examples:
  litsearch search --kind poem --text "the quick fox"
  litsearch search --kind poem --year 1600 --author-last Donne
  litsearch search --clause lastName=fuzzy:Herbet --clause publicationYear=range:1633`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := opts.request()
			if err != nil {
				return reportError(cmd, err)
			}
			a, err := newApp(o)
			if err != nil {
				return reportError(cmd, err)
			}
			return printResults(cmd, o, a.service.Search(cmd.Context(), req))
		},
	}

	cmd.Flags().StringSliceVarP(&opts.kinds, "kind", "k", nil, "Namespaces to search (repeatable, e.g. poem, dili)")
	cmd.Flags().StringArrayVarP(&opts.clauses, "clause", "c", nil, "Structured clause field=operator:value[:join] (repeatable)")
	cmd.Flags().StringVar(&opts.title, "title", "", "Title")
	cmd.Flags().StringVar(&opts.authorFirst, "author-first", "", "Author first name")
	cmd.Flags().StringVar(&opts.authorLast, "author-last", "", "Author last name")
	cmd.Flags().IntVar(&opts.year, "year", 0, "Publication year (matched within the configured tolerance)")
	cmd.Flags().StringVar(&opts.period, "period", "", "Literary period")
	cmd.Flags().StringVar(&opts.topics, "topics", "", "Poem topics")
	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "Text phrase")
	cmd.Flags().StringVar(&opts.form, "form", "", "Poem form")
	cmd.Flags().StringVar(&opts.charFirst, "char-first", "", "Character first name")
	cmd.Flags().StringVar(&opts.charLast, "char-last", "", "Character last name")
	cmd.Flags().StringVar(&opts.charGender, "char-gender", "", "Character gender")

	return cmd
}

func (s searchOptions) request() (*query.Request, error) {
	req := &query.Request{
		Title:           s.title,
		PublicationYear: s.year,
		Period:          s.period,
		Topics:          s.topics,
		Text:            s.text,
		Form:            s.form,
		CharFirstName:   s.charFirst,
		CharLastName:    s.charLast,
		CharGender:      s.charGender,
	}
	if s.authorFirst != "" || s.authorLast != "" {
		req.Author = &query.AuthorCriteria{FirstName: s.authorFirst, LastName: s.authorLast}
	}

	for _, k := range s.kinds {
		kind, ok := catalog.ParseKind(k)
		if !ok {
			return nil, fmt.Errorf("unknown kind %q (use one of %v)", k, catalog.Kinds())
		}
		req.Namespaces = append(req.Namespaces, kind)
	}

	for _, raw := range s.clauses {
		c, err := parseClause(raw)
		if err != nil {
			return nil, err
		}
		req.Clauses = append(req.Clauses, c)
	}
	return req, nil
}

// parseClause reads field=operator:value[:join]. A trailing segment is taken
// as the join only when it names one.
func parseClause(raw string) (query.Clause, error) {
	field, rest, ok := strings.Cut(raw, "=")
	if !ok || field == "" {
		return query.Clause{}, fmt.Errorf("clause %q must look like field=operator:value", raw)
	}
	op, value, ok := strings.Cut(rest, ":")
	if !ok {
		return query.Clause{}, fmt.Errorf("clause %q has no operator", raw)
	}

	c := query.Clause{Field: field, Operator: query.Operator(op), Value: value}
	if i := strings.LastIndex(value, ":"); i >= 0 {
		switch join := query.Join(strings.ToUpper(value[i+1:])); join {
		case query.JoinMust, query.JoinShould, query.JoinMustNot:
			c.Value = value[:i]
			c.Join = join
		}
	}
	return c, nil
}

func newBasicCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "basic <query>",
		Short: "Free-text search over text, author names and titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(o)
			if err != nil {
				return reportError(cmd, err)
			}
			return printResults(cmd, o, a.service.BasicSearch(cmd.Context(), strings.Join(args, " ")))
		},
	}
}

func newExistsCmd(o *globalOptions) *cobra.Command {
	var title, lastName string

	cmd := &cobra.Command{
		Use:   "exists",
		Short: "Check whether a poem with this title by this author is indexed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(o)
			if err != nil {
				return reportError(cmd, err)
			}
			found := a.service.SimilarExists(cmd.Context(), title, lastName)

			out := output.New(cmd.OutOrStdout())
			if o.json {
				return out.JSON(found)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), found)
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Poem title")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Author last name")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("last-name")

	return cmd
}

func newAuthorsCmd(o *globalOptions) *cobra.Command {
	var first, last string

	cmd := &cobra.Command{
		Use:   "authors",
		Short: "Find authors by first and last name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(o)
			if err != nil {
				return reportError(cmd, err)
			}
			return printResults(cmd, o, a.service.SearchAuthor(cmd.Context(), first, last))
		},
	}

	cmd.Flags().StringVar(&first, "first-name", "", "Author first name")
	cmd.Flags().StringVar(&last, "last-name", "", "Author last name")

	return cmd
}

func printResults(cmd *cobra.Command, o *globalOptions, results []search.Result) error {
	if o.json {
		return search.WriteJSON(cmd.OutOrStdout(), results)
	}
	output.New(cmd.OutOrStdout()).Results(results)
	return nil
}
