package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/litsearch/internal/index"
	"github.com/Aman-CERP/litsearch/internal/output"
	"github.com/Aman-CERP/litsearch/internal/store"
)

func newReindexCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild every namespace from the catalog",
		Long: `Stream every entity kind from the catalog database, map it to
documents and replace the contents of its namespace. Plays also rebuild
the dialogue-line namespace.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(o)
			if err != nil {
				return reportError(cmd, err)
			}

			reports, err := a.reindex(cmd.Context(), o)
			if err != nil {
				return reportError(cmd, err)
			}

			out := output.New(cmd.OutOrStdout())
			if o.json {
				return out.JSON(reportsJSON(reports))
			}
			printReports(out, reports)
			return nil
		},
	}
}

type reportJSON struct {
	Namespace string `json:"namespace"`
	Documents int    `json:"documents"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	Millis    int64  `json:"duration_ms"`
}

func reportsJSON(reports []index.KindReport) []reportJSON {
	out := make([]reportJSON, 0, len(reports))
	for _, r := range reports {
		j := reportJSON{
			Namespace: string(r.Kind),
			Documents: r.Documents,
			Status:    r.Result.Status.String(),
			Millis:    r.Duration.Milliseconds(),
		}
		if r.Result.Err != nil {
			j.Error = r.Result.Err.Error()
		}
		out = append(out, j)
	}
	return out
}

func printReports(out *output.Writer, reports []index.KindReport) {
	for _, r := range reports {
		if r.Result.Status == store.StatusOK {
			out.Successf("%s: %d documents in %s", r.Kind, r.Documents, r.Duration.Round(1e6))
			continue
		}
		out.Warningf("%s: %s (%v)", r.Kind, r.Result.Status, r.Result.Err)
	}
}
