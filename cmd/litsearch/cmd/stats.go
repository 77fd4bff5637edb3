package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/litsearch/internal/index"
	"github.com/Aman-CERP/litsearch/internal/output"
)

func newStatsCmd(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show document counts per namespace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(o)
			if err != nil {
				return reportError(cmd, err)
			}
			stats := index.Stats(cmd.Context(), a.gateway)

			out := output.New(cmd.OutOrStdout())
			if o.json {
				return out.JSON(stats)
			}
			out.Stats(stats)
			return nil
		},
	}
}
