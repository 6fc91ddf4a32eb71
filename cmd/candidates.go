package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bantay-panahon/stormwatch/internal/engine"
	"github.com/bantay-panahon/stormwatch/internal/model"
	"github.com/bantay-panahon/stormwatch/internal/store"
)

var candidatesJSON bool

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Rank cities as suspension candidates",
	Long:  "Merges stored telemetry and report aggregates into a ranked list of cities eligible for class suspension. Already-suspended cities are marked, not excluded.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snapshots, err := st.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		reports, err := st.ListReports(ctx, store.ReportFilter{})
		if err != nil {
			return err
		}
		suspended, err := st.SuspendedCities(ctx)
		if err != nil {
			return err
		}

		candidates := engine.RankCandidates(reports, snapshots, suspended)

		if candidatesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(candidates)
		}
		if len(candidates) == 0 {
			fmt.Fprintln(os.Stderr, "No suspension candidates.")
			return nil
		}
		formatCandidates(os.Stdout, candidates)
		return nil
	},
}

// formatCandidates writes a tabular candidate ranking to out.
func formatCandidates(out io.Writer, candidates []model.SuspensionCandidate) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CITY\tRISK\tCRIT\tHIGH\tTOTAL\tRAIN\tWIND\tSUSPENDED")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t----\t-----\t----\t----\t---------")
	for _, c := range candidates {
		suspended := ""
		if c.AlreadySuspended {
			suspended = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%.1f\t%.0f\t%s\n",
			c.City, c.RiskScore, c.CriticalReports, c.HighReports, c.TotalReports,
			c.Rainfall, c.WindSpeed, suspended)
	}
	_ = w.Flush()
}

func init() {
	candidatesCmd.Flags().BoolVar(&candidatesJSON, "json", false, "output JSON")
	rootCmd.AddCommand(candidatesCmd)
}
