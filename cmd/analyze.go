package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bantay-panahon/stormwatch/internal/model"
	"github.com/bantay-panahon/stormwatch/internal/store"
)

var (
	analyzeJSON  bool
	analyzeLimit int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a full suspension risk assessment",
	Long:  "Loads stored telemetry snapshots and recent reports, produces a risk assessment via the AI advisory (or the deterministic scorer when the AI is unavailable), and archives the result.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		advisor, err := initAdvisor()
		if err != nil {
			return err
		}

		snapshots, err := st.ListSnapshots(ctx)
		if err != nil {
			return err
		}
		reports, err := st.ListReports(ctx, store.ReportFilter{Limit: analyzeLimit})
		if err != nil {
			return err
		}

		assessment := advisor.AssessRisk(ctx, snapshots, reports)
		if err := st.SaveAssessment(ctx, assessment); err != nil {
			return eris.Wrap(err, "archive assessment")
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(assessment)
		}
		formatAssessment(os.Stdout, assessment)
		return nil
	},
}

// formatAssessment writes a human-readable assessment to out.
func formatAssessment(out io.Writer, a model.RiskAssessment) {
	_, _ = fmt.Fprintf(out, "Overall risk: %s (combined %d, weather %d, reports %d) [%s]\n",
		a.OverallRisk, a.CombinedScore, a.WeatherScore, a.ReportsScore, a.Source)

	if a.SuspensionRecommended {
		_, _ = fmt.Fprintln(out, "SUSPENSION RECOMMENDED")
	}
	if len(a.AffectedCities) > 0 {
		_, _ = fmt.Fprintf(out, "Affected cities: %s\n", strings.Join(a.AffectedCities, ", "))
	}
	if len(a.RiskFactors) > 0 {
		_, _ = fmt.Fprintln(out, "Risk factors:")
		for _, f := range a.RiskFactors {
			_, _ = fmt.Fprintf(out, "  - %s\n", f)
		}
	}

	_, _ = fmt.Fprintf(out, "\n%s\n\n", a.Advisory)
	_, _ = fmt.Fprintln(out, "Priority actions:")
	for _, action := range a.PriorityActions {
		_, _ = fmt.Fprintf(out, "  - %s\n", action)
	}
	_, _ = fmt.Fprintf(out, "\nExpected conditions: %s\n", a.ExpectedConditions)
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output JSON")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 100, "max recent reports to include")
	analyzeCmd.Flags().StringVar(&keywordsFile, "keywords", "", "YAML keyword-table overlay file")
	rootCmd.AddCommand(analyzeCmd)
}
