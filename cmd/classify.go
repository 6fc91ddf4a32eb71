package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bantay-panahon/stormwatch/internal/model"
	"github.com/bantay-panahon/stormwatch/internal/store"
)

var (
	classifyJSON  bool
	classifyLimit int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify recent reports into priority buckets",
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

		reports, err := st.ListReports(ctx, store.ReportFilter{Limit: classifyLimit})
		if err != nil {
			return err
		}

		classification := advisor.ClassifyReports(ctx, reports)

		if classifyJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(classification)
		}
		formatClassification(os.Stdout, classification)
		return nil
	},
}

// formatClassification writes a human-readable classification to out.
func formatClassification(out io.Writer, c model.ReportClassification) {
	_, _ = fmt.Fprintf(out, "Priority: %s [%s]\n", c.Priority, c.Source)
	if c.SuspensionAdvised {
		_, _ = fmt.Fprintln(out, "SUSPENSION ADVISED")
	}
	_, _ = fmt.Fprintf(out, "Reports: %d total (%d critical, %d medium, %d low)\n",
		c.TotalReports, c.CriticalCount, c.MediumCount, c.LowCount)

	if len(c.Threats) > 0 {
		_, _ = fmt.Fprintf(out, "Threats: %s\n", strings.Join(c.Threats, ", "))
	}
	if len(c.CityCounts) > 0 {
		cities := make([]string, 0, len(c.CityCounts))
		for city := range c.CityCounts {
			cities = append(cities, city)
		}
		sort.Strings(cities)
		_, _ = fmt.Fprintln(out, "Reports by city:")
		for _, city := range cities {
			_, _ = fmt.Fprintf(out, "  %s: %d\n", city, c.CityCounts[city])
		}
	}
	_, _ = fmt.Fprintf(out, "\n%s\n", c.Summary)
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output JSON")
	classifyCmd.Flags().IntVar(&classifyLimit, "limit", 100, "max recent reports to classify")
	classifyCmd.Flags().StringVar(&keywordsFile, "keywords", "", "YAML keyword-table overlay file")
	rootCmd.AddCommand(classifyCmd)
}
