package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bantay-panahon/stormwatch/internal/engine"
	"github.com/bantay-panahon/stormwatch/internal/model"
	"github.com/bantay-panahon/stormwatch/internal/store"
)

var (
	reportCity        string
	reportBarangay    string
	reportCategory    string
	reportDescription string
	reportSeverity    string
	reportUserID      string

	reportListCity     string
	reportListCategory string
	reportListStatus   string
	reportListLimit    int
	reportListJSON     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Community hazard reports",
}

var reportSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a hazard report and verify it against telemetry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		created, err := st.CreateReport(ctx, model.Report{
			City:        reportCity,
			Barangay:    reportBarangay,
			Category:    model.ReportCategory(reportCategory),
			Description: reportDescription,
			Severity:    model.Severity(reportSeverity),
			UserID:      reportUserID,
		})
		if err != nil {
			return err
		}

		// Cross-check against the city's latest snapshot. A missing snapshot
		// still yields a result; verification never blocks submission.
		snapshot, err := st.GetSnapshot(ctx, created.City)
		if err != nil {
			return err
		}
		cred := engine.VerifyReport(*created, snapshot)
		if err := st.SaveCredibility(ctx, created.ID, cred); err != nil {
			return err
		}

		fmt.Printf("Report %s submitted for %s.\n", created.ID, created.City)
		printCredibility(os.Stdout, cred)
		return nil
	},
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted reports",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		reports, err := st.ListReports(ctx, store.ReportFilter{
			City:     reportListCity,
			Category: model.ReportCategory(reportListCategory),
			Status:   model.ReportStatus(reportListStatus),
			Limit:    reportListLimit,
		})
		if err != nil {
			return eris.Wrap(err, "report list")
		}

		if len(reports) == 0 {
			fmt.Fprintln(os.Stderr, "No reports found.")
			return nil
		}

		if reportListJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		}
		formatReportsList(os.Stdout, reports)
		return nil
	},
}

// formatReportsList writes a tabular list of reports to out.
func formatReportsList(out io.Writer, reports []model.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCITY\tCATEGORY\tSEVERITY\tSTATUS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t--------\t--------\t------\t-------")
	for _, r := range reports {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncateID(r.ID), r.City, r.Category, r.Severity, r.Status,
			r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// truncateID shortens a UUID to its first segment for table display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func printCredibility(out io.Writer, cred model.CredibilityResult) {
	verdict := "NOT CREDIBLE"
	if cred.IsCredible {
		verdict = "CREDIBLE"
	}
	_, _ = fmt.Fprintf(out, "Verification: %s (confidence %d)\n", verdict, cred.Confidence)
	_, _ = fmt.Fprintf(out, "  %s\n", cred.Reason)
	if cred.Suggestion != "" {
		_, _ = fmt.Fprintf(out, "  Suggestion: %s\n", cred.Suggestion)
	}
}

func init() {
	reportSubmitCmd.Flags().StringVar(&reportCity, "city", "", "city of the report (required)")
	reportSubmitCmd.Flags().StringVar(&reportBarangay, "barangay", "", "barangay of the report")
	reportSubmitCmd.Flags().StringVar(&reportCategory, "category", "other", "hazard category")
	reportSubmitCmd.Flags().StringVar(&reportDescription, "description", "", "free-text description (required)")
	reportSubmitCmd.Flags().StringVar(&reportSeverity, "severity", "", "advisory severity (critical|high|medium|low)")
	reportSubmitCmd.Flags().StringVar(&reportUserID, "user", "", "submitting user id")
	_ = reportSubmitCmd.MarkFlagRequired("city")
	_ = reportSubmitCmd.MarkFlagRequired("description")

	reportListCmd.Flags().StringVar(&reportListCity, "city", "", "filter by city")
	reportListCmd.Flags().StringVar(&reportListCategory, "category", "", "filter by category")
	reportListCmd.Flags().StringVar(&reportListStatus, "status", "", "filter by status")
	reportListCmd.Flags().IntVar(&reportListLimit, "limit", 50, "max reports to list")
	reportListCmd.Flags().BoolVar(&reportListJSON, "json", false, "output JSON")

	reportCmd.AddCommand(reportSubmitCmd)
	reportCmd.AddCommand(reportListCmd)
	rootCmd.AddCommand(reportCmd)
}
