package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/bantay-panahon/stormwatch/internal/engine"
	"github.com/bantay-panahon/stormwatch/internal/model"
)

var (
	verifyCity        string
	verifyCategory    string
	verifyDescription string
	verifyFetch       bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a report claim against current telemetry",
	Long:  "Runs the credibility verifier for an ad-hoc report payload. By default the city's stored snapshot is used; --fetch pulls live telemetry first.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		report := model.Report{
			City:        verifyCity,
			Category:    model.ReportCategory(verifyCategory),
			Description: verifyDescription,
		}
		report.ApplyDefaults()

		var snapshot *model.WeatherSnapshot
		if verifyFetch {
			wc, err := initWeather()
			if err != nil {
				return err
			}
			obs, err := wc.CurrentWeather(ctx, verifyCity)
			if err == nil {
				snapshot = &model.WeatherSnapshot{
					City:        obs.City,
					Temperature: obs.Temperature,
					Humidity:    obs.Humidity,
					Rainfall:    obs.Rainfall,
					WindSpeed:   obs.WindSpeed,
					Condition:   obs.Condition,
					ObservedAt:  obs.ObservedAt,
				}
			}
		} else {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			snapshot, err = st.GetSnapshot(ctx, verifyCity)
			if err != nil {
				return err
			}
		}

		cred := engine.VerifyReport(report, snapshot)
		printCredibility(os.Stdout, cred)
		return nil
	},
}

func init() {
	verifyCmd.Flags().StringVar(&verifyCity, "city", "", "city of the claim (required)")
	verifyCmd.Flags().StringVar(&verifyCategory, "category", "other", "hazard category")
	verifyCmd.Flags().StringVar(&verifyDescription, "description", "", "claim description")
	verifyCmd.Flags().BoolVar(&verifyFetch, "fetch", false, "fetch live telemetry instead of the stored snapshot")
	_ = verifyCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(verifyCmd)
}
