package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bantay-panahon/stormwatch/internal/model"
	"github.com/bantay-panahon/stormwatch/pkg/openweather"
)

var (
	weatherCities []string
	weatherJSON   bool
)

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "City weather telemetry",
}

var weatherFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch current telemetry for monitored cities and persist snapshots",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cities := weatherCities
		if len(cities) == 0 {
			cities = cfg.OpenWeather.Cities
		}
		if len(cities) == 0 {
			return eris.New("no cities configured (set openweather.cities or --city)")
		}

		wc, err := initWeather()
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snapshots, err := fetchSnapshots(cmd, wc, cities)
		if err != nil {
			return err
		}
		if len(snapshots) == 0 {
			return eris.New("no telemetry could be fetched")
		}

		if err := st.SaveSnapshots(ctx, snapshots); err != nil {
			return err
		}

		if weatherJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(snapshots)
		}
		formatSnapshots(os.Stdout, snapshots)
		return nil
	},
}

// fetchSnapshots pulls telemetry for each city concurrently. A failed city is
// logged and skipped rather than failing the batch.
func fetchSnapshots(cmd *cobra.Command, wc openweather.Client, cities []string) ([]model.WeatherSnapshot, error) {
	var (
		mu        sync.Mutex
		snapshots []model.WeatherSnapshot
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(4)
	for _, city := range cities {
		city := city
		g.Go(func() error {
			obs, err := wc.CurrentWeather(ctx, city)
			if err != nil {
				zap.L().Warn("weather fetch failed", zap.String("city", city), zap.Error(err))
				return nil
			}
			mu.Lock()
			snapshots = append(snapshots, model.WeatherSnapshot{
				City:        obs.City,
				Temperature: obs.Temperature,
				Humidity:    obs.Humidity,
				Rainfall:    obs.Rainfall,
				WindSpeed:   obs.WindSpeed,
				Condition:   obs.Condition,
				ObservedAt:  obs.ObservedAt,
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "fetch telemetry")
	}
	return snapshots, nil
}

// formatSnapshots writes a tabular telemetry summary to out.
func formatSnapshots(out io.Writer, snapshots []model.WeatherSnapshot) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CITY\tTEMP\tHUMIDITY\tRAIN\tWIND\tCONDITION")
	_, _ = fmt.Fprintln(w, "----\t----\t--------\t----\t----\t---------")
	for _, s := range snapshots {
		_, _ = fmt.Fprintf(w, "%s\t%.1f°C\t%.0f%%\t%.1f mm/h\t%.0f km/h\t%s\n",
			s.City, s.Temperature, s.Humidity, s.Rainfall, s.WindSpeed, s.Condition)
	}
	_ = w.Flush()
}

func init() {
	weatherFetchCmd.Flags().StringSliceVar(&weatherCities, "city", nil, "city to fetch (repeatable, default from config)")
	weatherFetchCmd.Flags().BoolVar(&weatherJSON, "json", false, "output JSON")
	weatherCmd.AddCommand(weatherFetchCmd)
	rootCmd.AddCommand(weatherCmd)
}
