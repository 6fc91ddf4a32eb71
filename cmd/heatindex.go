package main

import (
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/bantay-panahon/stormwatch/internal/engine"
)

var (
	heatTemp     float64
	heatHumidity float64
)

var heatindexCmd = &cobra.Command{
	Use:   "heatindex",
	Short: "Compute the heat index for a temperature and humidity",
	RunE: func(_ *cobra.Command, _ []string) error {
		if heatHumidity < 0 || heatHumidity > 100 {
			return eris.Errorf("humidity must be in [0,100], got %.1f", heatHumidity)
		}

		hi := engine.CalculateHeatIndex(heatTemp, heatHumidity)
		formatHeatIndex(os.Stdout, hi)
		return nil
	},
}

func formatHeatIndex(out io.Writer, hi engine.HeatIndex) {
	_, _ = fmt.Fprintf(out, "Heat index: %d°C (%s)\n", hi.Value, hi.Category)
	if hi.SuspensionRecommended {
		_, _ = fmt.Fprintln(out, "Heat level justifies class suspension consideration.")
	}
}

func init() {
	heatindexCmd.Flags().Float64Var(&heatTemp, "temp", 0, "air temperature in °C (required)")
	heatindexCmd.Flags().Float64Var(&heatHumidity, "humidity", 0, "relative humidity in % (required)")
	_ = heatindexCmd.MarkFlagRequired("temp")
	_ = heatindexCmd.MarkFlagRequired("humidity")
	rootCmd.AddCommand(heatindexCmd)
}
