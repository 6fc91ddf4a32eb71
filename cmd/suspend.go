package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bantay-panahon/stormwatch/internal/store"
)

var (
	suspendReason string
	suspendLift   bool
)

var suspendCmd = &cobra.Command{
	Use:   "suspend <city>",
	Short: "Issue or lift a class suspension for a city",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		city := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if suspendLift {
			if err := st.LiftSuspension(ctx, city); err != nil {
				return err
			}
			fmt.Printf("Suspension lifted for %s.\n", city)
			return nil
		}

		if err := st.SuspendCity(ctx, city, suspendReason); err != nil {
			return err
		}
		fmt.Printf("Classes suspended for %s.\n", city)
		return nil
	},
}

var suspensionsCmd = &cobra.Command{
	Use:   "suspensions",
	Short: "List suspension history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		suspensions, err := st.ListSuspensions(ctx)
		if err != nil {
			return err
		}
		if len(suspensions) == 0 {
			fmt.Fprintln(os.Stderr, "No suspensions recorded.")
			return nil
		}
		formatSuspensions(os.Stdout, suspensions)
		return nil
	},
}

func formatSuspensions(out io.Writer, suspensions []store.Suspension) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CITY\tACTIVE\tISSUED\tREASON")
	_, _ = fmt.Fprintln(w, "----\t------\t------\t------")
	for _, s := range suspensions {
		active := ""
		if s.Active {
			active = "yes"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.City, active, s.IssuedAt.Format("2006-01-02 15:04"), s.Reason)
	}
	_ = w.Flush()
}

func init() {
	suspendCmd.Flags().StringVar(&suspendReason, "reason", "", "reason for the suspension")
	suspendCmd.Flags().BoolVar(&suspendLift, "lift", false, "lift an active suspension instead of issuing one")
	rootCmd.AddCommand(suspendCmd)
	rootCmd.AddCommand(suspensionsCmd)
}
