package main

import (
	"fmt"

	"github.com/Dias221467/Employee_Manager/internal/jobs"
	"github.com/Dias221467/Employee_Manager/internal/tracker"
	"github.com/spf13/cobra"
)

func newScanCmd(load configLoader) *cobra.Command {
	var limit int64
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one schedule health scan and print the counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer a.close()

			scanner := jobs.NewHealthScanner(a.service, a.clock, a.metrics)
			scanner.Limit = limit
			result, err := scanner.RunScan(cmd.Context())
			if err != nil {
				return err
			}
			for _, status := range tracker.AllScheduleStatuses {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", status, result[status])
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&limit, "limit", jobs.DefaultScanLimit, "maximum objectives to scan")
	return cmd
}
