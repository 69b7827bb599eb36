package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noah-isme/timetable-api/internal/app"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Print the coverage report of the last persisted run",
	RunE:  coverage,
}

func init() {
	rootCmd.AddCommand(coverageCmd)
}

func coverage(cmd *cobra.Command, args []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		report, err := a.Services.Schedule.Coverage(ctx, term)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), report)
	})
}
