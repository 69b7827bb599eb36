package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/noah-isme/timetable-api/internal/app"
	"github.com/noah-isme/timetable-api/internal/dto"
)

var dryRun bool

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the timetable and print the coverage report",
	RunE:  generate,
}

func init() {
	generateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the run without persisting sessions")
	rootCmd.AddCommand(generateCmd)
}

func generate(cmd *cobra.Command, args []string) error {
	req := dto.GenerateTimetableRequest{Term: term}
	if cmd.Flags().Changed("dry-run") {
		req.DryRun = &dryRun
	}
	return withApp(func(ctx context.Context, a *app.App) error {
		resp, err := a.Services.Schedule.Generate(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), reportOf(resp))
	})
}

func reportOf(resp *dto.GenerateTimetableResponse) dto.CoverageReport {
	return dto.CoverageReport{
		Term:           resp.Term,
		GeneratedCount: resp.GeneratedCount,
		Coverage:       resp.Coverage,
		Unscheduled:    resp.Unscheduled,
		GeneratedAt:    resp.GeneratedAt,
	}
}
