// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-markup/internal/history"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent batch submissions",
	Long: `History lists the submissions recorded in the job history, most recent
first, with their outcome. Use --format yaml or json to export the full
records including the submitted operations.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", history.DefaultLimit, "maximum number of jobs to list")
	historyCmd.Flags().String("format", "table", "output format: table, yaml or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	cfg := appConfig()
	store, err := history.Open(cfg.History)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("job history is disabled (history.backend is %q)", cfg.History.Backend)
	}
	defer store.Close()

	jobs, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if format != "table" {
		return history.Export(os.Stdout, jobs, format)
	}
	printJobs(jobs)
	return nil
}

func printJobs(jobs []types.Job) {
	if len(jobs) == 0 {
		fmt.Println("No submissions recorded.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-20s  %-9s  %-4s  %-3s  %-30s  %s\n",
		"Submitted", "Status", "HTTP", "Ops", "Files", "Result")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, j := range jobs {
		files := strings.Join(j.Files, ", ")
		if len(files) > 30 {
			files = files[:27] + "..."
		}
		outcome := j.ResultName
		if j.Status != types.JobSucceeded {
			outcome = j.Error
		}
		status := "-"
		if j.HTTPStatus != 0 {
			status = fmt.Sprint(j.HTTPStatus)
		}
		fmt.Fprintf(os.Stdout, "%-20s  %-9s  %-4s  %-3d  %-30s  %s\n",
			j.SubmittedAt.Local().Format("2006-01-02 15:04:05"), j.Status, status, j.OperationCount, files, outcome)
	}

	fmt.Fprintf(os.Stdout, "\n%d jobs\n", len(jobs))
}
