package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cadence-os/installkit/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show past install attempts recorded in the journal",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		journalPath, _ := cmd.Flags().GetString("journal")
		limit, _ := cmd.Flags().GetInt("limit")

		jdb, err := journal.Open(journalPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening install journal: %v\n", err)
			os.Exit(1)
		}
		defer jdb.Close()

		if len(args) == 1 {
			runID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid run id %q\n", args[0])
				os.Exit(1)
			}
			showRunSteps(jdb, runID)
			return
		}

		runs, err := jdb.RecentRuns(limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading install journal: %v\n", err)
			os.Exit(1)
		}
		if len(runs) == 0 {
			fmt.Println("No install attempts recorded.")
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTARTED\tTARGET\tVARIANT\tOUTCOME")
		for _, run := range runs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				run.ID, run.StartedAt.Format("2006-01-02 15:04"),
				run.TargetPath, run.Variant, run.Outcome)
		}
		w.Flush()
	},
}

func showRunSteps(jdb *journal.DB, runID int64) {
	steps, err := jdb.RunSteps(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading install journal: %v\n", err)
		os.Exit(1)
	}
	if len(steps) == 0 {
		fmt.Printf("No steps recorded for run %d.\n", runID)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSTATE\tMESSAGE")
	for _, step := range steps {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			step.RecordedAt.Format("15:04:05"), step.State, step.Message)
	}
	w.Flush()
}

func init() {
	historyCmd.Flags().String("journal", "", "install journal database path")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list")
}
