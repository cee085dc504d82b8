package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gridpilot-ai/gridpilot/internal/history"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past automation runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		for _, run := range runs {
			fmt.Printf("%s  %-9s  %s  %s\n",
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status,
				goalTally(run),
				truncate(run.Request, 60))
			fmt.Printf("  id: %s\n", run.ID)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its goals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := types.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid run id: %w", err)
		}

		store, err := openHistory()
		if err != nil {
			return err
		}
		defer store.Close()

		run, err := store.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("run:      %s\n", run.ID)
		fmt.Printf("request:  %s\n", run.Request)
		fmt.Printf("status:   %s (%s goals)\n", run.Status, goalTally(run))
		fmt.Printf("started:  %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
		if run.CompletedAt != nil {
			fmt.Printf("finished: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
		}
		if run.Error != "" {
			fmt.Printf("error:    %s\n", run.Error)
		}

		goals, err := store.ListGoals(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(goals) > 0 {
			fmt.Println("\ngoals:")
			for _, g := range goals {
				fmt.Printf("  %-10s %s: %s\n", "["+g.Status+"]", g.GoalID, g.Description)
				if g.Error != "" {
					fmt.Printf("             error: %s\n", g.Error)
				}
			}
		}
		return nil
	},
}

func openHistory() (*history.Store, error) {
	if cfg.History.Path == "" {
		return nil, fmt.Errorf("run history is disabled (history.path is empty)")
	}
	return history.Open(cfg.History.Path)
}

func goalTally(run *history.Run) string {
	return strconv.Itoa(run.GoalsCompleted) + "/" + strconv.Itoa(run.GoalsTotal)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func init() {
	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list")
	historyCmd.AddCommand(historyListCmd, historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
