package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
)

var historyLimit int

var moduleHistoryCmd = &cobra.Command{
	Use:   "history <module>",
	Short: "Show the logged conversations of a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runModuleHistory,
}

func init() {
	moduleHistoryCmd.Flags().IntVar(&historyLimit, "limit", defaultHistoryLimit,
		"Maximum number of exchanges to show (newest first)")
}

func runModuleHistory(cmd *cobra.Command, args []string) error {
	if historyLimit < 1 || historyLimit > maxHistoryLimit {
		return fmt.Errorf("--limit must be between 1 and %d", maxHistoryLimit)
	}

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	convs, err := ws.registry.History(cmd.Context(), args[0], historyLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"conversations": convs,
			"total":         len(convs),
		})
	}

	if len(convs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No conversations yet.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "WHEN\tUSER\tRESPONSE")
	for _, c := range convs {
		fmt.Fprintf(w, "%s\t%s\t%s\n",
			formatAge(c.Timestamp),
			truncate(c.UserInput, 40),
			truncate(c.AIResponse, 60),
		)
	}
	w.Flush()

	return nil
}
