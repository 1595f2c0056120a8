package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var moduleStatsCmd = &cobra.Command{
	Use:   "stats <module>",
	Short: "Show learning statistics of a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runModuleStats,
}

func runModuleStats(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	stats, err := ws.registry.Stats(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), stats)
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintf(w, "Learned responses:\t%d\n", stats.LearnedResponses)
	fmt.Fprintf(w, "Total conversations:\t%d\n", stats.TotalConversations)
	fmt.Fprintf(w, "Average confidence:\t%.2f\n", stats.AvgConfidence)
	fmt.Fprintf(w, "Active patterns:\t%d\n", stats.ActivePatterns)
	if p := stats.Profile; p != nil {
		fmt.Fprintf(w, "Module type:\t%s\n", p.ModuleType)
		fmt.Fprintf(w, "Capabilities:\t%s\n", orDash(strings.Join(p.Capabilities, ", ")))
		fmt.Fprintf(w, "Response templates:\t%d\n", p.ResponseTemplates)
		fmt.Fprintf(w, "Knowledge domains:\t%d\n", p.KnowledgeDomains)
		fmt.Fprintf(w, "Discussed topics:\t%d\n", p.DiscussedTopics)

		keys := make([]string, 0, len(p.Settings))
		for k := range p.Settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %s:\t%s\n", k, p.Settings[k])
		}
	}
	w.Flush()

	return nil
}
