package main

import (
	"errors"
	"fmt"

	"github.com/hyperengineering/forge/internal/store"
	"github.com/spf13/cobra"
)

var modulePatternsCmd = &cobra.Command{
	Use:   "patterns <module>",
	Short: "List the learned patterns of a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runModulePatterns,
}

var moduleForgetCmd = &cobra.Command{
	Use:   "forget <module> <pattern>",
	Short: "Delete one learned pattern",
	Args:  cobra.ExactArgs(2),
	RunE:  runModuleForget,
}

func runModulePatterns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	managed, err := ws.registry.Store(ctx, args[0])
	if err != nil {
		return err
	}
	patterns, err := managed.Store.GetPatterns(ctx)
	if err != nil {
		return fmt.Errorf("list patterns: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"module":   managed.ID,
			"patterns": patterns,
			"total":    len(patterns),
		})
	}

	if len(patterns) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No patterns learned yet.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "PATTERN\tRESPONSE\tCONFIDENCE\tUSES\tLAST USED")
	for _, p := range patterns {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%d\t%s\n",
			p.Pattern,
			truncate(p.Response, 50),
			p.Confidence,
			p.UsageCount,
			formatAge(p.LastUsed),
		)
	}
	w.Flush()

	return nil
}

func runModuleForget(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pattern := args[1]

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	managed, err := ws.registry.Store(ctx, args[0])
	if err != nil {
		return err
	}
	if err := managed.Store.DeletePattern(ctx, pattern); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("pattern %q not found in module %s", pattern, managed.ID)
		}
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"module":  managed.ID,
			"pattern": pattern,
			"deleted": true,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Forgot pattern %q in module %s\n", pattern, managed.ID)
	return nil
}
