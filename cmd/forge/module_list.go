package main

import (
	"fmt"

	"github.com/hyperengineering/forge/internal/multistore"
	"github.com/spf13/cobra"
)

var moduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all modules",
	Args:  cobra.NoArgs,
	RunE:  runModuleList,
}

func runModuleList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	modules := ws.registry.Available()

	stores, err := ws.stores.ListStores(ctx)
	if err != nil {
		return fmt.Errorf("list stores: %w", err)
	}
	byID := make(map[string]multistore.StoreInfo, len(stores))
	for _, s := range stores {
		byID[s.ID] = s
	}

	if jsonOutput {
		items := make([]map[string]any, len(modules))
		for i, m := range modules {
			item := map[string]any{
				"id":          m.ID,
				"name":        m.Name,
				"version":     m.Version,
				"description": m.Description,
				"builtin":     m.Builtin,
				"source":      m.Source,
			}
			if s, ok := byID[m.ID]; ok {
				item["store_size_bytes"] = s.SizeBytes
				item["last_accessed"] = s.LastAccessed
			}
			items[i] = item
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"modules": items,
			"total":   len(items),
		})
	}

	if len(modules) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No modules found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tNAME\tVERSION\tSOURCE\tSTORE\tLAST USED")
	for _, m := range modules {
		size, used := "-", "-"
		if s, ok := byID[m.ID]; ok {
			size = formatSize(s.SizeBytes)
			used = formatAge(s.LastAccessed)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			m.ID,
			m.Name,
			orDash(m.Version),
			m.Source,
			size,
			used,
		)
	}
	w.Flush()

	return nil
}
