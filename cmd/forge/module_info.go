package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperengineering/forge/internal/moduleconfig"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var moduleInfoCmd = &cobra.Command{
	Use:   "info <module>",
	Short: "Show details of a module",
	Args:  cobra.ExactArgs(1),
	RunE:  runModuleInfo,
}

func runModuleInfo(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	info, err := ws.registry.Info(args[0])
	if err != nil {
		return err
	}
	cfg, err := ws.registry.Config(info.ID)
	if err != nil {
		return err
	}
	areas := lo.Map(cfg.KnowledgeAreas, func(a moduleconfig.KnowledgeArea, _ int) string { return a.Name })

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"module":          info,
			"knowledge_areas": areas,
			"templates":       cfg.Templates.Count(),
			"behavior":        cfg.Behavior,
			"store_exists":    ws.stores.Exists(info.ID),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Module:       %s\n", info.ID)
	fmt.Fprintf(out, "Name:         %s\n", info.Name)
	fmt.Fprintf(out, "Version:      %s\n", orDash(info.Version))
	fmt.Fprintf(out, "Description:  %s\n", orDash(info.Description))
	fmt.Fprintf(out, "Category:     %s\n", orDash(info.Category))
	fmt.Fprintf(out, "Source:       %s\n", info.Source)
	fmt.Fprintf(out, "Templates:    %d\n", cfg.Templates.Count())
	fmt.Fprintf(out, "Knowledge:    %s\n", orDash(strings.Join(areas, ", ")))
	if len(cfg.CustomResponses) > 0 {
		triggers := lo.Map(cfg.CustomResponses, func(c moduleconfig.CustomResponse, _ int) string { return c.Trigger })
		sort.Strings(triggers)
		fmt.Fprintf(out, "Triggers:     %s\n", strings.Join(triggers, ", "))
	}
	fmt.Fprintf(out, "Style:        %s, %s, creativity %d\n",
		cfg.Behavior.ResponseStyle, cfg.Behavior.VerbosityLevel, cfg.Behavior.CreativityLevel)
	fmt.Fprintf(out, "Store:        %s\n", lo.Ternary(ws.stores.Exists(info.ID), "present", "not created yet"))

	return nil
}
