package main

import (
	"github.com/spf13/cobra"
)

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Inspect and manage modules",
	Long:  "List modules, inspect their learned state, take backups and reset stores without running the server.",
}

func init() {
	moduleCmd.AddCommand(moduleListCmd)
	moduleCmd.AddCommand(moduleInfoCmd)
	moduleCmd.AddCommand(moduleStatsCmd)
	moduleCmd.AddCommand(moduleHistoryCmd)
	moduleCmd.AddCommand(modulePatternsCmd)
	moduleCmd.AddCommand(moduleForgetCmd)
	moduleCmd.AddCommand(moduleBackupCmd)
	moduleCmd.AddCommand(moduleResetCmd)
}
