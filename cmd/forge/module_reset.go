package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var resetForce bool

var moduleResetCmd = &cobra.Command{
	Use:   "reset <module>",
	Short: "Delete everything a module has learned",
	Long:  "Unload a module and permanently delete its store. The definition stays; the next conversation starts from an empty store. Requires --force or interactive confirmation.",
	Args:  cobra.ExactArgs(1),
	RunE:  runModuleReset,
}

func init() {
	moduleResetCmd.Flags().BoolVar(&resetForce, "force", false,
		"Skip confirmation prompt")
}

func runModuleReset(cmd *cobra.Command, args []string) error {
	ws, err := openWorkspace(cmd)
	if err != nil {
		return err
	}
	defer ws.Close()

	info, err := ws.registry.Info(args[0])
	if err != nil {
		return err
	}

	// Interactive confirmation unless --force
	if !resetForce {
		errOut := cmd.ErrOrStderr()
		fmt.Fprintf(errOut, "WARNING: This will permanently delete everything module %q has learned.\n", info.ID)
		fmt.Fprint(errOut, "Type the module ID to confirm: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}

		if strings.TrimSpace(input) != info.ID {
			fmt.Fprintln(errOut, "Aborted. Module ID did not match.")
			return nil
		}
	}

	if err := ws.registry.Reset(cmd.Context(), info.ID); err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":    info.ID,
			"reset": true,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reset module %q\n", info.ID)
	return nil
}
