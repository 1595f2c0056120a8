package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hyperengineering/forge/internal/builder"
	"github.com/hyperengineering/forge/internal/moduleconfig"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	buildOverwrite bool
	buildPreview   bool
	buildInputs    []string
)

var buildCmd = &cobra.Command{
	Use:   "build <config.yaml>",
	Short: "Build a module definition",
	Long: "Validate a draft module definition, fill in defaults and write it to the modules directory. " +
		"With --preview the module answers sample inputs instead and nothing is written.",
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildOverwrite, "overwrite", false,
		"Replace an existing definition with the same ID")
	buildCmd.Flags().BoolVar(&buildPreview, "preview", false,
		"Run sample inputs through the module without writing it")
	buildCmd.Flags().StringArrayVar(&buildInputs, "input", nil,
		"Preview input (repeatable, default a short sample conversation)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	draft, err := readDraft(args[0])
	if err != nil {
		return err
	}

	b := builder.New(builder.WithLogger(cliLogger(cmd, cfg.Log)))

	if buildPreview {
		exchanges, err := b.Preview(cmd.Context(), draft, buildInputs)
		if err != nil {
			return reportInvalid(cmd.ErrOrStderr(), draft, err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"exchanges": exchanges})
		}
		out := cmd.OutOrStdout()
		for _, ex := range exchanges {
			fmt.Fprintf(out, "> %s\n%s\n\n", ex.Input, ex.Response)
		}
		return nil
	}

	def, err := b.Build(draft)
	if err != nil {
		return reportInvalid(cmd.ErrOrStderr(), draft, err)
	}
	path, err := b.Write(cfg.Modules.Dir, def, buildOverwrite)
	if err != nil {
		if errors.Is(err, builder.ErrDefinitionExists) {
			return fmt.Errorf("%w (use --overwrite to replace it)", err)
		}
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"id":   def.ID,
			"name": draft.Name,
			"file": def.FileName,
			"path": path,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Built module %q (%s) at %s\n", draft.Name, def.ID, path)
	return nil
}

// readDraft decodes a definition without validating it, so incomplete
// drafts can still be reported on.
func readDraft(path string) (*moduleconfig.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg moduleconfig.Config
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode draft %s: %w", path, err)
	}
	return &cfg, nil
}

// reportInvalid prints builder progress and every failing field of an
// invalid draft. Other errors pass through unchanged.
func reportInvalid(w io.Writer, draft *moduleconfig.Config, err error) error {
	var verr *moduleconfig.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	fmt.Fprintf(w, "Sections complete: %d/%d\n", builder.Progress(draft), builder.TotalSections)
	for _, m := range builder.Missing(draft) {
		fmt.Fprintf(w, "  missing: %s\n", m)
	}
	for _, f := range verr.Fields {
		fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
	}
	return moduleconfig.ErrInvalidConfig
}
