package main

import (
	"fmt"

	"github.com/aretw0/palaver/internal/validator"
	"github.com/aretw0/palaver/pkg/adapters/file"
	"github.com/aretw0/palaver/pkg/registry"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every dialogue graph of the world for consistency",
	Long: `Loads the world and reports, per owner, missing Start nodes, dangling
connections, unwired ports, unknown conditions or actions and unreachable nodes.
Warnings do not fail the command; errors do.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		world, err := file.Load(cfg.World)
		if err != nil {
			return fmt.Errorf("error loading world: %w", err)
		}

		report, err := validator.ValidateStore(cmd.Context(), world.ScriptStore(), registry.NewDefault())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, issue := range report.Issues {
			fmt.Fprintln(out, issue.String())
		}
		if report.HasErrors() {
			return fmt.Errorf("validation failed: %w", report.Err())
		}
		fmt.Fprintf(out, "World is valid (%d owners, %d warnings).\n",
			len(world.Owners), report.Count(validator.SeverityWarning))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
