package main

import (
	"fmt"

	"github.com/aretw0/palaver/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "List the conversation owners of the world",
	RunE: func(cmd *cobra.Command, args []string) error {
		world, err := file.Load(cfg.World)
		if err != nil {
			return fmt.Errorf("error loading world: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, o := range world.Owners {
			fmt.Fprintf(out, "%-16s %-8s %s (%d nodes)\n", o.ID, o.Type, o.DisplayName, len(o.Script.Nodes))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ownersCmd)
}
