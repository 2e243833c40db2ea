package main

import (
	"fmt"
	"os"

	"github.com/aretw0/palaver/internal/cli"
	"github.com/aretw0/palaver/internal/config"
	"github.com/spf13/cobra"
)

// cfg is loaded from the environment, then overridden by flags.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "palaver",
	Short: "Palaver runs NPC conversations authored as node graphs",
	Long: `Palaver interprets dialogue graphs (lines, choices, branches, shops and
world-state actions) against persistent player sessions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("world") {
			loaded.World, _ = flags.GetString("world")
		}
		if flags.Changed("store") {
			loaded.Store, _ = flags.GetString("store")
		}
		if flags.Changed("session-dir") {
			loaded.SessionDir, _ = flags.GetString("session-dir")
		}
		if flags.Changed("debug") {
			loaded.Debug, _ = flags.GetBool("debug")
		}
		loaded.Normalize()
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("world", "w", "world.yaml", "World file or directory (env PALAVER_WORLD)")
	rootCmd.PersistentFlags().String("store", config.StoreFile, "Session store: memory, file or redis (env PALAVER_STORE)")
	rootCmd.PersistentFlags().String("session-dir", ".palaver/sessions", "Directory of the file session store")
	rootCmd.PersistentFlags().Bool("debug", false, "Log at debug level and surface content diagnostics")
}

// newApp builds the game from cfg. Quiet commands keep the terminal for the
// conversation and only log warnings unless --debug is set.
func newApp(cmd *cobra.Command, quiet bool) (*cli.App, error) {
	c := cfg
	if quiet && !c.Debug {
		c.LogLevel = "warn"
	}
	logger, err := cli.NewLogger(c)
	if err != nil {
		return nil, err
	}
	return cli.NewApp(cmd.Context(), c, logger)
}
