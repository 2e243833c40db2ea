package main

import (
	"github.com/aretw0/palaver/internal/cli"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play <owner-id>",
	Short: "Talk to a conversation owner in the terminal",
	Long: `Starts (or resumes) a conversation with the given owner. Pick options by
number, press Enter to close a shop or continue, and type 'q' to leave.
Without --session every run uses a fresh session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		fresh, _ := cmd.Flags().GetBool("fresh")
		jsonMode, _ := cmd.Flags().GetBool("json")
		plain, _ := cmd.Flags().GetBool("plain")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		return cli.Play(sigCtx, app, cli.PlayOptions{
			OwnerID:   args[0],
			SessionID: sessionID,
			Fresh:     fresh,
			JSON:      jsonMode,
			Plain:     plain || jsonMode,
		})
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("session", "s", "", "Session ID to create or resume")
	playCmd.Flags().Bool("fresh", false, "Delete the session before playing")
	playCmd.Flags().Bool("json", false, "Run in JSON mode (JSON-Lines input/output)")
	playCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
}
