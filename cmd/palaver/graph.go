package main

import (
	"fmt"

	"github.com/aretw0/palaver/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <owner-id>",
	Short: "Export an owner's dialogue graph as Mermaid",
	Long: `Outputs a Mermaid diagram (graph TD) of the owner's dialogue script. With
--session, the nodes visited by that session's active conversation and its
current node are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ownerID := args[0]
		sessionID, _ := cmd.Flags().GetString("session")

		app, err := newApp(cmd, true)
		if err != nil {
			return err
		}
		defer app.Close()

		g, err := app.Game.Graph(cmd.Context(), ownerID)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if sessionID != "" {
			sess, err := app.Game.Session(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			if state := sess.ActiveConversation(); state != nil && state.OwnerID == ownerID {
				overlay = graph.OverlayFor(state)
			}
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(g, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().StringP("session", "s", "", "Highlight the conversation state of this session")
}
