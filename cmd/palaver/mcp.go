package main

import (
	"fmt"

	"github.com/aretw0/palaver/internal/cli"
	"github.com/aretw0/palaver/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes sessions and conversations as MCP tools, and owners and their
dialogue graphs as MCP resources, so AI agents can play conversations.

Supported Transports:
- stdio (default): JSON-RPC over Standard Input/Output. Logs go to stderr.
- sse: Server-Sent Events over HTTP, for remote agents or debuggers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		if transport != "stdio" && transport != "sse" {
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		app, err := newApp(cmd, transport == "stdio")
		if err != nil {
			return err
		}
		defer app.Close()
		logger := app.Logger

		srv := mcp.NewServer(app.Game, mcp.WithLogger(logger))
		if transport == "sse" {
			logger.Info("Starting Palaver MCP Server (SSE)", "port", port, "world", cfg.World)
			err = srv.ServeSSE(sigCtx, fmt.Sprintf(":%d", port), fmt.Sprintf("http://localhost:%d", port))
		} else {
			logger.Info("Starting Palaver MCP Server (Stdio)", "world", cfg.World)
			err = srv.ServeStdio(sigCtx, cmd.InOrStdin(), cmd.OutOrStdout())
		}
		if err != nil {
			return err
		}
		logger.Info("MCP Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
