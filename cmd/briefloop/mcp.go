package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/briefloop/briefloop/internal/mcp"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run briefloop as an MCP (Model Context Protocol) server",
		Long: `Start an MCP server that exposes briefloop over stdio so AI agents
can drive intake conversations as tool calls:

  • briefloop_start   - Start a conversation and get the first question
  • briefloop_turn    - Submit an answer plus extraction, get the next question
  • briefloop_state   - Inspect slots, confidences, and coverage
  • briefloop_schema  - Show survey templates

The server communicates via JSON-RPC 2.0 over stdin/stdout, following
the Model Context Protocol specification.

Example usage in an MCP client config:

  {
    "mcpServers": {
      "briefloop": {
        "command": "briefloop",
        "args": ["mcp-server"],
        "cwd": "${workspaceFolder}"
      }
    }
  }
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "briefloop",
				Version: version,
				Root:    root,
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			// Blocks until the client disconnects or SIGTERM/SIGINT.
			if err := server.Run(context.Background()); err != nil {
				return fmt.Errorf("MCP server error: %w", err)
			}

			return nil
		},
	}

	return cmd
}
