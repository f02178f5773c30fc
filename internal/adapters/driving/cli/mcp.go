package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeonardSibelius/engineroom-ai/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI agents can query the
knowledge base with the search_knowledge tool and extend it with add_article.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start a streamable HTTP server instead.

Examples:
  # Stdio mode (default, for desktop agents)
  engineroom mcp serve

  # HTTP mode (for MCP Inspector, remote agents)
  engineroom mcp serve --port 8080

Agent configuration:
  {
    "mcpServers": {
      "engineroom": {
        "command": "/path/to/engineroom",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("read-only", false, "do not expose the add_article tool")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	readOnly, err := cmd.Flags().GetBool("read-only")
	if err != nil {
		return fmt.Errorf("getting read-only flag: %w", err)
	}

	if err := requireServices(cmd.Context()); err != nil {
		return err
	}

	ports := &mcp.Ports{Retrieval: retrievalService}
	if !readOnly {
		ports.Ingest = ingestService
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
