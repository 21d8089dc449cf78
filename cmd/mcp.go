package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/graphdesk/graphdesk/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server exposing the knowledge base over stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout so MCP clients
(editors, agents) can search the knowledge base, read document content,
and fetch the graph. All diagnostics go to stderr; stdout carries only
the protocol stream.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().Int64("kb", 0, "knowledge base id (overrides config)")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	client, err := requireAuthClient(cfg, store)
	if err != nil {
		return err
	}

	kbFlag, _ := cmd.Flags().GetInt64("kb")
	kbID, err := resolveKB(cfg, kbFlag)
	if err != nil {
		return err
	}
	settings, err := retrievalSettings(cfg, store)
	if err != nil {
		return err
	}

	mcpserver.Version = Version
	srv := mcpserver.NewServer(client, kbID, settings)

	fmt.Fprintf(os.Stderr, "mcp server ready (knowledge base %d)\n", kbID)
	return srv.Serve()
}
