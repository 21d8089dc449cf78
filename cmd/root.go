package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "graphdesk",
	Short: "Knowledge graph document workbench",
	Long: `Graphdesk drives a knowledge graph platform from the command line:
upload documents, run them through the parse/split/process pipeline,
inspect the resulting graph, and ask retrieval-grounded questions.
It integrates with AI agents via MCP for direct knowledge base access.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".graphdesk.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
