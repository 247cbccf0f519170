package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the outboxd application
var rootCmd = &cobra.Command{
	Use:   "outboxd",
	Short: "Credential-backed Gmail action service",
	Long: `outboxd sends and composes Gmail messages on behalf of a trusted
frontend. It manages the Google OAuth credential lifecycle, falls back
between text generation providers, and exposes its actions as:

  - An HTTP JSON API (default)
  - An MCP (Model Context Protocol) server for AI assistants
  - One-shot CLI commands`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "outboxd version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newAuthorizeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
