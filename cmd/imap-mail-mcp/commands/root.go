package commands

import (
	"github.com/spf13/cobra"
)

var (
	// logLevel overrides the configured log level when set.
	logLevel string

	// logFile overrides the configured log file when set.
	logFile string
)

// rootCmd is the base command for the server binary.
var rootCmd = &cobra.Command{
	Use:   "imap-mail-mcp",
	Short: "Read-only IMAP mailbox tools over MCP",
	Long: `imap-mail-mcp exposes a read-only view of an IMAP account as MCP
tools for automated agents: paged listing, server-side search, thread
context and attachment metadata.

Configuration comes from IMAPMCP_* environment variables or a .env file;
see the serve command for the required variables.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides IMAPMCP_LOG_LEVEL)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFile, "log-file", "",
		"Log file path (overrides IMAPMCP_LOG_FILE; stderr when empty)",
	)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
