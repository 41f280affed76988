package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/FaisalFehad/imap-mail-mcp/internal/config"
	"github.com/FaisalFehad/imap-mail-mcp/internal/imapstore"
	"github.com/FaisalFehad/imap-mail-mcp/internal/logger"
	"github.com/FaisalFehad/imap-mail-mcp/internal/mail"
	"github.com/FaisalFehad/imap-mail-mcp/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdio",
	Long: `Serve connects the mailbox tools to an MCP client over stdio.

Required environment:
  IMAPMCP_IMAP_HOST       IMAP server hostname
  IMAPMCP_IMAP_USERNAME   account to authenticate as
  IMAPMCP_IMAP_PASSWORD   password (auth=password)
  IMAPMCP_IMAP_ACCESS_TOKEN  OAuth token (auth=oauthbearer)

Logs go to stderr or the configured file; stdout carries the protocol.`,
	RunE: runServe,
}

// runServe wires config, logger, store and MCP server together and runs
// the stdio transport until the client disconnects or a signal arrives.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}

	var log *zap.Logger
	if cfg.Log.Development {
		log, err = logger.New(logger.Config{
			Level:       cfg.Log.Level,
			Development: true,
			File:        cfg.Log.File,
		})
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
	} else {
		log = logger.NewProduction(cfg.Log.Level, cfg.Log.File)
	}
	defer log.Sync()

	store, err := imapstore.New(imapstore.Config{
		Host:               cfg.IMAP.Host,
		Port:               cfg.IMAP.Port,
		Username:           cfg.IMAP.Username,
		Password:           cfg.IMAP.Password,
		AccessToken:        cfg.IMAP.AccessToken,
		Auth:               imapstore.AuthMethod(cfg.IMAP.Auth),
		InsecureSkipVerify: cfg.IMAP.InsecureSkipVerify,
	}, log)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}

	server := mcp.NewServer(mcp.Config{
		Store: store,
		Limits: mail.Config{
			MaxPageSize:     cfg.Query.MaxPageSize,
			DefaultPageSize: cfg.Query.DefaultPageSize,
			SnippetLength:   cfg.Query.SnippetLength,
		},
		Logger: log,
	})

	ctx, stop := signal.NotifyContext(
		cmd.Context(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	log.Info("starting MCP server on stdio",
		zap.String("imap_host", cfg.IMAP.Host),
		zap.String("username", cfg.IMAP.Username),
	)

	if err := server.Run(ctx, &sdkmcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	log.Info("server stopped")
	return nil
}
