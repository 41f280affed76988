package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/FaisalFehad/imap-mail-mcp/internal/mail"
)

// Server wraps the MCP server with the mail query service.
type Server struct {
	server  *mcp.Server
	mailSvc *mail.Service
	log     *zap.Logger
}

// Config holds configuration for the MCP server.
type Config struct {
	// Store is the message store the query service runs against.
	Store mail.Store

	// Limits are the service-side query limits.
	Limits mail.Config

	// Logger receives structured server logs. Nil disables logging.
	Logger *zap.Logger
}

// NewServer creates a new MCP server with all mailbox tools registered.
func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "imap-mail-mcp",
		Version: "0.1.0",
	}, nil)

	s := &Server{
		server:  mcpServer,
		mailSvc: mail.NewService(cfg.Store, cfg.Limits, log),
		log:     log,
	}

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// registerTools registers all mailbox query tools.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_messages",
		Description: "List messages in a mailbox, newest first, with cursor pagination",
	}, s.handleListMessages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_messages",
		Description: "Search a mailbox by sender, recipients, subject, body, read state and date ranges",
	}, s.handleSearchMessages)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_unread",
		Description: "List unread messages in a mailbox",
	}, s.handleListUnread)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_message",
		Description: "Fetch one message envelope with an optional text snippet",
	}, s.handleGetMessage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_thread_context",
		Description: "Fetch the conversation around one message via its reference headers",
	}, s.handleGetThreadContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_attachment_info",
		Description: "List attachment metadata of one message without downloading content",
	}, s.handleGetAttachmentInfo)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_mailbox_status",
		Description: "Get message and unread counts for a mailbox",
	}, s.handleGetMailboxStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_mailboxes",
		Description: "List the mailboxes of the account",
	}, s.handleListMailboxes)
}
