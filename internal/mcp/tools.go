package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/FaisalFehad/imap-mail-mcp/internal/mail"
)

// PageArgs are the pagination arguments shared by all list-like tools.
type PageArgs struct {
	// Limit is the maximum number of messages to return.
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of messages to return,default=50"`

	// Sort orders results by UID: desc (newest first) or asc.
	Sort string `json:"sort,omitempty" jsonschema:"Sort direction: desc (newest first, default) or asc"`

	// Cursor resumes a previous listing.
	Cursor string `json:"cursor,omitempty" jsonschema:"Opaque cursor from a previous page to continue from"`
}

// EnvelopeResult is one message in a tool result.
type EnvelopeResult struct {
	UID       uint32 `json:"uid"`
	Subject   string `json:"subject"`
	From      string `json:"from"`
	To        string `json:"to"`
	Date      string `json:"date"`
	MessageID string `json:"message_id,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
}

// PageResult is the common shape of paginated tool results.
type PageResult struct {
	Messages []EnvelopeResult `json:"messages"`

	// NextCursor continues the listing; absent on the last page.
	NextCursor string `json:"next_cursor,omitempty"`
}

func toEnvelopeResults(envs []mail.Envelope) []EnvelopeResult {
	out := make([]EnvelopeResult, 0, len(envs))
	for _, e := range envs {
		out = append(out, EnvelopeResult{
			UID:       e.UID,
			Subject:   e.Subject,
			From:      e.From,
			To:        e.To,
			Date:      e.Date,
			MessageID: e.MessageID,
			Snippet:   e.Snippet,
		})
	}
	return out
}

// receive runs one request through the mail service and unpacks the typed
// response.
func receive[T mail.MailResponse](ctx context.Context, s *Server,
	req mail.MailRequest) (T, error) {

	var zero T

	result := s.mailSvc.Receive(ctx, req)
	val, err := result.Unpack()
	if err != nil {
		return zero, err
	}

	resp, ok := val.(T)
	if !ok {
		return zero, errors.New("unexpected response type")
	}
	return resp, nil
}

// ListMessagesArgs are the arguments for the list_messages tool.
type ListMessagesArgs struct {
	Mailbox string `json:"mailbox" jsonschema:"Mailbox to list, e.g. INBOX"`
	PageArgs
	IncludeSnippet bool `json:"include_snippet,omitempty" jsonschema:"Include a short plain-text snippet per message"`
}

func (s *Server) handleListMessages(ctx context.Context,
	req *mcp.CallToolRequest, args ListMessagesArgs) (*mcp.CallToolResult, PageResult, error) {

	resp, err := receive[mail.ListMessagesResponse](ctx, s,
		mail.ListMessagesRequest{
			Mailbox:        args.Mailbox,
			Page:           pageOptions(args.PageArgs),
			IncludeSnippet: args.IncludeSnippet,
		})
	if err != nil {
		return nil, PageResult{}, err
	}
	if resp.Error != nil {
		return nil, PageResult{}, resp.Error
	}

	return nil, PageResult{
		Messages:   toEnvelopeResults(resp.Envelopes),
		NextCursor: resp.NextCursor,
	}, nil
}

// SearchMessagesArgs are the arguments for the search_messages tool. Set
// dimensions are combined with AND.
type SearchMessagesArgs struct {
	Mailbox string `json:"mailbox" jsonschema:"Mailbox to search, e.g. INBOX"`
	PageArgs
	IncludeSnippet bool `json:"include_snippet,omitempty" jsonschema:"Include a short plain-text snippet per message"`

	From      string `json:"from,omitempty" jsonschema:"Match the From header"`
	To        string `json:"to,omitempty" jsonschema:"Match the To header"`
	Cc        string `json:"cc,omitempty" jsonschema:"Match the Cc header"`
	Bcc       string `json:"bcc,omitempty" jsonschema:"Match the Bcc header"`
	Subject   string `json:"subject,omitempty" jsonschema:"Match the Subject header"`
	Body      string `json:"body,omitempty" jsonschema:"Match the message body text"`
	Keyword   string `json:"keyword,omitempty" jsonschema:"Match anywhere in the message"`
	MessageID string `json:"message_id,omitempty" jsonschema:"Match the Message-Id header"`

	Seen   bool `json:"seen,omitempty" jsonschema:"Only messages already read"`
	Unseen bool `json:"unseen,omitempty" jsonschema:"Only messages not yet read"`

	ReceivedOn     string `json:"received_on,omitempty" jsonschema:"Received on this calendar day (YYYY-MM-DD)"`
	ReceivedSince  string `json:"received_since,omitempty" jsonschema:"Received on or after this date (YYYY-MM-DD or RFC 3339)"`
	ReceivedBefore string `json:"received_before,omitempty" jsonschema:"Received before this date; a bare day is inclusive (YYYY-MM-DD or RFC 3339)"`
	SentOn         string `json:"sent_on,omitempty" jsonschema:"Sent on this calendar day (YYYY-MM-DD)"`
	SentSince      string `json:"sent_since,omitempty" jsonschema:"Sent on or after this date (YYYY-MM-DD or RFC 3339)"`
	SentBefore     string `json:"sent_before,omitempty" jsonschema:"Sent before this date; a bare day is inclusive (YYYY-MM-DD or RFC 3339)"`
}

func (s *Server) handleSearchMessages(ctx context.Context,
	req *mcp.CallToolRequest, args SearchMessagesArgs) (*mcp.CallToolResult, PageResult, error) {

	filter := mail.Filter{
		From:           args.From,
		To:             args.To,
		Cc:             args.Cc,
		Bcc:            args.Bcc,
		Subject:        args.Subject,
		Body:           args.Body,
		Keyword:        args.Keyword,
		MessageID:      args.MessageID,
		Seen:           args.Seen,
		Unseen:         args.Unseen,
		ReceivedOn:     args.ReceivedOn,
		ReceivedSince:  args.ReceivedSince,
		ReceivedBefore: args.ReceivedBefore,
		SentOn:         args.SentOn,
		SentSince:      args.SentSince,
		SentBefore:     args.SentBefore,
	}

	resp, err := receive[mail.SearchMessagesResponse](ctx, s,
		mail.SearchMessagesRequest{
			Mailbox:        args.Mailbox,
			Filter:         filter,
			Page:           pageOptions(args.PageArgs),
			IncludeSnippet: args.IncludeSnippet,
		})
	if err != nil {
		return nil, PageResult{}, err
	}
	if resp.Error != nil {
		return nil, PageResult{}, resp.Error
	}

	return nil, PageResult{
		Messages:   toEnvelopeResults(resp.Envelopes),
		NextCursor: resp.NextCursor,
	}, nil
}

// ListUnreadArgs are the arguments for the list_unread tool.
type ListUnreadArgs struct {
	Mailbox string `json:"mailbox" jsonschema:"Mailbox to list, e.g. INBOX"`
	PageArgs
	IncludeSnippet bool `json:"include_snippet,omitempty" jsonschema:"Include a short plain-text snippet per message"`
}

func (s *Server) handleListUnread(ctx context.Context,
	req *mcp.CallToolRequest, args ListUnreadArgs) (*mcp.CallToolResult, PageResult, error) {

	resp, err := receive[mail.ListUnreadResponse](ctx, s,
		mail.ListUnreadRequest{
			Mailbox:        args.Mailbox,
			Page:           pageOptions(args.PageArgs),
			IncludeSnippet: args.IncludeSnippet,
		})
	if err != nil {
		return nil, PageResult{}, err
	}
	if resp.Error != nil {
		return nil, PageResult{}, resp.Error
	}

	return nil, PageResult{
		Messages:   toEnvelopeResults(resp.Envelopes),
		NextCursor: resp.NextCursor,
	}, nil
}

// GetMessageArgs are the arguments for the get_message tool.
type GetMessageArgs struct {
	Mailbox        string `json:"mailbox" jsonschema:"Mailbox containing the message"`
	UID            uint32 `json:"uid" jsonschema:"UID of the message to fetch"`
	IncludeSnippet bool   `json:"include_snippet,omitempty" jsonschema:"Include a short plain-text snippet"`
}

// GetMessageResult is the result of the get_message tool. Found is false
// when the UID does not exist, distinguishing absence from failure.
type GetMessageResult struct {
	Found   bool            `json:"found"`
	Message *EnvelopeResult `json:"message,omitempty"`
}

func (s *Server) handleGetMessage(ctx context.Context,
	req *mcp.CallToolRequest, args GetMessageArgs) (*mcp.CallToolResult, GetMessageResult, error) {

	resp, err := receive[mail.GetMessageResponse](ctx, s,
		mail.GetMessageRequest{
			Mailbox:        args.Mailbox,
			UID:            args.UID,
			IncludeSnippet: args.IncludeSnippet,
		})
	if err != nil {
		return nil, GetMessageResult{}, err
	}
	if resp.Error != nil {
		return nil, GetMessageResult{}, resp.Error
	}

	if resp.Envelope == nil {
		return nil, GetMessageResult{Found: false}, nil
	}

	results := toEnvelopeResults([]mail.Envelope{*resp.Envelope})
	return nil, GetMessageResult{
		Found:   true,
		Message: &results[0],
	}, nil
}

// GetThreadContextArgs are the arguments for the get_thread_context tool.
type GetThreadContextArgs struct {
	Mailbox string `json:"mailbox" jsonschema:"Mailbox containing the message"`
	UID     uint32 `json:"uid" jsonschema:"UID of the message to expand into its conversation"`
	PageArgs
	IncludeSnippet bool `json:"include_snippet,omitempty" jsonschema:"Include a short plain-text snippet per message"`
}

// GetThreadContextResult is the result of the get_thread_context tool.
// Found is false when the target UID does not exist.
type GetThreadContextResult struct {
	Found      bool             `json:"found"`
	Messages   []EnvelopeResult `json:"messages,omitempty"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func (s *Server) handleGetThreadContext(ctx context.Context,
	req *mcp.CallToolRequest, args GetThreadContextArgs) (*mcp.CallToolResult, GetThreadContextResult, error) {

	resp, err := receive[mail.ThreadContextResponse](ctx, s,
		mail.ThreadContextRequest{
			Mailbox:        args.Mailbox,
			UID:            args.UID,
			Page:           pageOptions(args.PageArgs),
			IncludeSnippet: args.IncludeSnippet,
		})
	if err != nil {
		return nil, GetThreadContextResult{}, err
	}
	if errors.Is(resp.Error, mail.ErrMessageNotFound) {
		return nil, GetThreadContextResult{Found: false}, nil
	}
	if resp.Error != nil {
		return nil, GetThreadContextResult{}, resp.Error
	}

	return nil, GetThreadContextResult{
		Found:      true,
		Messages:   toEnvelopeResults(resp.Envelopes),
		NextCursor: resp.NextCursor,
	}, nil
}

// GetAttachmentInfoArgs are the arguments for the get_attachment_info tool.
type GetAttachmentInfoArgs struct {
	Mailbox string `json:"mailbox" jsonschema:"Mailbox containing the message"`
	UID     uint32 `json:"uid" jsonschema:"UID of the message to inspect"`
}

// AttachmentResult is one attachment in a get_attachment_info result.
type AttachmentResult struct {
	PartPath string `json:"part_path"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Size     uint32 `json:"size"`
}

// GetAttachmentInfoResult is the result of the get_attachment_info tool.
type GetAttachmentInfoResult struct {
	Found       bool               `json:"found"`
	Attachments []AttachmentResult `json:"attachments,omitempty"`
}

func (s *Server) handleGetAttachmentInfo(ctx context.Context,
	req *mcp.CallToolRequest, args GetAttachmentInfoArgs) (*mcp.CallToolResult, GetAttachmentInfoResult, error) {

	resp, err := receive[mail.AttachmentInfoResponse](ctx, s,
		mail.AttachmentInfoRequest{
			Mailbox: args.Mailbox,
			UID:     args.UID,
		})
	if err != nil {
		return nil, GetAttachmentInfoResult{}, err
	}
	if errors.Is(resp.Error, mail.ErrMessageNotFound) {
		return nil, GetAttachmentInfoResult{Found: false}, nil
	}
	if resp.Error != nil {
		return nil, GetAttachmentInfoResult{}, resp.Error
	}

	attachments := make([]AttachmentResult, 0, len(resp.Attachments))
	for _, a := range resp.Attachments {
		attachments = append(attachments, AttachmentResult{
			PartPath: a.PartPath,
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Size:     a.Size,
		})
	}

	return nil, GetAttachmentInfoResult{
		Found:       true,
		Attachments: attachments,
	}, nil
}

// GetMailboxStatusArgs are the arguments for the get_mailbox_status tool.
type GetMailboxStatusArgs struct {
	Mailbox string `json:"mailbox" jsonschema:"Mailbox to get status for, e.g. INBOX"`
}

// GetMailboxStatusResult is the result of the get_mailbox_status tool.
type GetMailboxStatusResult struct {
	Mailbox     string `json:"mailbox"`
	Messages    uint32 `json:"messages"`
	Unseen      uint32 `json:"unseen"`
	UIDNext     uint32 `json:"uid_next"`
	UIDValidity uint32 `json:"uid_validity"`
}

func (s *Server) handleGetMailboxStatus(ctx context.Context,
	req *mcp.CallToolRequest, args GetMailboxStatusArgs) (*mcp.CallToolResult, GetMailboxStatusResult, error) {

	resp, err := receive[mail.MailboxStatusResponse](ctx, s,
		mail.MailboxStatusRequest{Mailbox: args.Mailbox})
	if err != nil {
		return nil, GetMailboxStatusResult{}, err
	}
	if resp.Error != nil {
		return nil, GetMailboxStatusResult{}, resp.Error
	}

	return nil, GetMailboxStatusResult{
		Mailbox:     resp.Status.Mailbox,
		Messages:    resp.Status.Messages,
		Unseen:      resp.Status.Unseen,
		UIDNext:     resp.Status.UIDNext,
		UIDValidity: resp.Status.UIDValidity,
	}, nil
}

// ListMailboxesArgs are the arguments for the list_mailboxes tool.
type ListMailboxesArgs struct{}

// MailboxResult is one mailbox in a list_mailboxes result.
type MailboxResult struct {
	Name       string   `json:"name"`
	Delimiter  string   `json:"delimiter,omitempty"`
	Attributes []string `json:"attributes,omitempty"`
}

// ListMailboxesResult is the result of the list_mailboxes tool.
type ListMailboxesResult struct {
	Mailboxes []MailboxResult `json:"mailboxes"`
}

func (s *Server) handleListMailboxes(ctx context.Context,
	req *mcp.CallToolRequest, args ListMailboxesArgs) (*mcp.CallToolResult, ListMailboxesResult, error) {

	resp, err := receive[mail.ListMailboxesResponse](ctx, s,
		mail.ListMailboxesRequest{})
	if err != nil {
		return nil, ListMailboxesResult{}, err
	}
	if resp.Error != nil {
		return nil, ListMailboxesResult{}, resp.Error
	}

	mailboxes := make([]MailboxResult, 0, len(resp.Mailboxes))
	for _, m := range resp.Mailboxes {
		mailboxes = append(mailboxes, MailboxResult{
			Name:       m.Name,
			Delimiter:  m.Delimiter,
			Attributes: m.Attributes,
		})
	}

	return nil, ListMailboxesResult{Mailboxes: mailboxes}, nil
}

// pageOptions converts tool pagination arguments into service options.
func pageOptions(args PageArgs) mail.PageOptions {
	return mail.PageOptions{
		Limit:  args.Limit,
		Sort:   args.Sort,
		Cursor: args.Cursor,
	}
}
