package mail

// MailRequest is the union type for all mail service requests.
type MailRequest interface {
	isMailRequest()
}

// Ensure all request types implement MailRequest.
func (ListMessagesRequest) isMailRequest()   {}
func (SearchMessagesRequest) isMailRequest() {}
func (ListUnreadRequest) isMailRequest()     {}
func (GetMessageRequest) isMailRequest()     {}
func (ThreadContextRequest) isMailRequest()  {}
func (AttachmentInfoRequest) isMailRequest() {}
func (MailboxStatusRequest) isMailRequest()  {}
func (ListMailboxesRequest) isMailRequest()  {}

// MailResponse is the union type for all mail service responses.
type MailResponse interface {
	isMailResponse()
}

// Ensure all response types implement MailResponse.
func (ListMessagesResponse) isMailResponse()   {}
func (SearchMessagesResponse) isMailResponse() {}
func (ListUnreadResponse) isMailResponse()     {}
func (GetMessageResponse) isMailResponse()     {}
func (ThreadContextResponse) isMailResponse()  {}
func (AttachmentInfoResponse) isMailResponse() {}
func (MailboxStatusResponse) isMailResponse()  {}
func (ListMailboxesResponse) isMailResponse()  {}

// PageOptions are the caller-supplied pagination inputs shared by all
// list-like operations. Server-side limits are merged in by the service.
type PageOptions struct {
	// Limit is the requested page size. Zero means use the default.
	Limit int

	// Sort is the requested sort token ("asc" or "desc").
	Sort string

	// Cursor is the opaque continuation token from a previous page.
	Cursor string
}

// ListMessagesRequest asks for one page of a mailbox, unfiltered.
type ListMessagesRequest struct {
	Mailbox        string
	Page           PageOptions
	IncludeSnippet bool
}

// ListMessagesResponse is the response to ListMessagesRequest.
type ListMessagesResponse struct {
	Envelopes  []Envelope
	NextCursor string
	Error      error
}

// SearchMessagesRequest asks for one page of an advanced search.
type SearchMessagesRequest struct {
	Mailbox        string
	Filter         Filter
	Page           PageOptions
	IncludeSnippet bool
}

// SearchMessagesResponse is the response to SearchMessagesRequest.
type SearchMessagesResponse struct {
	Envelopes  []Envelope
	NextCursor string
	Error      error
}

// ListUnreadRequest asks for one page of unseen messages.
type ListUnreadRequest struct {
	Mailbox        string
	Page           PageOptions
	IncludeSnippet bool
}

// ListUnreadResponse is the response to ListUnreadRequest.
type ListUnreadResponse struct {
	Envelopes  []Envelope
	NextCursor string
	Error      error
}

// GetMessageRequest asks for a single message envelope.
type GetMessageRequest struct {
	Mailbox        string
	UID            uint32
	IncludeSnippet bool
}

// GetMessageResponse is the response to GetMessageRequest. A nil Envelope
// with a nil Error means the message does not exist.
type GetMessageResponse struct {
	Envelope *Envelope
	Error    error
}

// ThreadContextRequest asks for the conversation around one message,
// paginated like a search result.
type ThreadContextRequest struct {
	Mailbox        string
	UID            uint32
	Page           PageOptions
	IncludeSnippet bool
}

// ThreadContextResponse is the response to ThreadContextRequest. A missing
// target message yields Error == ErrMessageNotFound.
type ThreadContextResponse struct {
	Envelopes  []Envelope
	NextCursor string
	Error      error
}

// AttachmentInfoRequest asks for attachment metadata of one message.
type AttachmentInfoRequest struct {
	Mailbox string
	UID     uint32
}

// AttachmentInfoResponse is the response to AttachmentInfoRequest.
type AttachmentInfoResponse struct {
	Attachments []AttachmentInfo
	Error       error
}

// MailboxStatusRequest asks for mailbox counters.
type MailboxStatusRequest struct {
	Mailbox string
}

// MailboxStatusResponse is the response to MailboxStatusRequest.
type MailboxStatusResponse struct {
	Status MailboxStatus
	Error  error
}

// ListMailboxesRequest asks for the mailbox listing of the account.
type ListMailboxesRequest struct{}

// ListMailboxesResponse is the response to ListMailboxesRequest.
type ListMailboxesResponse struct {
	Mailboxes []MailboxInfo
	Error     error
}
