package mail

import (
	"context"
	"time"

	"github.com/emersion/go-imap"
)

// Store is the narrow capability set this package needs from the external
// message store. Implementations own connection lifecycle; the service
// acquires one session per operation and releases it on every exit path.
type Store interface {
	// NewSession opens a read-only session on the named mailbox.
	NewSession(ctx context.Context, mailbox string) (Session, error)

	// MailboxStatus returns counters for the named mailbox.
	MailboxStatus(ctx context.Context,
		mailbox string) (MailboxStatus, error)

	// ListMailboxes enumerates the mailboxes visible to the account.
	ListMailboxes(ctx context.Context) ([]MailboxInfo, error)
}

// Session is a scoped, read-only view of one selected mailbox.
type Session interface {
	// Search evaluates a predicate and returns the matching UID set.
	// The result carries no ordering guarantee and an empty result is
	// not an error.
	Search(ctx context.Context,
		criteria *imap.SearchCriteria) ([]uint32, error)

	// FetchHeaderRefs returns the reference-bearing headers of one
	// message, or ErrMessageNotFound.
	FetchHeaderRefs(ctx context.Context, uid uint32) (HeaderRefs, error)

	// FetchEnvelopes bulk-fetches raw envelope records for the given
	// UIDs. Records for unknown UIDs are simply absent from the result.
	// withSnippet additionally fetches and decodes body text.
	FetchEnvelopes(ctx context.Context, uids []uint32,
		withSnippet bool) ([]RawEnvelope, error)

	// FetchAttachments returns attachment metadata derived from the
	// message body structure, or ErrMessageNotFound.
	FetchAttachments(ctx context.Context,
		uid uint32) ([]AttachmentInfo, error)

	// Close releases the session and its connection.
	Close() error
}

// HeaderRefs are the raw header values the thread resolver traverses.
type HeaderRefs struct {
	// MessageID is the raw Message-Id header value.
	MessageID string

	// InReplyTo is the raw In-Reply-To header value, if any.
	InReplyTo string

	// References are the raw entries of the References header, if any.
	References []string
}

// Address is one mailbox participant.
type Address struct {
	Name  string
	Email string
}

// RawEnvelope is a store record before output assembly.
type RawEnvelope struct {
	UID       uint32
	Subject   string
	From      []Address
	To        []Address
	Date      time.Time
	MessageID string
	Seen      bool

	// BodyText is the decoded plain-text body, present only when the
	// fetch requested snippet material.
	BodyText string
}

// MailboxStatus summarizes one mailbox.
type MailboxStatus struct {
	Mailbox     string
	Messages    uint32
	Unseen      uint32
	UIDNext     uint32
	UIDValidity uint32
}

// MailboxInfo describes one mailbox in a listing.
type MailboxInfo struct {
	Name       string
	Delimiter  string
	Attributes []string
}

// AttachmentInfo is attachment metadata from the body structure; content is
// never downloaded.
type AttachmentInfo struct {
	// PartPath is the dotted MIME part path, e.g. "2" or "1.2".
	PartPath string

	Filename string
	MIMEType string

	// Size is the encoded size in bytes as reported by the store.
	Size uint32
}
