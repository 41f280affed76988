package mail

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap"
)

// MockMessage is one scripted message in a MockStore mailbox.
type MockMessage struct {
	UID         uint32
	Subject     string
	From        []Address
	To          []Address
	Cc          string
	Bcc         string
	Date        time.Time
	InternalAt  time.Time
	MessageID   string
	InReplyTo   string
	References  []string
	Seen        bool
	Body        string
	Attachments []AttachmentInfo
}

// MockStore is an in-memory Store used by tests. It evaluates the same
// predicate shape the real store receives, so service tests exercise the
// compiled criteria end to end. It also counts calls and can inject
// transient failures to exercise the retry path.
type MockStore struct {
	mu        sync.Mutex
	mailboxes map[string][]MockMessage

	// FailNextSearches makes that many upcoming Search calls fail with
	// a transport-style error.
	FailNextSearches int

	// SessionsOpened counts NewSession calls.
	SessionsOpened int

	// SearchCalls counts Search calls across all sessions.
	SearchCalls int
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{mailboxes: make(map[string][]MockMessage)}
}

// AddMessage appends a message to the named mailbox.
func (m *MockStore) AddMessage(mailbox string, msg MockMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mailboxes[mailbox] = append(m.mailboxes[mailbox], msg)
}

// NewSession implements Store.
func (m *MockStore) NewSession(_ context.Context,
	mailbox string) (Session, error) {

	m.mu.Lock()
	defer m.mu.Unlock()
	m.SessionsOpened++
	return &mockSession{store: m, mailbox: mailbox}, nil
}

// MailboxStatus implements Store.
func (m *MockStore) MailboxStatus(_ context.Context,
	mailbox string) (MailboxStatus, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	status := MailboxStatus{
		Mailbox:     mailbox,
		UIDValidity: 1,
		UIDNext:     1,
	}
	for _, msg := range m.mailboxes[mailbox] {
		status.Messages++
		if !msg.Seen {
			status.Unseen++
		}
		if msg.UID >= status.UIDNext {
			status.UIDNext = msg.UID + 1
		}
	}
	return status, nil
}

// ListMailboxes implements Store.
func (m *MockStore) ListMailboxes(_ context.Context) ([]MailboxInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MailboxInfo, 0, len(m.mailboxes))
	for name := range m.mailboxes {
		out = append(out, MailboxInfo{Name: name, Delimiter: "/"})
	}
	return out, nil
}

type mockSession struct {
	store   *MockStore
	mailbox string
}

// Search implements Session.
func (s *mockSession) Search(_ context.Context,
	criteria *imap.SearchCriteria) ([]uint32, error) {

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	s.store.SearchCalls++
	if s.store.FailNextSearches > 0 {
		s.store.FailNextSearches--
		return nil, errTransient
	}

	var out []uint32
	for _, msg := range s.store.mailboxes[s.mailbox] {
		if matchCriteria(msg, criteria) {
			out = append(out, msg.UID)
		}
	}
	return out, nil
}

// FetchHeaderRefs implements Session.
func (s *mockSession) FetchHeaderRefs(_ context.Context,
	uid uint32) (HeaderRefs, error) {

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, msg := range s.store.mailboxes[s.mailbox] {
		if msg.UID == uid {
			return HeaderRefs{
				MessageID:  msg.MessageID,
				InReplyTo:  msg.InReplyTo,
				References: msg.References,
			}, nil
		}
	}
	return HeaderRefs{}, ErrMessageNotFound
}

// FetchEnvelopes implements Session.
func (s *mockSession) FetchEnvelopes(_ context.Context, uids []uint32,
	withSnippet bool) ([]RawEnvelope, error) {

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	want := make(map[uint32]struct{}, len(uids))
	for _, uid := range uids {
		want[uid] = struct{}{}
	}

	var out []RawEnvelope
	for _, msg := range s.store.mailboxes[s.mailbox] {
		if _, ok := want[msg.UID]; !ok {
			continue
		}
		raw := RawEnvelope{
			UID:       msg.UID,
			Subject:   msg.Subject,
			From:      msg.From,
			To:        msg.To,
			Date:      msg.Date,
			MessageID: msg.MessageID,
			Seen:      msg.Seen,
		}
		if withSnippet {
			raw.BodyText = msg.Body
		}
		out = append(out, raw)
	}
	return out, nil
}

// FetchAttachments implements Session.
func (s *mockSession) FetchAttachments(_ context.Context,
	uid uint32) ([]AttachmentInfo, error) {

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	for _, msg := range s.store.mailboxes[s.mailbox] {
		if msg.UID == uid {
			return msg.Attachments, nil
		}
	}
	return nil, ErrMessageNotFound
}

// Close implements Session.
func (s *mockSession) Close() error { return nil }

// errTransient mimics a transport failure from the real store.
var errTransient = &transientError{}

type transientError struct{}

func (*transientError) Error() string { return "connection reset" }

// matchCriteria evaluates the subset of the predicate language the compiler
// and thread resolver emit: header terms, body/text terms, the Seen flag,
// both date axes and OR pairs.
func matchCriteria(msg MockMessage, c *imap.SearchCriteria) bool {
	if c == nil {
		return true
	}

	for field, values := range c.Header {
		for _, v := range values {
			if !headerContains(msg, field, v) {
				return false
			}
		}
	}

	haystack := strings.ToLower(msg.Body)
	for _, v := range c.Body {
		if !strings.Contains(haystack, strings.ToLower(v)) {
			return false
		}
	}
	for _, v := range c.Text {
		full := strings.ToLower(strings.Join([]string{
			msg.Subject, renderAddresses(msg.From),
			renderAddresses(msg.To), msg.Body,
		}, " "))
		if !strings.Contains(full, strings.ToLower(v)) {
			return false
		}
	}

	for _, f := range c.WithFlags {
		if f == imap.SeenFlag && !msg.Seen {
			return false
		}
	}
	for _, f := range c.WithoutFlags {
		if f == imap.SeenFlag && msg.Seen {
			return false
		}
	}

	internal := msg.InternalAt
	if internal.IsZero() {
		internal = msg.Date
	}
	if !c.Since.IsZero() && internal.Before(c.Since) {
		return false
	}
	if !c.Before.IsZero() && !internal.Before(c.Before) {
		return false
	}
	if !c.SentSince.IsZero() && msg.Date.Before(c.SentSince) {
		return false
	}
	if !c.SentBefore.IsZero() && !msg.Date.Before(c.SentBefore) {
		return false
	}

	for _, pair := range c.Or {
		if !matchCriteria(msg, pair[0]) && !matchCriteria(msg, pair[1]) {
			return false
		}
	}
	return true
}

// headerContains does the case-insensitive substring match IMAP servers
// apply to HEADER criteria.
func headerContains(msg MockMessage, field, value string) bool {
	var header string
	switch strings.ToLower(field) {
	case "from":
		header = renderAddresses(msg.From)
	case "to":
		header = renderAddresses(msg.To)
	case "cc":
		header = msg.Cc
	case "bcc":
		header = msg.Bcc
	case "subject":
		header = msg.Subject
	case "message-id":
		header = msg.MessageID
	case "in-reply-to":
		header = msg.InReplyTo
	case "references":
		header = strings.Join(msg.References, " ")
	default:
		return false
	}
	return strings.Contains(
		strings.ToLower(header), strings.ToLower(value),
	)
}
