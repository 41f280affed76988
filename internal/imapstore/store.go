package imapstore

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/textproto"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"go.uber.org/zap"

	"github.com/FaisalFehad/imap-mail-mcp/internal/mail"
)

// refHeaderFields are the headers the thread resolver traverses.
var refHeaderFields = []string{"Message-Id", "In-Reply-To", "References"}

// Store implements mail.Store against a remote IMAP server.
type Store struct {
	cfg Config
	log *zap.Logger
}

// New creates a Store for the configured server.
func New(cfg Config, log *zap.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{cfg: cfg, log: log}, nil
}

// NewSession implements mail.Store. The mailbox is selected read-only so no
// operation can mutate flags as a side effect of fetching.
func (s *Store) NewSession(ctx context.Context,
	mailbox string) (mail.Session, error) {

	c, err := dial(ctx, s.cfg, s.log)
	if err != nil {
		return nil, err
	}

	if _, err := c.Select(mailbox, true); err != nil {
		c.Logout()
		return nil, fmt.Errorf("select mailbox %q: %w", mailbox, err)
	}

	return &session{client: c, mailbox: mailbox, log: s.log}, nil
}

// MailboxStatus implements mail.Store.
func (s *Store) MailboxStatus(ctx context.Context,
	mailbox string) (mail.MailboxStatus, error) {

	c, err := dial(ctx, s.cfg, s.log)
	if err != nil {
		return mail.MailboxStatus{}, err
	}
	defer c.Logout()

	status, err := c.Status(mailbox, []imap.StatusItem{
		imap.StatusMessages,
		imap.StatusUnseen,
		imap.StatusUidNext,
		imap.StatusUidValidity,
	})
	if err != nil {
		return mail.MailboxStatus{}, fmt.Errorf(
			"status %q: %w", mailbox, err,
		)
	}

	return mail.MailboxStatus{
		Mailbox:     mailbox,
		Messages:    status.Messages,
		Unseen:      status.Unseen,
		UIDNext:     status.UidNext,
		UIDValidity: status.UidValidity,
	}, nil
}

// ListMailboxes implements mail.Store.
func (s *Store) ListMailboxes(
	ctx context.Context) ([]mail.MailboxInfo, error) {

	c, err := dial(ctx, s.cfg, s.log)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	boxes := make(chan *imap.MailboxInfo, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.List("", "*", boxes)
	}()

	var out []mail.MailboxInfo
	for box := range boxes {
		out = append(out, mail.MailboxInfo{
			Name:       box.Name,
			Delimiter:  box.Delimiter,
			Attributes: append([]string(nil), box.Attributes...),
		})
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("list mailboxes: %w", err)
	}
	return out, nil
}

// session is one read-only selected-mailbox connection.
type session struct {
	client  *client.Client
	mailbox string
	log     *zap.Logger
}

// Search implements mail.Session.
func (s *session) Search(_ context.Context,
	criteria *imap.SearchCriteria) ([]uint32, error) {

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", s.mailbox, err)
	}
	return uids, nil
}

// FetchHeaderRefs implements mail.Session.
func (s *session) FetchHeaderRefs(_ context.Context,
	uid uint32) (mail.HeaderRefs, error) {

	section := &imap.BodySectionName{
		BodyPartName: imap.BodyPartName{
			Specifier: imap.HeaderSpecifier,
			Fields:    refHeaderFields,
		},
		Peek: true,
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var refs mail.HeaderRefs
	found := false
	for msg := range messages {
		literal := msg.GetBody(section)
		if literal == nil {
			continue
		}
		header, err := readHeader(literal)
		if err != nil {
			return mail.HeaderRefs{}, fmt.Errorf(
				"parse headers of uid %d: %w", uid, err,
			)
		}
		refs = mail.HeaderRefs{
			MessageID:  header.Get("Message-Id"),
			InReplyTo:  header.Get("In-Reply-To"),
			References: splitReferences(header.Get("References")),
		}
		found = true
	}
	if err := <-done; err != nil {
		return mail.HeaderRefs{}, fmt.Errorf(
			"fetch headers of uid %d: %w", uid, err,
		)
	}
	if !found {
		return mail.HeaderRefs{}, mail.ErrMessageNotFound
	}
	return refs, nil
}

// FetchEnvelopes implements mail.Session.
func (s *session) FetchEnvelopes(_ context.Context, uids []uint32,
	withSnippet bool) ([]mail.RawEnvelope, error) {

	if len(uids) == 0 {
		return nil, nil
	}

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uids...)

	items := []imap.FetchItem{
		imap.FetchUid,
		imap.FetchEnvelope,
		imap.FetchFlags,
		imap.FetchInternalDate,
	}
	var bodySection *imap.BodySectionName
	if withSnippet {
		// Peek keeps the fetch from setting \Seen on the server.
		bodySection = &imap.BodySectionName{Peek: true}
		items = append(items, bodySection.FetchItem())
	}

	messages := make(chan *imap.Message, len(uids)+1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	out := make([]mail.RawEnvelope, 0, len(uids))
	for msg := range messages {
		raw := rawFromMessage(msg)

		if bodySection != nil {
			if literal := msg.GetBody(bodySection); literal != nil {
				text, err := extractText(literal)
				if err != nil {
					// Snippets are best effort; a broken
					// MIME tree must not fail the page.
					s.log.Debug("snippet extraction failed",
						zap.Uint32("uid", msg.Uid),
						zap.Error(err),
					)
				}
				raw.BodyText = text
			}
		}

		out = append(out, raw)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch envelopes: %w", err)
	}
	return out, nil
}

// FetchAttachments implements mail.Session.
func (s *session) FetchAttachments(_ context.Context,
	uid uint32) ([]mail.AttachmentInfo, error) {

	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)
	items := []imap.FetchItem{imap.FetchUid, imap.FetchBodyStructure}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var attachments []mail.AttachmentInfo
	found := false
	for msg := range messages {
		if msg.BodyStructure == nil {
			continue
		}
		attachments = collectAttachments(msg.BodyStructure, "")
		found = true
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf(
			"fetch body structure of uid %d: %w", uid, err,
		)
	}
	if !found {
		return nil, mail.ErrMessageNotFound
	}
	return attachments, nil
}

// Close implements mail.Session.
func (s *session) Close() error {
	return s.client.Logout()
}

// rawFromMessage converts a fetched message into the store-neutral record.
func rawFromMessage(msg *imap.Message) mail.RawEnvelope {
	raw := mail.RawEnvelope{UID: msg.Uid, Date: msg.InternalDate}

	for _, f := range msg.Flags {
		if f == imap.SeenFlag {
			raw.Seen = true
		}
	}

	env := msg.Envelope
	if env == nil {
		return raw
	}

	raw.Subject = env.Subject
	raw.MessageID = env.MessageId
	raw.From = convertAddresses(env.From)
	raw.To = convertAddresses(env.To)
	if !env.Date.IsZero() {
		raw.Date = env.Date
	}
	return raw
}

// convertAddresses maps wire addresses onto the store-neutral shape.
func convertAddresses(addrs []*imap.Address) []mail.Address {
	out := make([]mail.Address, 0, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		addr := mail.Address{Name: a.PersonalName}
		if a.MailboxName != "" && a.HostName != "" {
			addr.Email = a.MailboxName + "@" + a.HostName
		}
		out = append(out, addr)
	}
	return out
}

// readHeader parses a HEADER.FIELDS literal. A missing trailing blank line
// is tolerated since servers differ on whether they send one.
func readHeader(r io.Reader) (textproto.MIMEHeader, error) {
	tr := textproto.NewReader(bufio.NewReader(r))
	header, err := tr.ReadMIMEHeader()
	if err != nil && err != io.EOF && len(header) == 0 {
		return nil, err
	}
	return header, nil
}

// splitReferences tokenizes a References header into its message-id
// entries. Entries are normally angle-bracketed and whitespace-separated,
// but bare tokens are accepted too.
func splitReferences(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	if !strings.Contains(value, "<") {
		return strings.Fields(value)
	}

	var out []string
	for {
		start := strings.IndexByte(value, '<')
		if start < 0 {
			break
		}
		rest := value[start:]
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			out = append(out, strings.TrimSpace(rest))
			break
		}
		out = append(out, rest[:end+1])
		value = rest[end+1:]
	}
	return out
}

// collectAttachments walks a body structure tree and reports every leaf
// part that presents itself as an attachment.
func collectAttachments(bs *imap.BodyStructure,
	path string) []mail.AttachmentInfo {

	var out []mail.AttachmentInfo

	if len(bs.Parts) == 0 {
		if name, ok := attachmentName(bs); ok {
			partPath := path
			if partPath == "" {
				partPath = "1"
			}
			out = append(out, mail.AttachmentInfo{
				PartPath: partPath,
				Filename: name,
				MIMEType: strings.ToLower(
					bs.MIMEType + "/" + bs.MIMESubType,
				),
				Size: bs.Size,
			})
		}
		return out
	}

	for i, part := range bs.Parts {
		childPath := fmt.Sprintf("%d", i+1)
		if path != "" {
			childPath = path + "." + childPath
		}
		out = append(out, collectAttachments(part, childPath)...)
	}
	return out
}

// attachmentName extracts the filename of an attachment part. A part
// counts as an attachment when its disposition says so or when it carries
// a filename and is not inline text.
func attachmentName(bs *imap.BodyStructure) (string, bool) {
	name := bs.DispositionParams["filename"]
	if name == "" {
		name = bs.Params["name"]
	}

	disposition := strings.ToLower(bs.Disposition)
	if disposition == "attachment" {
		return name, true
	}
	if name != "" && !strings.EqualFold(bs.MIMEType, "text") {
		return name, true
	}
	return "", false
}
