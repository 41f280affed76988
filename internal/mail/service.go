package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/emersion/go-imap"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
	"go.uber.org/zap"
)

// Config holds the service-side query limits.
type Config struct {
	// MaxPageSize is the hard cap on any page size.
	MaxPageSize int

	// DefaultPageSize is used when the caller leaves the limit unset.
	DefaultPageSize int

	// SnippetLength bounds snippet text in runes.
	SnippetLength int
}

// DefaultConfig returns the default query limits.
func DefaultConfig() Config {
	return Config{
		MaxPageSize:     200,
		DefaultPageSize: 50,
		SnippetLength:   200,
	}
}

// Service orchestrates the read-only mailbox operations: validate input,
// acquire a store session, search, paginate, hydrate. Every operation is
// idempotent against the read-only store, so the service re-runs an
// operation once after a transport failure; validation and not-found
// outcomes are never retried.
type Service struct {
	store Store
	cfg   Config
	log   *zap.Logger
}

// NewService creates a new mail query service.
func NewService(store Store, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, cfg: cfg, log: log}
}

// Receive dispatches a request to its type-specific handler.
func (s *Service) Receive(ctx context.Context,
	msg MailRequest) fn.Result[MailResponse] {

	switch m := msg.(type) {
	case ListMessagesRequest:
		resp := s.handleListMessages(ctx, m)
		return fn.Ok[MailResponse](resp)

	case SearchMessagesRequest:
		resp := s.handleSearchMessages(ctx, m)
		return fn.Ok[MailResponse](resp)

	case ListUnreadRequest:
		resp := s.handleListUnread(ctx, m)
		return fn.Ok[MailResponse](resp)

	case GetMessageRequest:
		resp := s.handleGetMessage(ctx, m)
		return fn.Ok[MailResponse](resp)

	case ThreadContextRequest:
		resp := s.handleThreadContext(ctx, m)
		return fn.Ok[MailResponse](resp)

	case AttachmentInfoRequest:
		resp := s.handleAttachmentInfo(ctx, m)
		return fn.Ok[MailResponse](resp)

	case MailboxStatusRequest:
		resp := s.handleMailboxStatus(ctx, m)
		return fn.Ok[MailResponse](resp)

	case ListMailboxesRequest:
		resp := s.handleListMailboxes(ctx, m)
		return fn.Ok[MailResponse](resp)

	default:
		return fn.Err[MailResponse](fmt.Errorf(
			"%w: %T", ErrUnknownRequestType, msg,
		))
	}
}

// handleListMessages processes a ListMessagesRequest.
func (s *Service) handleListMessages(ctx context.Context,
	req ListMessagesRequest) ListMessagesResponse {

	var resp ListMessagesResponse
	resp.Envelopes, resp.NextCursor, resp.Error = s.runQuery(
		ctx, "list_messages", req.Mailbox, req.Page,
		req.IncludeSnippet,
		func(ctx context.Context, sess Session) ([]uint32, error) {
			return sess.Search(ctx, imap.NewSearchCriteria())
		},
	)
	return resp
}

// handleSearchMessages processes a SearchMessagesRequest.
func (s *Service) handleSearchMessages(ctx context.Context,
	req SearchMessagesRequest) SearchMessagesResponse {

	var resp SearchMessagesResponse

	// An empty filter would degrade into an unfiltered listing; that is
	// what list_messages is for.
	if req.Filter.IsZero() {
		resp.Error = newValidationError(
			"filter", "",
			"at least one search dimension must be set",
		)
		return resp
	}

	// Compile before touching the store so contradictory or malformed
	// filters never cost a connection.
	criteria, err := req.Filter.Compile()
	if err != nil {
		resp.Error = err
		return resp
	}

	resp.Envelopes, resp.NextCursor, resp.Error = s.runQuery(
		ctx, "search_messages", req.Mailbox, req.Page,
		req.IncludeSnippet,
		func(ctx context.Context, sess Session) ([]uint32, error) {
			return sess.Search(ctx, criteria)
		},
	)
	return resp
}

// handleListUnread processes a ListUnreadRequest.
func (s *Service) handleListUnread(ctx context.Context,
	req ListUnreadRequest) ListUnreadResponse {

	var resp ListUnreadResponse
	resp.Envelopes, resp.NextCursor, resp.Error = s.runQuery(
		ctx, "list_unread", req.Mailbox, req.Page,
		req.IncludeSnippet,
		func(ctx context.Context, sess Session) ([]uint32, error) {
			criteria, err := Filter{Unseen: true}.Compile()
			if err != nil {
				return nil, err
			}
			return sess.Search(ctx, criteria)
		},
	)
	return resp
}

// handleGetMessage processes a GetMessageRequest.
func (s *Service) handleGetMessage(ctx context.Context,
	req GetMessageRequest) GetMessageResponse {

	var resp GetMessageResponse
	if req.Mailbox == "" {
		resp.Error = ErrMailboxRequired
		return resp
	}
	if req.UID == 0 {
		resp.Error = newValidationError(
			"uid", "0", "must be a positive message UID",
		)
		return resp
	}

	log := s.opLogger("get_message", req.Mailbox)
	resp.Error = s.withSession(ctx, log, req.Mailbox,
		func(ctx context.Context, sess Session) error {
			envs, err := s.hydrate(
				ctx, sess, []uint32{req.UID},
				req.IncludeSnippet,
			)
			if err != nil {
				return err
			}

			// Absence is an explicit empty result, not a failure.
			if len(envs) > 0 {
				resp.Envelope = &envs[0]
			}
			return nil
		},
	)
	return resp
}

// handleThreadContext processes a ThreadContextRequest.
func (s *Service) handleThreadContext(ctx context.Context,
	req ThreadContextRequest) ThreadContextResponse {

	var resp ThreadContextResponse
	if req.Mailbox == "" {
		resp.Error = ErrMailboxRequired
		return resp
	}
	if req.UID == 0 {
		resp.Error = newValidationError(
			"uid", "0", "must be a positive message UID",
		)
		return resp
	}

	resp.Envelopes, resp.NextCursor, resp.Error = s.runQuery(
		ctx, "thread_context", req.Mailbox, req.Page,
		req.IncludeSnippet,
		func(ctx context.Context, sess Session) ([]uint32, error) {
			return ResolveThread(ctx, sess, req.UID)
		},
	)
	return resp
}

// handleAttachmentInfo processes an AttachmentInfoRequest.
func (s *Service) handleAttachmentInfo(ctx context.Context,
	req AttachmentInfoRequest) AttachmentInfoResponse {

	var resp AttachmentInfoResponse
	if req.Mailbox == "" {
		resp.Error = ErrMailboxRequired
		return resp
	}
	if req.UID == 0 {
		resp.Error = newValidationError(
			"uid", "0", "must be a positive message UID",
		)
		return resp
	}

	log := s.opLogger("attachment_info", req.Mailbox)
	resp.Error = s.withSession(ctx, log, req.Mailbox,
		func(ctx context.Context, sess Session) error {
			attachments, err := sess.FetchAttachments(ctx, req.UID)
			if err != nil {
				return err
			}
			resp.Attachments = attachments
			return nil
		},
	)
	return resp
}

// handleMailboxStatus processes a MailboxStatusRequest.
func (s *Service) handleMailboxStatus(ctx context.Context,
	req MailboxStatusRequest) MailboxStatusResponse {

	var resp MailboxStatusResponse
	if req.Mailbox == "" {
		resp.Error = ErrMailboxRequired
		return resp
	}

	log := s.opLogger("mailbox_status", req.Mailbox)
	resp.Error = s.withRetry(log, func() error {
		status, err := s.store.MailboxStatus(ctx, req.Mailbox)
		if err != nil {
			return fmt.Errorf(
				"status of mailbox %q: %w", req.Mailbox, err,
			)
		}
		resp.Status = status
		return nil
	})
	return resp
}

// handleListMailboxes processes a ListMailboxesRequest.
func (s *Service) handleListMailboxes(ctx context.Context,
	_ ListMailboxesRequest) ListMailboxesResponse {

	var resp ListMailboxesResponse
	log := s.opLogger("list_mailboxes", "")
	resp.Error = s.withRetry(log, func() error {
		mailboxes, err := s.store.ListMailboxes(ctx)
		if err != nil {
			return fmt.Errorf("list mailboxes: %w", err)
		}
		resp.Mailboxes = mailboxes
		return nil
	})
	return resp
}

// runQuery is the shared list-like pipeline: validate the pagination input,
// open a session, run the match function, paginate the UID set and hydrate
// the page into envelopes.
func (s *Service) runQuery(ctx context.Context, op, mailbox string,
	page PageOptions, withSnippet bool,
	match func(context.Context, Session) ([]uint32, error)) (
	[]Envelope, string, error) {

	if mailbox == "" {
		return nil, "", ErrMailboxRequired
	}

	// Reject malformed cursors before any store interaction.
	if _, err := DecodeCursor(page.Cursor); err != nil {
		return nil, "", err
	}

	var (
		envelopes  []Envelope
		nextCursor string
	)
	log := s.opLogger(op, mailbox)
	err := s.withSession(ctx, log, mailbox,
		func(ctx context.Context, sess Session) error {
			matched, err := match(ctx, sess)
			if err != nil {
				return err
			}

			result, err := Paginate(matched, PageRequest{
				Limit:   page.Limit,
				Ceiling: s.cfg.MaxPageSize,
				Default: s.cfg.DefaultPageSize,
				Sort:    NormalizeSort(page.Sort),
				Cursor:  page.Cursor,
			})
			if err != nil {
				return err
			}

			envelopes, err = s.hydrate(
				ctx, sess, result.UIDs, withSnippet,
			)
			if err != nil {
				return err
			}
			nextCursor = result.NextCursor.UnwrapOr("")

			log.Debug("query page served",
				zap.Int("matched", len(matched)),
				zap.Int("returned", len(envelopes)),
				zap.Bool("has_more", nextCursor != ""),
			)
			return nil
		},
	)
	if err != nil {
		return nil, "", err
	}
	return envelopes, nextCursor, nil
}

// hydrate bulk-fetches raw envelopes for the page UIDs and assembles them
// in page order. UIDs the store no longer knows are skipped.
func (s *Service) hydrate(ctx context.Context, sess Session,
	uids []uint32, withSnippet bool) ([]Envelope, error) {

	if len(uids) == 0 {
		return nil, nil
	}

	raws, err := sess.FetchEnvelopes(ctx, uids, withSnippet)
	if err != nil {
		return nil, fmt.Errorf("fetch envelopes: %w", err)
	}

	byUID := make(map[uint32]RawEnvelope, len(raws))
	for _, raw := range raws {
		byUID[raw.UID] = raw
	}

	snippetLen := 0
	if withSnippet {
		snippetLen = s.cfg.SnippetLength
	}

	out := make([]Envelope, 0, len(uids))
	for _, uid := range uids {
		raw, ok := byUID[uid]
		if !ok {
			continue
		}
		out = append(out, AssembleEnvelope(raw, snippetLen))
	}
	return out, nil
}

// withSession runs op inside a freshly acquired session, releasing it on
// every exit path, and re-runs the whole operation once after a transport
// failure. Validation and not-found errors are terminal.
func (s *Service) withSession(ctx context.Context, log *zap.Logger,
	mailbox string,
	op func(context.Context, Session) error) error {

	err := s.runSession(ctx, mailbox, op)
	if err == nil || !retryable(err) {
		return err
	}

	log.Warn("store operation failed, retrying once", zap.Error(err))
	return s.runSession(ctx, mailbox, op)
}

// runSession performs one session-scoped attempt.
func (s *Service) runSession(ctx context.Context, mailbox string,
	op func(context.Context, Session) error) error {

	sess, err := s.store.NewSession(ctx, mailbox)
	if err != nil {
		return fmt.Errorf("open mailbox %q: %w", mailbox, err)
	}
	defer sess.Close()

	return op(ctx, sess)
}

// withRetry re-runs a sessionless store call once after a transport
// failure.
func (s *Service) withRetry(log *zap.Logger, op func() error) error {
	err := op()
	if err == nil || !retryable(err) {
		return err
	}

	log.Warn("store operation failed, retrying once", zap.Error(err))
	return op()
}

// retryable reports whether a blind re-run of the whole operation could
// succeed. Validation and not-found outcomes are deterministic, so only
// collaborator failures qualify.
func retryable(err error) bool {
	return !IsValidation(err) && !errors.Is(err, ErrMessageNotFound)
}

// opLogger returns the per-operation logger with a correlation ID.
func (s *Service) opLogger(op, mailbox string) *zap.Logger {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("req_id", uuid.NewString()),
	}
	if mailbox != "" {
		fields = append(fields, zap.String("mailbox", mailbox))
	}
	return s.log.With(fields...)
}
