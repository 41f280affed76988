package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FaisalFehad/imap-mail-mcp/internal/mail"
)

// testServer wires a server to a scripted in-memory store.
func testServer(t *testing.T) (*Server, *mail.MockStore) {
	t.Helper()

	store := mail.NewMockStore()
	server := NewServer(Config{
		Store:  store,
		Limits: mail.DefaultConfig(),
	})
	require.NotNil(t, server)
	return server, store
}

func seedInbox(store *mail.MockStore) {
	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	store.AddMessage("INBOX", mail.MockMessage{
		UID: 1, Subject: "welcome",
		From:      []mail.Address{{Email: "alice@example.com"}},
		To:        []mail.Address{{Email: "me@example.com"}},
		Date:      base, MessageID: "<w@x>", Seen: true,
		Body:      "welcome aboard",
	})
	store.AddMessage("INBOX", mail.MockMessage{
		UID: 2, Subject: "re: welcome",
		From:       []mail.Address{{Email: "bob@example.com"}},
		To:         []mail.Address{{Email: "me@example.com"}},
		Date:       base.Add(time.Hour), MessageID: "<r@x>",
		InReplyTo:  "<w@x>", References: []string{"<w@x>"},
		Body:       "thanks!",
	})
}

// TestNewServer verifies that all tool schemas register without panicking.
func TestNewServer(t *testing.T) {
	testServer(t)
}

func TestListMessagesTool(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, result, err := server.handleListMessages(
		context.Background(), nil, ListMessagesArgs{Mailbox: "INBOX"},
	)
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	require.Equal(t, uint32(2), result.Messages[0].UID)
	require.Empty(t, result.NextCursor)
}

func TestListMessagesToolRejectsBadCursor(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, _, err := server.handleListMessages(
		context.Background(), nil, ListMessagesArgs{
			Mailbox:  "INBOX",
			PageArgs: PageArgs{Cursor: "bogus cursor"},
		},
	)
	require.Error(t, err)
}

func TestSearchMessagesTool(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, result, err := server.handleSearchMessages(
		context.Background(), nil, SearchMessagesArgs{
			Mailbox: "INBOX",
			From:    "bob@example.com",
		},
	)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	require.Equal(t, "re: welcome", result.Messages[0].Subject)
}

func TestSearchMessagesToolRejectsEmptyFilter(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, _, err := server.handleSearchMessages(
		context.Background(), nil, SearchMessagesArgs{
			Mailbox: "INBOX",
		},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least one search dimension")
}

func TestSearchMessagesToolRejectsContradiction(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, _, err := server.handleSearchMessages(
		context.Background(), nil, SearchMessagesArgs{
			Mailbox: "INBOX",
			Seen:    true,
			Unseen:  true,
		},
	)
	require.Error(t, err)
	require.Contains(t, err.Error(), "mutually exclusive")
}

func TestListUnreadTool(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, result, err := server.handleListUnread(
		context.Background(), nil, ListUnreadArgs{Mailbox: "INBOX"},
	)
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)
	require.Equal(t, uint32(2), result.Messages[0].UID)
}

func TestGetMessageTool(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, result, err := server.handleGetMessage(
		context.Background(), nil, GetMessageArgs{
			Mailbox:        "INBOX",
			UID:            1,
			IncludeSnippet: true,
		},
	)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Equal(t, "welcome", result.Message.Subject)
	require.Equal(t, "welcome aboard", result.Message.Snippet)
}

func TestGetMessageToolNotFound(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, result, err := server.handleGetMessage(
		context.Background(), nil, GetMessageArgs{
			Mailbox: "INBOX",
			UID:     99,
		},
	)
	require.NoError(t, err)
	require.False(t, result.Found)
	require.Nil(t, result.Message)
}

func TestGetThreadContextTool(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, result, err := server.handleGetThreadContext(
		context.Background(), nil, GetThreadContextArgs{
			Mailbox:  "INBOX",
			UID:      2,
			PageArgs: PageArgs{Sort: "asc"},
		},
	)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Len(t, result.Messages, 2)
	require.Equal(t, uint32(1), result.Messages[0].UID)
}

func TestGetThreadContextToolNotFound(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, result, err := server.handleGetThreadContext(
		context.Background(), nil, GetThreadContextArgs{
			Mailbox: "INBOX",
			UID:     99,
		},
	)
	require.NoError(t, err)
	require.False(t, result.Found)
}

func TestGetAttachmentInfoTool(t *testing.T) {
	server, store := testServer(t)
	store.AddMessage("INBOX", mail.MockMessage{
		UID: 5, MessageID: "<att@x>",
		Attachments: []mail.AttachmentInfo{{
			PartPath: "2",
			Filename: "notes.txt",
			MIMEType: "text/plain",
			Size:     128,
		}},
	})

	_, result, err := server.handleGetAttachmentInfo(
		context.Background(), nil, GetAttachmentInfoArgs{
			Mailbox: "INBOX",
			UID:     5,
		},
	)
	require.NoError(t, err)
	require.True(t, result.Found)
	require.Len(t, result.Attachments, 1)
	require.Equal(t, "notes.txt", result.Attachments[0].Filename)
}

func TestGetMailboxStatusTool(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)

	_, result, err := server.handleGetMailboxStatus(
		context.Background(), nil, GetMailboxStatusArgs{
			Mailbox: "INBOX",
		},
	)
	require.NoError(t, err)
	require.Equal(t, uint32(2), result.Messages)
	require.Equal(t, uint32(1), result.Unseen)
}

func TestListMailboxesTool(t *testing.T) {
	server, store := testServer(t)
	seedInbox(store)
	store.AddMessage("Archive", mail.MockMessage{UID: 1})

	_, result, err := server.handleListMailboxes(
		context.Background(), nil, ListMailboxesArgs{},
	)
	require.NoError(t, err)
	require.Len(t, result.Mailboxes, 2)
}
