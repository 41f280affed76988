package imapstore

import (
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/require"

	"github.com/FaisalFehad/imap-mail-mcp/internal/mail"
)

func TestSplitReferences(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  []string
	}{
		{
			"angle bracketed",
			"<a@x> <b@x>\r\n <c@x>",
			[]string{"<a@x>", "<b@x>", "<c@x>"},
		},
		{
			"bare tokens",
			"a@x b@x",
			[]string{"a@x", "b@x"},
		},
		{"empty", "   ", nil},
		{
			"unterminated tail",
			"<a@x> <broken@x",
			[]string{"<a@x>", "<broken@x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, splitReferences(tt.value))
		})
	}
}

func TestReadHeader(t *testing.T) {
	raw := "Message-Id: <m1@x>\r\n" +
		"In-Reply-To: <m0@x>\r\n" +
		"References: <r1@x> <r2@x>\r\n" +
		"\r\n"

	header, err := readHeader(strings.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "<m1@x>", header.Get("Message-Id"))
	require.Equal(t, "<m0@x>", header.Get("In-Reply-To"))

	// Servers differ on the trailing blank line; both forms must parse.
	header, err = readHeader(strings.NewReader(
		"Message-Id: <m2@x>\r\n",
	))
	require.NoError(t, err)
	require.Equal(t, "<m2@x>", header.Get("Message-Id"))
}

func TestConvertAddresses(t *testing.T) {
	addrs := convertAddresses([]*imap.Address{
		{
			PersonalName: "Alice",
			MailboxName:  "alice",
			HostName:     "example.com",
		},
		{MailboxName: "bob", HostName: "example.com"},
		nil,
	})
	require.Equal(t, []mail.Address{
		{Name: "Alice", Email: "alice@example.com"},
		{Email: "bob@example.com"},
	}, addrs)
}

func TestRawFromMessage(t *testing.T) {
	sent := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	msg := &imap.Message{
		Uid:          42,
		Flags:        []string{imap.SeenFlag, imap.AnsweredFlag},
		InternalDate: sent.Add(time.Minute),
		Envelope: &imap.Envelope{
			Date:      sent,
			Subject:   "hello",
			MessageId: "<m42@x>",
			From: []*imap.Address{{
				MailboxName: "alice", HostName: "example.com",
			}},
			To: []*imap.Address{{
				MailboxName: "bob", HostName: "example.com",
			}},
		},
	}

	raw := rawFromMessage(msg)
	require.Equal(t, uint32(42), raw.UID)
	require.True(t, raw.Seen)
	require.Equal(t, "hello", raw.Subject)
	require.Equal(t, "<m42@x>", raw.MessageID)
	require.Equal(t, sent, raw.Date) // header date wins over internal
	require.Equal(t, "alice@example.com", raw.From[0].Email)
}

func TestCollectAttachments(t *testing.T) {
	bs := &imap.BodyStructure{
		MIMEType:    "multipart",
		MIMESubType: "mixed",
		Parts: []*imap.BodyStructure{
			{
				MIMEType:    "text",
				MIMESubType: "plain",
			},
			{
				MIMEType:          "application",
				MIMESubType:       "pdf",
				Disposition:       "attachment",
				DispositionParams: map[string]string{"filename": "report.pdf"},
				Size:              81234,
			},
			{
				MIMEType:    "multipart",
				MIMESubType: "related",
				Parts: []*imap.BodyStructure{
					{
						MIMEType:    "image",
						MIMESubType: "png",
						Params:      map[string]string{"name": "chart.png"},
						Size:        2048,
					},
				},
			},
		},
	}

	attachments := collectAttachments(bs, "")
	require.Len(t, attachments, 2)

	require.Equal(t, "2", attachments[0].PartPath)
	require.Equal(t, "report.pdf", attachments[0].Filename)
	require.Equal(t, "application/pdf", attachments[0].MIMEType)
	require.Equal(t, uint32(81234), attachments[0].Size)

	require.Equal(t, "3.1", attachments[1].PartPath)
	require.Equal(t, "chart.png", attachments[1].Filename)
}

func TestCollectAttachmentsNoneForPlainMessage(t *testing.T) {
	bs := &imap.BodyStructure{MIMEType: "text", MIMESubType: "plain"}
	require.Empty(t, collectAttachments(bs, ""))
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Host: "imap.example.com", Port: 993,
		Username: "me@example.com", Password: "secret",
		Auth: AuthPassword,
	}
	require.NoError(t, valid.Validate())
	require.Equal(t, "imap.example.com:993", valid.Addr())

	missingHost := valid
	missingHost.Host = ""
	require.Error(t, missingHost.Validate())

	missingToken := valid
	missingToken.Auth = AuthOAuthBearer
	require.Error(t, missingToken.Validate())

	badAuth := valid
	badAuth.Auth = "kerberos"
	require.Error(t, badAuth.Validate())
}
