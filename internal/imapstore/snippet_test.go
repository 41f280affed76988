package imapstore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractTextPlain(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"hello body\r\n"

	text, err := extractText(strings.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "hello body", text)
}

func TestExtractTextMultipart(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: multipart/alternative; boundary=XX\r\n" +
		"\r\n" +
		"--XX\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"plain part\r\n" +
		"--XX\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<p>html part</p>\r\n" +
		"--XX--\r\n"

	text, err := extractText(strings.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "plain part", text)
}

func TestExtractTextQuotedPrintable(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"caf=C3=A9 time\r\n"

	text, err := extractText(strings.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "café time", text)
}

func TestExtractTextBase64(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: text/plain\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"aGVsbG8gZnJvbSBiYXNlNjQ=\r\n"

	text, err := extractText(strings.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, "hello from base64", text)
}

func TestExtractTextSkipsNonText(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Content-Type: application/octet-stream\r\n" +
		"\r\n" +
		"binarybinary\r\n"

	text, err := extractText(strings.NewReader(raw))
	require.NoError(t, err)
	require.Empty(t, text)
}

func TestDecodeTransferFallsBackOnGarbage(t *testing.T) {
	body := []byte("!!! not base64 !!!")
	require.Equal(t, body, decodeTransfer("base64", body))
}
