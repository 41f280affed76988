package imapstore

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
)

// extractText pulls the plain-text content out of a raw RFC 822 message for
// snippet assembly. The walk prefers text/plain parts and descends into
// multipart and message/rfc822 containers; anything else is skipped.
func extractText(r io.Reader) (string, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return "", err
	}
	body, err := io.ReadAll(msg.Body)
	if err != nil {
		return "", err
	}
	text, err := textFromEntity(textproto.MIMEHeader(msg.Header), body)
	return strings.TrimSpace(text), err
}

// textFromEntity recursively extracts text/plain content from one MIME
// entity.
func textFromEntity(header textproto.MIMEHeader,
	body []byte) (string, error) {

	mediaType, params, err := mime.ParseMediaType(
		header.Get("Content-Type"),
	)
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}

	decoded := decodeTransfer(
		header.Get("Content-Transfer-Encoding"), body,
	)

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			return "", nil
		}

		reader := multipart.NewReader(
			bytes.NewReader(decoded), boundary,
		)
		var parts []string
		for {
			part, err := reader.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return strings.Join(parts, "\n"), err
			}
			partBody, err := io.ReadAll(part)
			if err != nil {
				return strings.Join(parts, "\n"), err
			}
			text, err := textFromEntity(
				textproto.MIMEHeader(part.Header), partBody,
			)
			if err != nil {
				return strings.Join(parts, "\n"), err
			}
			if text != "" {
				parts = append(parts, text)
			}
		}
		return strings.Join(parts, "\n"), nil

	case mediaType == "text/plain":
		return string(decoded), nil

	case mediaType == "message/rfc822":
		nested, err := mail.ReadMessage(bytes.NewReader(decoded))
		if err != nil {
			return "", nil
		}
		nestedBody, err := io.ReadAll(nested.Body)
		if err != nil {
			return "", nil
		}
		return textFromEntity(
			textproto.MIMEHeader(nested.Header), nestedBody,
		)

	default:
		return "", nil
	}
}

// decodeTransfer undoes a content transfer encoding, falling back to the
// raw bytes when the payload does not decode cleanly.
func decodeTransfer(encoding string, body []byte) []byte {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		decoded, err := io.ReadAll(
			quotedprintable.NewReader(bytes.NewReader(body)),
		)
		if err != nil {
			return body
		}
		return decoded

	case "base64":
		clean := strings.Map(func(r rune) rune {
			if r == '\r' || r == '\n' {
				return -1
			}
			return r
		}, string(body))
		decoded, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return body
		}
		return decoded

	default:
		return body
	}
}
