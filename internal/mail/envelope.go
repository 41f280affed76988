package mail

import (
	"strings"
	"time"
	"unicode"
)

// Envelope is the stable output shape of every list-like operation.
type Envelope struct {
	UID       uint32 `json:"uid"`
	Subject   string `json:"subject"`
	From      string `json:"from"`
	To        string `json:"to"`
	Date      string `json:"date"`
	MessageID string `json:"message_id,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
}

// AssembleEnvelope maps one raw store record into the output shape.
// snippetLen bounds the snippet in runes; zero disables snippets entirely.
func AssembleEnvelope(raw RawEnvelope, snippetLen int) Envelope {
	env := Envelope{
		UID:       raw.UID,
		Subject:   raw.Subject,
		From:      renderAddresses(raw.From),
		To:        renderAddresses(raw.To),
		MessageID: raw.MessageID,
	}
	if !raw.Date.IsZero() {
		env.Date = raw.Date.UTC().Format(time.RFC3339)
	}
	if snippetLen > 0 {
		env.Snippet = makeSnippet(raw.BodyText, snippetLen)
	}
	return env
}

// renderAddresses joins an address list as comma-separated display text.
func renderAddresses(addrs []Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		switch {
		case a.Name != "" && a.Email != "":
			parts = append(parts, a.Name+" <"+a.Email+">")
		case a.Email != "":
			parts = append(parts, a.Email)
		case a.Name != "":
			parts = append(parts, a.Name)
		}
	}
	return strings.Join(parts, ", ")
}

// makeSnippet collapses whitespace runs in the decoded body text and
// truncates to at most limit runes, appending an ellipsis when truncated.
func makeSnippet(body string, limit int) string {
	var b strings.Builder
	b.Grow(len(body))
	inSpace := false
	for _, r := range body {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		inSpace = false
		b.WriteRune(r)
	}

	collapsed := b.String()
	runes := []rune(collapsed)
	if len(runes) <= limit {
		return collapsed
	}
	return string(runes[:limit]) + "…"
}
