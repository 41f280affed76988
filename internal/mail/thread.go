package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/emersion/go-imap"
)

// ResolveThread expands one message into the UID set of its conversation.
//
// The traversal is a single hop: the candidate identifiers are exactly the
// target's own Message-Id, its In-Reply-To and every References entry. Each
// candidate gets one store search (Message-Id = X OR References contains X
// OR In-Reply-To = X); the results are unioned together with the target
// itself. Searches run one at a time to respect the one-selected-mailbox
// discipline of the underlying connection.
func ResolveThread(ctx context.Context, sess Session,
	target uint32) ([]uint32, error) {

	refs, err := sess.FetchHeaderRefs(ctx, target)
	if err != nil {
		return nil, err
	}

	candidates := candidateIDs(refs)

	union := map[uint32]struct{}{target: {}}
	for _, id := range candidates {
		uids, err := sess.Search(ctx, referenceCriteria(id))
		if err != nil {
			return nil, fmt.Errorf(
				"thread search for %q: %w", id, err,
			)
		}
		for _, uid := range uids {
			union[uid] = struct{}{}
		}
	}

	out := make([]uint32, 0, len(union))
	for uid := range union {
		out = append(out, uid)
	}
	return out, nil
}

// candidateIDs collects the normalized, deduplicated identifiers to fan out
// on, preserving first-seen order so the number and order of store searches
// is deterministic.
func candidateIDs(refs HeaderRefs) []string {
	raw := make([]string, 0, len(refs.References)+2)
	raw = append(raw, refs.MessageID, refs.InReplyTo)
	raw = append(raw, refs.References...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		id := NormalizeMessageID(r)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// NormalizeMessageID strips angle-bracket delimiters and surrounding
// whitespace from a Message-Id token. The result is a canonical key used
// only for equality, never displayed.
func NormalizeMessageID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimPrefix(id, "<")
	id = strings.TrimSuffix(id, ">")
	return strings.TrimSpace(id)
}

// referenceCriteria builds the per-identifier OR predicate: a message is
// related when its Message-Id equals the identifier, or its References or
// In-Reply-To headers mention it.
func referenceCriteria(id string) *imap.SearchCriteria {
	byMessageID := imap.NewSearchCriteria()
	byMessageID.Header.Add("Message-Id", id)

	byReferences := imap.NewSearchCriteria()
	byReferences.Header.Add("References", id)

	byInReplyTo := imap.NewSearchCriteria()
	byInReplyTo.Header.Add("In-Reply-To", id)

	rest := imap.NewSearchCriteria()
	rest.Or = [][2]*imap.SearchCriteria{{byReferences, byInReplyTo}}

	criteria := imap.NewSearchCriteria()
	criteria.Or = [][2]*imap.SearchCriteria{{byMessageID, rest}}
	return criteria
}
