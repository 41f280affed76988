package mail

import (
	"time"

	"github.com/emersion/go-imap"
)

const (
	dayLayout = "2006-01-02"
)

// Filter is the advanced-search option bag. Every dimension is optional;
// set dimensions are combined conjunctively (AND). OR combination is
// deliberately absent here, it exists only inside the thread resolver's
// per-reference expansion.
type Filter struct {
	// From matches the From header.
	From string

	// To matches the To header.
	To string

	// Cc matches the Cc header.
	Cc string

	// Bcc matches the Bcc header.
	Bcc string

	// Subject matches the Subject header.
	Subject string

	// Body matches the message body text.
	Body string

	// Keyword matches anywhere in the message (header or body).
	Keyword string

	// MessageID matches the Message-Id header.
	MessageID string

	// Seen selects only messages marked as read.
	Seen bool

	// Unseen selects only messages not yet read. Mutually exclusive
	// with Seen.
	Unseen bool

	// ReceivedOn, ReceivedSince and ReceivedBefore bound the date the
	// message arrived at the store (internal date axis).
	ReceivedOn     string
	ReceivedSince  string
	ReceivedBefore string

	// SentOn, SentSince and SentBefore bound the Date header (sent
	// axis). Independent of the received axis.
	SentOn     string
	SentSince  string
	SentBefore string
}

// IsZero reports whether no dimension is set.
func (f Filter) IsZero() bool {
	return f == Filter{}
}

// dateBound is a parsed date-like input. Bare calendar days keep their
// day-granularity so upper bounds can be made inclusive.
type dateBound struct {
	at      time.Time
	bareDay bool
}

// parseDateBound parses a bare calendar day or a full RFC 3339 timestamp.
func parseDateBound(field, value string) (dateBound, error) {
	if t, err := time.Parse(dayLayout, value); err == nil {
		return dateBound{at: t.UTC(), bareDay: true}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return dateBound{at: t.UTC()}, nil
	}
	return dateBound{}, newValidationError(
		field, value, "must be YYYY-MM-DD or an RFC 3339 timestamp",
	)
}

// upper returns the exclusive upper-bound instant. The store's "before"
// semantics exclude the given instant, so a bare calendar day is shifted to
// the following midnight to make the named day inclusive. Full timestamps
// are used as given. Lower bounds get no such adjustment; parseDateBound's
// midnight is already the floor of the day.
func (b dateBound) upper() time.Time {
	if b.bareDay {
		return b.at.AddDate(0, 0, 1)
	}
	return b.at
}

// dateAxis resolves one date dimension (exact day, from, to) into an
// optional [since, before) interval.
func dateAxis(axis, on, since, before string) (lower, upper time.Time,
	err error) {

	if on != "" && (since != "" || before != "") {
		return lower, upper, newValidationError(
			axis+"_on", on,
			"cannot be combined with a range bound on the same axis",
		)
	}

	if on != "" {
		b, err := parseDateBound(axis+"_on", on)
		if err != nil {
			return lower, upper, err
		}
		if !b.bareDay {
			return lower, upper, newValidationError(
				axis+"_on", on, "must be a bare calendar day",
			)
		}
		// Exact day compiles to the half-open interval [day, day+1).
		return b.at, b.upper(), nil
	}

	if since != "" {
		b, err := parseDateBound(axis+"_since", since)
		if err != nil {
			return lower, upper, err
		}
		lower = b.at
	}
	if before != "" {
		b, err := parseDateBound(axis+"_before", before)
		if err != nil {
			return lower, upper, err
		}
		upper = b.upper()
	}

	if !lower.IsZero() && !upper.IsZero() && !lower.Before(upper) {
		return time.Time{}, time.Time{}, newValidationError(
			axis+"_since", since,
			"range is inverted: lower bound is not before "+before,
		)
	}

	return lower, upper, nil
}

// Compile validates the filter and lowers it into the conjunctive predicate
// evaluated by the message store. All validation happens here, before any
// store interaction; a returned error is always a ValidationError.
//
// Term application order is fixed so the compiled predicate is
// deterministic for identical input.
func (f Filter) Compile() (*imap.SearchCriteria, error) {
	if f.Seen && f.Unseen {
		return nil, newValidationError(
			"seen", "", "seen and unseen are mutually exclusive",
		)
	}

	recvLower, recvUpper, err := dateAxis(
		"received", f.ReceivedOn, f.ReceivedSince, f.ReceivedBefore,
	)
	if err != nil {
		return nil, err
	}
	sentLower, sentUpper, err := dateAxis(
		"sent", f.SentOn, f.SentSince, f.SentBefore,
	)
	if err != nil {
		return nil, err
	}

	criteria := imap.NewSearchCriteria()

	if f.From != "" {
		criteria.Header.Add("From", f.From)
	}
	if f.To != "" {
		criteria.Header.Add("To", f.To)
	}
	if f.Cc != "" {
		criteria.Header.Add("Cc", f.Cc)
	}
	if f.Bcc != "" {
		criteria.Header.Add("Bcc", f.Bcc)
	}
	if f.Subject != "" {
		criteria.Header.Add("Subject", f.Subject)
	}
	if f.MessageID != "" {
		criteria.Header.Add("Message-Id", f.MessageID)
	}
	if f.Body != "" {
		criteria.Body = append(criteria.Body, f.Body)
	}
	if f.Keyword != "" {
		criteria.Text = append(criteria.Text, f.Keyword)
	}

	if f.Seen {
		criteria.WithFlags = append(criteria.WithFlags, imap.SeenFlag)
	}
	if f.Unseen {
		criteria.WithoutFlags = append(
			criteria.WithoutFlags, imap.SeenFlag,
		)
	}

	if !recvLower.IsZero() {
		criteria.Since = recvLower
	}
	if !recvUpper.IsZero() {
		criteria.Before = recvUpper
	}
	if !sentLower.IsZero() {
		criteria.SentSince = sentLower
	}
	if !sentUpper.IsZero() {
		criteria.SentBefore = sentUpper
	}

	return criteria, nil
}
