package mail

import (
	"testing"
	"time"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/require"
)

func TestCompileRejectsContradictoryFlags(t *testing.T) {
	_, err := Filter{Seen: true, Unseen: true}.Compile()
	require.Error(t, err)
	require.True(t, IsValidation(err))
	require.Contains(t, err.Error(), "mutually exclusive")
}

func TestCompileRejectsBadDates(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		field  string
	}{
		{"garbage received_since", Filter{ReceivedSince: "yesterday"}, "received_since"},
		{"garbage sent_before", Filter{SentBefore: "02/21/2026"}, "sent_before"},
		{"garbage received_on", Filter{ReceivedOn: "not-a-day"}, "received_on"},
		{"timestamp for on", Filter{SentOn: "2026-02-21T10:00:00Z"}, "sent_on"},
		{"on combined with range", Filter{ReceivedOn: "2026-02-21", ReceivedBefore: "2026-03-01"}, "received_on"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.filter.Compile()
			require.Error(t, err)
			require.True(t, IsValidation(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestCompileRejectsInvertedRanges(t *testing.T) {
	_, err := Filter{
		ReceivedSince:  "2026-02-01",
		ReceivedBefore: "2026-01-01",
	}.Compile()
	require.Error(t, err)
	require.True(t, IsValidation(err))

	_, err = Filter{
		SentSince:  "2026-02-01T12:00:00Z",
		SentBefore: "2026-02-01T11:00:00Z",
	}.Compile()
	require.Error(t, err)
	require.True(t, IsValidation(err))

	// Each axis is checked independently; a valid received range does
	// not mask an inverted sent range.
	_, err = Filter{
		ReceivedSince:  "2026-01-01",
		ReceivedBefore: "2026-02-01",
		SentSince:      "2026-03-01",
		SentBefore:     "2026-02-01",
	}.Compile()
	require.Error(t, err)
}

// TestCompileBareDayUpperBound verifies the inclusive-day adjustment: a
// bare calendar day used as an upper bound covers the whole named day.
func TestCompileBareDayUpperBound(t *testing.T) {
	criteria, err := Filter{ReceivedBefore: "2026-02-21"}.Compile()
	require.NoError(t, err)

	lastInstant := time.Date(2026, 2, 21, 23, 59, 59, 999_000_000, time.UTC)
	require.True(t, criteria.Before.After(lastInstant))
	require.Equal(t,
		time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC), criteria.Before)
}

// TestCompileTimestampUpperBound verifies that a full timestamp upper bound
// is used as given, with no day adjustment.
func TestCompileTimestampUpperBound(t *testing.T) {
	criteria, err := Filter{SentBefore: "2026-02-21T10:30:00Z"}.Compile()
	require.NoError(t, err)
	require.Equal(t,
		time.Date(2026, 2, 21, 10, 30, 0, 0, time.UTC),
		criteria.SentBefore)
}

// TestCompileLowerBoundUnadjusted verifies the deliberate asymmetry: bare
// day lower bounds stay at midnight of the named day.
func TestCompileLowerBoundUnadjusted(t *testing.T) {
	criteria, err := Filter{ReceivedSince: "2026-02-21"}.Compile()
	require.NoError(t, err)
	require.Equal(t,
		time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC), criteria.Since)
}

// TestCompileExactDay verifies that "on day D" compiles to the half-open
// interval [D, D+1).
func TestCompileExactDay(t *testing.T) {
	criteria, err := Filter{SentOn: "2026-02-21"}.Compile()
	require.NoError(t, err)
	require.Equal(t,
		time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC),
		criteria.SentSince)
	require.Equal(t,
		time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC),
		criteria.SentBefore)
}

// TestCompileConjunctiveTerms verifies that every set dimension lands as an
// AND term and that nothing is ORed.
func TestCompileConjunctiveTerms(t *testing.T) {
	criteria, err := Filter{
		From:      "alice@example.com",
		To:        "bob@example.com",
		Cc:        "carol@example.com",
		Bcc:       "dave@example.com",
		Subject:   "quarterly report",
		Body:      "attached",
		Keyword:   "budget",
		MessageID: "abc123",
		Unseen:    true,
	}.Compile()
	require.NoError(t, err)

	require.Equal(t, "alice@example.com", criteria.Header.Get("From"))
	require.Equal(t, "bob@example.com", criteria.Header.Get("To"))
	require.Equal(t, "carol@example.com", criteria.Header.Get("Cc"))
	require.Equal(t, "dave@example.com", criteria.Header.Get("Bcc"))
	require.Equal(t, "quarterly report", criteria.Header.Get("Subject"))
	require.Equal(t, "abc123", criteria.Header.Get("Message-Id"))
	require.Equal(t, []string{"attached"}, criteria.Body)
	require.Equal(t, []string{"budget"}, criteria.Text)
	require.Equal(t, []string{imap.SeenFlag}, criteria.WithoutFlags)
	require.Empty(t, criteria.WithFlags)
	require.Empty(t, criteria.Or)
}

// TestCompileDeterministic verifies identical input compiles identically.
func TestCompileDeterministic(t *testing.T) {
	filter := Filter{
		From:          "alice",
		Subject:       "hello",
		ReceivedSince: "2026-01-01",
		SentBefore:    "2026-06-01",
		Seen:          true,
	}

	first, err := filter.Compile()
	require.NoError(t, err)
	second, err := filter.Compile()
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestFilterIsZero(t *testing.T) {
	require.True(t, Filter{}.IsZero())
	require.False(t, Filter{Keyword: "x"}.IsZero())
	require.False(t, Filter{Unseen: true}.IsZero())
}
