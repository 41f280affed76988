package mail

import (
	"sort"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// SortDirection orders a page of message UIDs.
type SortDirection string

const (
	// SortAscending orders UIDs oldest-first.
	SortAscending SortDirection = "asc"

	// SortDescending orders UIDs newest-first. This is the default, as
	// agents almost always want the most recent messages.
	SortDescending SortDirection = "desc"
)

// fallbackLimit is used when both the requested limit and the configured
// default are unusable.
const fallbackLimit = 50

// NormalizeSort maps caller input onto a SortDirection. Only an explicit
// ascending token selects ascending order; everything else, including the
// empty string, yields descending.
func NormalizeSort(input string) SortDirection {
	switch input {
	case "asc", "ascending":
		return SortAscending
	default:
		return SortDescending
	}
}

// ClampLimit resolves the effective page size. A requested value of zero
// means unspecified and falls back to def; def itself falls back to 50 when
// unusable. The result is always within [1, ceiling].
func ClampLimit(requested, ceiling, def int) int {
	if ceiling < 1 {
		ceiling = fallbackLimit
	}
	if def < 1 || def > ceiling {
		def = min(fallbackLimit, ceiling)
	}

	limit := requested
	if limit == 0 {
		limit = def
	}
	return max(1, min(limit, ceiling))
}

// PageRequest carries the pagination inputs of a list-like operation.
type PageRequest struct {
	// Limit is the caller-requested page size. Zero means unspecified.
	Limit int

	// Ceiling is the configured hard cap on page size.
	Ceiling int

	// Default is the operation default page size.
	Default int

	// Sort is the page ordering.
	Sort SortDirection

	// Cursor is the opaque continuation token from a previous page, or
	// empty to start from the beginning.
	Cursor string
}

// Page is one slice of an ordered match set.
type Page struct {
	// UIDs are the page entries, ordered by the requested direction.
	UIDs []uint32

	// NextCursor continues the scan. It is set iff more entries remained
	// past this page.
	NextCursor fn.Option[string]
}

// Paginate slices an unordered match set into one stable, resumable page.
//
// The match set is deduplicated and sorted ascending; descending order is
// the reversal of that single canonical order. A cursor is interpreted as a
// strict threshold in the current direction, not a membership check, so a
// boundary that has since vanished from the match set (expunged mail, new
// mail) still resumes correctly.
func Paginate(matched []uint32, req PageRequest) (Page, error) {
	boundary, err := DecodeCursor(req.Cursor)
	if err != nil {
		return Page{}, err
	}

	// Dedupe and drop non-positive values. The store should never emit
	// UID zero, but the engine does not trust it to.
	seen := make(map[uint32]struct{}, len(matched))
	uids := make([]uint32, 0, len(matched))
	for _, uid := range matched {
		if uid == 0 {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		uids = append(uids, uid)
	}

	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	if req.Sort == SortDescending {
		for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
			uids[i], uids[j] = uids[j], uids[i]
		}
	}

	// UID zero is never valid, so it doubles as the "no boundary" value.
	if bound := boundary.UnwrapOr(0); bound != 0 {
		uids = pastBoundary(uids, bound, req.Sort)
	}

	limit := ClampLimit(req.Limit, req.Ceiling, req.Default)
	page := Page{}
	if limit >= len(uids) {
		page.UIDs = uids
		return page, nil
	}

	page.UIDs = uids[:limit]
	page.NextCursor = fn.Some(EncodeCursor(page.UIDs[limit-1]))
	return page, nil
}

// pastBoundary filters the ordered sequence to entries strictly past the
// cursor boundary in the current direction.
func pastBoundary(ordered []uint32, bound uint32,
	dir SortDirection) []uint32 {

	keep := func(uid uint32) bool { return uid > bound }
	if dir == SortDescending {
		keep = func(uid uint32) bool { return uid < bound }
	}

	// The sequence is ordered, so the survivors form a suffix.
	idx := sort.Search(len(ordered), func(i int) bool {
		return keep(ordered[i])
	})
	return ordered[idx:]
}
