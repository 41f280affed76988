package mail

import (
	"encoding/base64"
	"strconv"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Cursors are caller-supplied opaque tokens, so decoding is a trust
// boundary: anything that does not round-trip to a positive UID is rejected
// with a validation error rather than treated as "no cursor".

// EncodeCursor encodes a message UID into an opaque page cursor. The
// encoding only needs to be self-consistent within one running server;
// callers must not depend on its format.
func EncodeCursor(uid uint32) string {
	return base64.RawURLEncoding.EncodeToString(
		[]byte(strconv.FormatUint(uint64(uid), 10)),
	)
}

// DecodeCursor decodes an opaque page cursor back into the UID boundary it
// carries. An empty cursor decodes to None, meaning "start from the
// beginning of the ordered sequence".
func DecodeCursor(cursor string) (fn.Option[uint32], error) {
	if cursor == "" {
		return fn.None[uint32](), nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return fn.None[uint32](), newValidationError(
			"cursor", cursor, "not a valid page cursor",
		)
	}

	uid, err := strconv.ParseUint(string(raw), 10, 32)
	if err != nil || uid == 0 {
		return fn.None[uint32](), newValidationError(
			"cursor", cursor, "not a valid page cursor",
		)
	}

	return fn.Some(uint32(uid)), nil
}
