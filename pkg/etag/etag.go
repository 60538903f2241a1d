// Package etag derives entity tags used for optimistic concurrency checks.
//
// A tag is a version fingerprint computed from an entity's identity and its
// lifecycle timestamps. Nothing is stored: any change to the created or
// modified timestamp yields a different tag.
package etag

import (
	"crypto/md5" //nolint:gosec // versioning fingerprint, not a security boundary
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the canonical serialization of timestamps fed into the hash.
// Seven fractional digits and a numeric offset, applied uniformly on every backend.
const TimestampLayout = "2006-01-02T15:04:05.0000000-07:00"

// Hash returns the uppercase hexadecimal MD5 digest of input.
func Hash(input string) string {
	sum := md5.Sum([]byte(input)) //nolint:gosec
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// FormatTimestamp renders t in the canonical layout.
// Times are normalized to UTC so the same instant always hashes the same.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Generate computes the quoted entity tag for the given identity and timestamps.
func Generate(id uuid.UUID, createdAt, modifiedAt time.Time) string {
	inner := Hash(hexID(id) + "+" + FormatTimestamp(createdAt))
	outer := Hash(inner + "+" + FormatTimestamp(modifiedAt))
	return `"` + outer + `"`
}

// Compare reports whether provided matches current.
// An empty value on either side never matches, so a missing precondition
// header cannot pass the check by accident.
func Compare(current, provided string) bool {
	if current == "" || provided == "" {
		return false
	}
	return strings.EqualFold(current, provided)
}

func hexID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}
