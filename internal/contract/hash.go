package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for a future algorithm change.
const (
	DomainEvent    = "gwp/event/v1"
	DomainSnapshot = "gwp/snapshot/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null separator keeps domain and data from running into each other.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EventID computes the content-addressed ID of an event at a position in a
// named source log. Two identical events at different positions get
// different IDs, so repeated identical price changes are both kept; the same
// log imported twice produces the same IDs.
func EventID(source string, ordinal int64, e Event) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"source":  source,
		"ordinal": ordinal,
		"event":   Fields(e),
	})
	if err != nil {
		return "", fmt.Errorf("EventID: failed to marshal: %w", err)
	}
	return HashWithDomain(DomainEvent, canonical), nil
}

// MustEventID is like EventID but panics on error.
// Use only in tests.
func MustEventID(source string, ordinal int64, e Event) string {
	id, err := EventID(source, ordinal, e)
	if err != nil {
		panic(err)
	}
	return id
}
