// Package id generates identifiers for ledger records and orders.
package id

import (
	"fmt"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Generate creates a prefixed unique ID using NanoID
// Format: prefix-nanoid (e.g., "bill-V1StGXR8_Z5jdHi6B-myT")
//
// NanoIDs are URL-friendly, compact (21 characters vs UUID's 36),
// and use a larger alphabet for better entropy per character.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// OrderNumber builds a redemption order number from the given prefix and time.
// Format: PREFIX-######, where the digits are the trailing six digits of the
// millisecond timestamp. Human-readable over admin channels; uniqueness holds
// as long as two orders do not land on the same millisecond modulo 1000s.
func OrderNumber(prefix string, at time.Time) string {
	ms := strconv.FormatInt(at.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return prefix + "-" + ms
}
