// Package bookingref generates human-readable booking reference numbers.
package bookingref

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Alphabet used for the random suffix. Uppercase alphanumeric so the
// reference can be read over the phone and typed without ambiguity about
// case.
const suffixAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// SuffixLength is the number of random characters appended to the time
// component.
const SuffixLength = 5

// New generates a booking reference.
// Format: BK-<base36 unix millis>-<5 char uppercase alphanumeric>
// Example: BK-MF3K9QZ1-A7Q2X
//
// The time component makes references roughly sortable by creation time;
// the random suffix makes collisions overwhelmingly unlikely. Uniqueness
// is ultimately enforced by the store's unique index on bookingReference,
// so New never fails - callers retry on a duplicate insert.
func New() string {
	return NewAt(time.Now())
}

// NewAt generates a booking reference for the given timestamp. Split out
// from New for deterministic testing of the time component.
func NewAt(t time.Time) string {
	timestamp := strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))

	suffix := make([]byte, SuffixLength)
	max := big.NewInt(int64(len(suffixAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			// Fall back to a time-derived index rather than failing the
			// booking; the unique index still catches any collision.
			n = big.NewInt(time.Now().UnixNano() % int64(len(suffixAlphabet)))
		}
		suffix[i] = suffixAlphabet[n.Int64()]
	}

	return "BK-" + timestamp + "-" + string(suffix)
}
