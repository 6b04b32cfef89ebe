// internal/daily/daily.go
//
// Deterministic "puzzle of the day" seeds.
// Everyone who asks for a given UTC date gets the same seed, and therefore the
// same grid for the same word list. The salt keeps future dates unguessable.

package daily

import (
	"encoding/binary"
	"time"

	"golang.org/x/crypto/blake2b"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a non-zero seed for the date, keyed by salt.
// The first 8 bytes of BLAKE2b-256(key=H(salt), YYYY-MM-DD) are used.
func Seed(date time.Time, salt string) uint64 {
	key := blake2b.Sum256([]byte(salt))
	h, err := blake2b.New256(key[:])
	if err != nil {
		// 32-byte keys are always accepted.
		panic(err)
	}
	h.Write([]byte(DateKey(date)))
	n := binary.BigEndian.Uint64(h.Sum(nil)[:8])
	if n == 0 {
		n = 1
	}
	return n
}
