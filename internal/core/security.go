// AngelaMos | 2026
// security.go

package core

import (
	"crypto/sha256"
	"crypto/subtle"
)

// CompareSecret reports whether presented equals expected in constant time.
// Both sides are hashed first so the comparison does not leak length.
func CompareSecret(presented, expected string) bool {
	if expected == "" {
		return false
	}

	a := sha256.Sum256([]byte(presented))
	b := sha256.Sum256([]byte(expected))

	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}
