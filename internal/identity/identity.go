// Package identity derives the opaque owner key stored next to events and marks.
package identity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// OwnerHash returns the lowercase hex SHA-256 of userID immediately followed
// by email. The result is always 64 characters.
func OwnerHash(userID, email string) string {
	sum := sha256.Sum256([]byte(userID + email))
	return hex.EncodeToString(sum[:])
}

// Equal compares two owner hashes in constant time.
func Equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
