package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// RandomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  It is used to produce the
// opaque single-use tokens of the password-reset and email-verification
// flows.
func RandomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
