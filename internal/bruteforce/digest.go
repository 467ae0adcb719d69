package bruteforce

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// DigestLen is the length of a hex-encoded MD5 digest.
const DigestLen = md5.Size * 2

// Digest returns the MD5 of input as lowercase hex.
func Digest(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// ValidateTarget reports whether s could ever be matched by the search loop:
// exactly DigestLen lowercase hex characters.
func ValidateTarget(s string) error {
	if len(s) != DigestLen {
		return fmt.Errorf("%w: want %d hex characters, got %d", ErrInvalidTarget, DigestLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: invalid character %q at offset %d", ErrInvalidTarget, c, i)
		}
	}
	return nil
}
