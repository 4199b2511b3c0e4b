package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// verificationTokenBytes is the entropy of a verification token; hex-encoded
// it yields 64 characters.
const verificationTokenBytes = 32

// newVerificationToken generates a cryptographically random token
func newVerificationToken() (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate verification token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
