package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// tokenEntropy is how many random bytes back a token; hex-encoding doubles it
// into the 64-character client-held value.
const tokenEntropy = 32

// Token is the opaque bearer value held by the client, 32 random bytes
// hex-encoded. It has no embedded structure; the server looks sessions up by
// its hash.
type Token string

// RedactedToken is the redacted string or json for a session token
const RedactedToken = "[REDACTED: session token]"

// String will redact the token
func (t Token) String() string {
	return RedactedToken
}

// MarshalJSON will redact the token
func (t Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(RedactedToken)
}

// NewToken generates a cryptographically secure random token.
func NewToken() (Token, error) {
	const op = "session.NewToken"
	b := make([]byte, tokenEntropy)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w: %v", op, ErrTokenGeneration, err)
	}
	return Token(hex.EncodeToString(b)), nil
}

// HashToken returns the deterministic SHA-256 hex digest of a token, the only
// form a token ever takes at rest. A compromised store yields hashes, not
// usable bearer values.
func HashToken(t Token) string {
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:])
}
