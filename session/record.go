package session

import "time"

// Record represents one authenticated browser session. Records are keyed in
// the store by the hash of their token; the token itself is not part of the
// record.
//
// Invariant: ExpireAt never trails DestroyAt. Both deadlines are set together
// at creation and again at every rotation, relative to that moment.
type Record struct {
	// SessionID correlates log lines for one session. It survives token
	// rotation and is never exposed to the client.
	SessionID string `json:"sessionId"`

	// AuthorID is the stable subject id from the provider's identity claim.
	AuthorID string `json:"authorId"`

	// Name is the display name shown back to the client.
	Name string `json:"name"`

	// ExpireAt is the rotation deadline: past it the session is still valid
	// but must be rotated to a new token.
	ExpireAt time.Time `json:"expireAt"`

	// DestroyAt is the hard deadline: past it the session is unconditionally
	// invalid.
	DestroyAt time.Time `json:"destroyAt"`
}

// Destroyed returns true once the hard deadline has passed.
func (r *Record) Destroyed(now time.Time) bool {
	return !now.Before(r.DestroyAt)
}

// NeedsRotation returns true once the rotation deadline has passed.
func (r *Record) NeedsRotation(now time.Time) bool {
	return !now.Before(r.ExpireAt)
}
