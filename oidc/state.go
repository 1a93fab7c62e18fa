package oidc

import (
	"sync"
	"time"
)

// DefaultAttemptExpiry bounds how long an issued state value remains
// redeemable when state enforcement is enabled.
const DefaultAttemptExpiry = 2 * time.Minute

// attempt represents one authorization attempt: the state and nonce issued
// with the authorize redirect, and when the attempt stops being redeemable.
type attempt struct {
	state      string
	nonce      string
	expiration time.Time
}

// isExpired returns true if the attempt has expired.
func (a *attempt) isExpired() bool {
	return a.expiration.Before(time.Now())
}

// attemptCache retains issued states so callbacks can be checked against
// them. Entries are single-use: Take removes on read. Expired entries are
// dropped lazily on access and whenever a new attempt is added.
type attemptCache struct {
	mu sync.Mutex
	m  map[string]*attempt
}

func newAttemptCache() *attemptCache {
	return &attemptCache{
		m: map[string]*attempt{},
	}
}

// Add retains an attempt under its state value and sweeps expired entries,
// keeping the cache bounded by the attempt expiry window.
func (c *attemptCache) Add(a *attempt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for state, held := range c.m {
		if held.isExpired() {
			delete(c.m, state)
		}
	}
	c.m[a.state] = a
}

// Take removes and returns the attempt for a state value. It returns false
// when the state was never issued or the attempt has expired.
func (c *attemptCache) Take(state string) (*attempt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.m[state]
	if !ok {
		return nil, false
	}
	delete(c.m, state)
	if a.isExpired() {
		return nil, false
	}
	return a, true
}
