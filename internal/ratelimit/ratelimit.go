package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Decision is the outcome of a single quota consumption attempt
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Time
}

// Limiter enforces a submission quota per client identity. Allow consumes one
// unit of quota atomically and reports whether the request may proceed. When
// the limiter backend is unavailable implementations fail open: the request
// is allowed and the backend error returned alongside for logging.
type Limiter interface {
	Allow(ctx context.Context, identity string) (Decision, error)
}

// Identity derives an opaque rate limiting key from the client IP and session
// id. Both parts are hashed so the key is deterministic but not reversible.
func Identity(ip, sessionID string) string {
	ipSum := sha256.Sum256([]byte(ip))
	sessSum := sha256.Sum256([]byte(sessionID))
	return "contact:" + hex.EncodeToString(ipSum[:8]) + ":" + hex.EncodeToString(sessSum[:8])
}

// windowStart truncates now to the start of the current fixed window
func windowStart(now time.Time, interval time.Duration) time.Time {
	return now.Truncate(interval)
}
