package domain

import "time"

// ChallengeIssued is returned when a new 2FA code has been generated and
// stored. Code never leaves the backend except through the delivery channel.
type ChallengeIssued struct {
	Code              string
	ExpiresAt         time.Time
	RemainingAttempts int
}

// VerificationResult reports the outcome of a single 2FA code check.
// It is a value, not an error: callers use ShouldRetry and RemainingAttempts
// to decide whether to re-prompt the user.
type VerificationResult struct {
	IsValid           bool   `json:"is_valid"`
	ShouldRetry       bool   `json:"should_retry"`
	RemainingAttempts int    `json:"remaining_attempts"`
	Message           string `json:"message"`
}

// TokenPair holds the session credentials minted after a successful
// verification. Both are stateless bearer JWTs; neither is tracked
// server-side.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Audit attempt statuses.
const (
	AttemptFailed  = "failed"
	AttemptBlocked = "blocked"
)

// AuditEvent describes a failed or blocked 2FA attempt. Published
// fire-and-forget; consumers persist it out of band.
type AuditEvent struct {
	UserID            string    `json:"user_id"`
	Timestamp         time.Time `json:"timestamp"`
	IPAddress         string    `json:"ip_address"`
	AttemptStatus     string    `json:"attempt_status"`
	RemainingAttempts int       `json:"remaining_attempts"`
}
