package twofactor

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/expertguide/expertguide-api/internal/config"
	"github.com/expertguide/expertguide-api/internal/domain"
	redisinfra "github.com/expertguide/expertguide-api/internal/infrastructure/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = config.TwoFactorConfig{
	CodeLength:  6,
	CodeTTL:     10 * time.Minute,
	MaxAttempts: 3,
	BlockTTL:    30 * time.Minute,
}

// captureAudit records published events on a channel so tests can observe
// the asynchronous publish.
type captureAudit struct {
	events chan domain.AuditEvent
}

func newCaptureAudit() *captureAudit {
	return &captureAudit{events: make(chan domain.AuditEvent, 16)}
}

func (c *captureAudit) PublishAttempt(_ context.Context, e domain.AuditEvent) error {
	c.events <- e
	return nil
}

func (c *captureAudit) next(t *testing.T) domain.AuditEvent {
	t.Helper()
	select {
	case e := <-c.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no audit event published")
		return domain.AuditEvent{}
	}
}

func newTestService(t *testing.T) (Service, *miniredis.Miniredis, *captureAudit) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	audit := newCaptureAudit()
	return NewService(redisinfra.NewStore(client), audit, testCfg), mr, audit
}

func TestIssueChallenge_New(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	challenge, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)

	assert.Regexp(t, `^\d{6}$`, challenge.Code)
	assert.Equal(t, 3, challenge.RemainingAttempts)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), challenge.ExpiresAt, 5*time.Second)

	stored, err := mr.Get("2fa:code:u1")
	require.NoError(t, err)
	assert.Equal(t, challenge.Code, stored)

	attempts, err := mr.Get("2fa:attempts:u1")
	require.NoError(t, err)
	assert.Equal(t, "3", attempts)

	assert.InDelta(t, (10 * time.Minute).Seconds(), mr.TTL("2fa:code:u1").Seconds(), 2)
	assert.InDelta(t, (10 * time.Minute).Seconds(), mr.TTL("2fa:attempts:u1").Seconds(), 2)
}

func TestIssueChallenge_OverwritesPrevious(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)

	// Burn one attempt on the first code.
	_, err = svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
	require.NoError(t, err)

	second, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, second.RemainingAttempts)

	stored, err := mr.Get("2fa:code:u1")
	require.NoError(t, err)
	assert.Equal(t, second.Code, stored)
	// Old code may coincide with the new one only by chance; the stored one
	// must be the latest in any case.
	_ = first
}

func TestVerifyChallenge_CorrectCode(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	challenge, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)

	result, err := svc.VerifyChallenge(ctx, "u1", challenge.Code, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.False(t, result.ShouldRetry)
	assert.Equal(t, 0, result.RemainingAttempts)

	assert.False(t, mr.Exists("2fa:code:u1"))
	assert.False(t, mr.Exists("2fa:attempts:u1"))

	// The code was consumed; replaying it must fail as expired.
	replay, err := svc.VerifyChallenge(ctx, "u1", challenge.Code, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, replay.IsValid)
	assert.False(t, replay.ShouldRetry)
	assert.Equal(t, "code expired or invalid", replay.Message)
}

func TestVerifyChallenge_WrongCodeSequence(t *testing.T) {
	svc, mr, audit := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)

	r1, err := svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, r1.IsValid)
	assert.True(t, r1.ShouldRetry)
	assert.Equal(t, 2, r1.RemainingAttempts)

	e := audit.next(t)
	assert.Equal(t, domain.AttemptFailed, e.AttemptStatus)
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "10.0.0.1", e.IPAddress)
	assert.Equal(t, 2, e.RemainingAttempts)

	r2, err := svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, r2.ShouldRetry)
	assert.Equal(t, 1, r2.RemainingAttempts)
	audit.next(t)

	// Third wrong guess exhausts the budget and triggers the lockout.
	r3, err := svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, r3.IsValid)
	assert.False(t, r3.ShouldRetry)
	assert.Equal(t, 0, r3.RemainingAttempts)
	audit.next(t)

	assert.True(t, mr.Exists("2fa:blocked:u1"))
	assert.False(t, mr.Exists("2fa:code:u1"))
	assert.False(t, mr.Exists("2fa:attempts:u1"))
}

func TestIssueChallenge_Blocked(t *testing.T) {
	svc, _, audit := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
		require.NoError(t, err)
		audit.next(t)
	}

	_, err = svc.IssueChallenge(ctx, "u1")
	require.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Contains(t, err.Error(), "30 minutes")
}

func TestVerifyChallenge_Blocked(t *testing.T) {
	svc, _, audit := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
		require.NoError(t, err)
		audit.next(t)
	}

	result, err := svc.VerifyChallenge(ctx, "u1", "123456", "10.0.0.2")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.False(t, result.ShouldRetry)
	assert.Equal(t, 0, result.RemainingAttempts)
	assert.Contains(t, result.Message, "blocked")

	e := audit.next(t)
	assert.Equal(t, domain.AttemptBlocked, e.AttemptStatus)
	assert.Equal(t, 0, e.RemainingAttempts)
}

func TestBlockExpires(t *testing.T) {
	svc, mr, audit := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
		require.NoError(t, err)
		audit.next(t)
	}

	_, err = svc.IssueChallenge(ctx, "u1")
	require.ErrorIs(t, err, domain.ErrRateLimited)

	mr.FastForward(31 * time.Minute)

	challenge, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, challenge.RemainingAttempts)
}

func TestVerifyChallenge_ExpiredCode(t *testing.T) {
	svc, mr, _ := newTestService(t)
	ctx := context.Background()

	challenge, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)

	mr.FastForward(11 * time.Minute)

	result, err := svc.VerifyChallenge(ctx, "u1", challenge.Code, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.False(t, result.ShouldRetry)
	assert.Equal(t, "code expired or invalid", result.Message)
}

func TestVerifyChallenge_AttemptTTLNotReset(t *testing.T) {
	svc, mr, audit := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)

	mr.FastForward(5 * time.Minute)

	_, err = svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
	require.NoError(t, err)
	audit.next(t)

	// A wrong guess must not extend the challenge window.
	assert.LessOrEqual(t, mr.TTL("2fa:attempts:u1"), 5*time.Minute+time.Second)
}

func TestCleanup(t *testing.T) {
	svc, mr, audit := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
		require.NoError(t, err)
		audit.next(t)
	}
	require.True(t, mr.Exists("2fa:blocked:u1"))

	require.NoError(t, svc.Cleanup(ctx, "u1"))
	assert.False(t, mr.Exists("2fa:blocked:u1"))

	// Reset lifts the lockout immediately.
	_, err = svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)
}

func TestNilAuditPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := NewService(redisinfra.NewStore(client), nil, testCfg)
	ctx := context.Background()

	_, err := svc.IssueChallenge(ctx, "u1")
	require.NoError(t, err)

	result, err := svc.VerifyChallenge(ctx, "u1", "000000", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.True(t, result.ShouldRetry)
}
