package twofactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/expertguide/expertguide-api/internal/config"
	"github.com/expertguide/expertguide-api/internal/domain"
	"github.com/expertguide/expertguide-api/internal/infrastructure/events"
)

// Store is the expiring key-value store holding challenge state. Backed by
// Redis in production; anything with per-key TTL works.
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
}

// Service runs the per-user challenge state machine: a code is issued with a
// fixed attempt budget, each wrong guess burns one attempt, and exhausting
// the budget blocks the user for a separate, longer TTL.
type Service interface {
	IssueChallenge(ctx context.Context, userID string) (*domain.ChallengeIssued, error)
	VerifyChallenge(ctx context.Context, userID, inputCode, ipAddress string) (*domain.VerificationResult, error)
	Cleanup(ctx context.Context, userID string) error
}

type service struct {
	store Store
	audit events.AuditPublisher
	cfg   config.TwoFactorConfig
}

// NewService wires the challenge engine. audit may be nil; attempts are then
// only logged locally.
func NewService(store Store, audit events.AuditPublisher, cfg config.TwoFactorConfig) Service {
	return &service{store: store, audit: audit, cfg: cfg}
}

func codeKey(userID string) string     { return "2fa:code:" + userID }
func attemptsKey(userID string) string { return "2fa:attempts:" + userID }
func blockedKey(userID string) string  { return "2fa:blocked:" + userID }

// IssueChallenge creates a fresh code and resets the attempt budget. Any
// previous challenge for the user is overwritten. Fails with
// domain.ErrRateLimited while a lockout is active.
func (s *service) IssueChallenge(ctx context.Context, userID string) (*domain.ChallengeIssued, error) {
	blocked, err := s.store.Exists(ctx, blockedKey(userID))
	if err != nil {
		return nil, err
	}
	if blocked {
		mins, err := s.blockMinutesLeft(ctx, userID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("user blocked, retry in %d minutes: %w", mins, domain.ErrRateLimited)
	}

	code, err := generateCode(s.cfg.CodeLength)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.cfg.CodeTTL)

	if err := s.store.Set(ctx, codeKey(userID), code, s.cfg.CodeTTL); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, attemptsKey(userID), strconv.Itoa(s.cfg.MaxAttempts), s.cfg.CodeTTL); err != nil {
		return nil, err
	}

	return &domain.ChallengeIssued{
		Code:              code,
		ExpiresAt:         expiresAt,
		RemainingAttempts: s.cfg.MaxAttempts,
	}, nil
}

// VerifyChallenge checks inputCode against the stored code. The attempt
// counter is decremented before comparison, so exactly MaxAttempts wrong
// guesses trigger the lockout.
//
// The read-then-write on the counter is not atomic: two concurrent attempts
// for the same user can observe the same remaining value. Single writer per
// user is the operating assumption here.
func (s *service) VerifyChallenge(ctx context.Context, userID, inputCode, ipAddress string) (*domain.VerificationResult, error) {
	blocked, err := s.store.Exists(ctx, blockedKey(userID))
	if err != nil {
		return nil, err
	}
	if blocked {
		mins, err := s.blockMinutesLeft(ctx, userID)
		if err != nil {
			return nil, err
		}
		s.publishAttempt(userID, ipAddress, domain.AttemptBlocked, 0)
		return &domain.VerificationResult{
			IsValid:           false,
			ShouldRetry:       false,
			RemainingAttempts: 0,
			Message:           fmt.Sprintf("user blocked, retry in %d minutes", mins),
		}, nil
	}

	storedCode, codeErr := s.store.Get(ctx, codeKey(userID))
	storedAttempts, attErr := s.store.Get(ctx, attemptsKey(userID))
	if errors.Is(codeErr, domain.ErrNotFound) || errors.Is(attErr, domain.ErrNotFound) {
		return &domain.VerificationResult{
			IsValid:           false,
			ShouldRetry:       false,
			RemainingAttempts: 0,
			Message:           "code expired or invalid",
		}, nil
	}
	if codeErr != nil {
		return nil, codeErr
	}
	if attErr != nil {
		return nil, attErr
	}

	attempts, err := strconv.Atoi(storedAttempts)
	if err != nil {
		return nil, fmt.Errorf("corrupt attempts counter for user %s: %w", userID, err)
	}
	remaining := attempts - 1

	if inputCode != storedCode {
		s.publishAttempt(userID, ipAddress, domain.AttemptFailed, remaining)

		if remaining <= 0 {
			if err := s.store.Set(ctx, blockedKey(userID), "1", s.cfg.BlockTTL); err != nil {
				return nil, err
			}
			if err := s.store.Delete(ctx, codeKey(userID), attemptsKey(userID)); err != nil {
				return nil, err
			}
			slog.Info("user blocked after exhausting 2fa attempts", "user_id", userID)
			return &domain.VerificationResult{
				IsValid:           false,
				ShouldRetry:       false,
				RemainingAttempts: 0,
				Message:           fmt.Sprintf("max attempts exceeded, user blocked for %d minutes", int(s.cfg.BlockTTL.Minutes())),
			}, nil
		}

		// Keep the remaining lifetime of the current code; a wrong guess must
		// not extend the challenge window.
		ttl, err := s.store.TTL(ctx, codeKey(userID))
		if err != nil {
			return nil, err
		}
		if ttl <= 0 {
			ttl = time.Second
		}
		if err := s.store.Set(ctx, attemptsKey(userID), strconv.Itoa(remaining), ttl); err != nil {
			return nil, err
		}
		return &domain.VerificationResult{
			IsValid:           false,
			ShouldRetry:       true,
			RemainingAttempts: remaining,
			Message:           fmt.Sprintf("incorrect code, %d attempts left", remaining),
		}, nil
	}

	if err := s.store.Delete(ctx, codeKey(userID), attemptsKey(userID)); err != nil {
		return nil, err
	}
	return &domain.VerificationResult{
		IsValid:           true,
		ShouldRetry:       false,
		RemainingAttempts: 0,
		Message:           "code verified",
	}, nil
}

// Cleanup removes all challenge state for the user, including an active
// lockout. Administrative reset.
func (s *service) Cleanup(ctx context.Context, userID string) error {
	return s.store.Delete(ctx, codeKey(userID), attemptsKey(userID), blockedKey(userID))
}

func (s *service) blockMinutesLeft(ctx context.Context, userID string) (int, error) {
	ttl, err := s.store.TTL(ctx, blockedKey(userID))
	if err != nil {
		return 0, err
	}
	return int(math.Ceil(ttl.Seconds() / 60)), nil
}

// publishAttempt emits the audit event without blocking or failing the
// verification flow.
func (s *service) publishAttempt(userID, ipAddress, status string, remaining int) {
	e := domain.AuditEvent{
		UserID:            userID,
		Timestamp:         time.Now().UTC(),
		IPAddress:         ipAddress,
		AttemptStatus:     status,
		RemainingAttempts: remaining,
	}
	if s.audit == nil {
		slog.Warn("2fa attempt", "user_id", e.UserID, "status", e.AttemptStatus, "ip", e.IPAddress, "remaining", e.RemainingAttempts)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.audit.PublishAttempt(ctx, e); err != nil {
			slog.Warn("audit publish failed", "user_id", e.UserID, "err", err)
		}
	}()
}
