package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/expertguide/expertguide-api/internal/application/twofactor"
	"github.com/expertguide/expertguide-api/internal/domain"
	jwtinfra "github.com/expertguide/expertguide-api/internal/infrastructure/jwt"
	"github.com/expertguide/expertguide-api/internal/infrastructure/smtp"
	"github.com/expertguide/expertguide-api/internal/infrastructure/sns"
	"github.com/expertguide/expertguide-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// InitiateResult is the response to a successful primary-credential check:
// the 2FA code is on its way and the temp token binds the follow-up
// verification to this user.
type InitiateResult struct {
	TempToken string    `json:"tempToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CompleteResult carries the verification outcome and, only when IsValid,
// the minted session credentials.
type CompleteResult struct {
	domain.VerificationResult
	Tokens *domain.TokenPair `json:"tokens,omitempty"`
}

// Service is the authentication front controller: primary credentials, the
// 2FA round trip, session issuance, refresh and registration.
type Service interface {
	Initiate(ctx context.Context, identifier, password, ipAddress string) (*InitiateResult, error)
	CompleteVerification(ctx context.Context, code, tempToken string, remember bool, ipAddress string) (*CompleteResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	VerifyToken(tokenStr string) (*jwtinfra.AccessClaims, error)
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
}

type roleStore interface {
	FindRole(ctx context.Context, userID string) (string, error)
	Assign(ctx context.Context, userID, role string) error
}

type credentialIssuer interface {
	SignChallenge(userID string, codeExpiresAt time.Time) (string, error)
	VerifyChallenge(tokenStr string) (*jwtinfra.ChallengeClaims, error)
	SignAccess(userID, role string) (string, error)
	VerifyAccess(tokenStr string) (*jwtinfra.AccessClaims, error)
	SignRefresh(userID string, remember bool) (string, error)
	VerifyRefresh(tokenStr string) (*jwtinfra.RefreshClaims, error)
}

type service struct {
	users      userStore
	roles      roleStore
	challenges twofactor.Service
	mailer     smtp.Mailer
	smsSender  sns.SMSSender
	tokens     credentialIssuer
	bcryptCost int
}

type ServiceDeps struct {
	UserRepo   userStore
	RoleRepo   roleStore
	Challenges twofactor.Service
	Mailer     smtp.Mailer
	SMSSender  sns.SMSSender
	Tokens     credentialIssuer
	BcryptCost int
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{
		users:      deps.UserRepo,
		roles:      deps.RoleRepo,
		challenges: deps.Challenges,
		mailer:     deps.Mailer,
		smsSender:  deps.SMSSender,
		tokens:     deps.Tokens,
		bcryptCost: cost,
	}
}

// Initiate validates primary credentials, issues a 2FA challenge, delivers
// the code out of band and returns the temp token. Unknown identifier and
// wrong password produce the same error so account existence never leaks.
func (s *service) Initiate(ctx context.Context, identifier, password, ipAddress string) (*InitiateResult, error) {
	user, err := s.lookup(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	challenge, err := s.challenges.IssueChallenge(ctx, user.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.deliver(ctx, user, challenge.Code); err != nil {
		return nil, err
	}

	tempToken, err := s.tokens.SignChallenge(user.UserID, challenge.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &InitiateResult{TempToken: tempToken, ExpiresAt: challenge.ExpiresAt}, nil
}

// CompleteVerification checks the 2FA code against the challenge bound by
// tempToken and, on success, mints the session credentials. A failed check
// is not an error: the result tells the client whether to re-prompt.
func (s *service) CompleteVerification(ctx context.Context, code, tempToken string, remember bool, ipAddress string) (*CompleteResult, error) {
	claims, err := s.tokens.VerifyChallenge(tempToken)
	if err != nil {
		return nil, err
	}

	result, err := s.challenges.VerifyChallenge(ctx, claims.UserID, code, ipAddress)
	if err != nil {
		return nil, err
	}
	if !result.IsValid {
		return &CompleteResult{VerificationResult: *result}, nil
	}

	role, err := s.roles.FindRole(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoRoleAssigned
		}
		return nil, err
	}

	accessToken, err := s.tokens.SignAccess(claims.UserID, role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.SignRefresh(claims.UserID, remember)
	if err != nil {
		return nil, err
	}

	return &CompleteResult{
		VerificationResult: *result,
		Tokens: &domain.TokenPair{
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
		},
	}, nil
}

// Refresh verifies a refresh credential, re-resolves the role and mints a
// fresh access token. An unresolvable role invalidates the credential.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}
	role, err := s.roles.FindRole(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("user has no role assigned: %w", domain.ErrInvalidToken)
		}
		return "", err
	}
	return s.tokens.SignAccess(claims.UserID, role)
}

// VerifyToken introspects an access credential and returns its claims.
func (s *service) VerifyToken(tokenStr string) (*jwtinfra.AccessClaims, error) {
	return s.tokens.VerifyAccess(tokenStr)
}

// Register creates a new identity after enforcing the password, username and
// email policies. The password is stored bcrypt-hashed and the user is
// granted the default client role.
func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	if err := validateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.ensureUnique(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		UserID:       id.New(),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
		Enable:       1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, user); err != nil {
		return nil, err
	}
	if err := s.roles.Assign(ctx, user.UserID, domain.RoleClient); err != nil {
		return nil, err
	}
	return user, nil
}

// lookup resolves a user by email when the identifier looks like one,
// otherwise by username.
func (s *service) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	if isEmail(identifier) {
		return s.users.GetByEmail(ctx, identifier)
	}
	return s.users.GetByUsername(ctx, identifier)
}

// deliver sends the code by email when possible, falling back to SMS for
// accounts without an email address. No deliverable address is fatal to the
// login attempt.
func (s *service) deliver(ctx context.Context, user *domain.User, code string) error {
	if user.Email != "" {
		if err := s.mailer.SendAuthCode(user.Email, code); err != nil {
			return fmt.Errorf("%v: %w", err, domain.ErrDeliveryFailed)
		}
		return nil
	}
	if user.Phone != nil && s.smsSender != nil {
		if err := s.smsSender.SendSMS(ctx, *user.Phone, "Your verification code: "+code); err != nil {
			return fmt.Errorf("%v: %w", err, domain.ErrDeliveryFailed)
		}
		return nil
	}
	return fmt.Errorf("user has no deliverable address: %w", domain.ErrDeliveryFailed)
}

func (s *service) ensureUnique(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return fmt.Errorf("username already taken: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}
