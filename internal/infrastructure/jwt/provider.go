package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/expertguide/expertguide-api/internal/config"
	"github.com/expertguide/expertguide-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// ChallengeClaims binds a pending login attempt to a user while the 2FA code
// is outstanding. The embedded code expiry travels with the token so the
// client can show a countdown without another round trip.
type ChallengeClaims struct {
	UserID        string    `json:"user_id"`
	CodeExpiresAt time.Time `json:"expires_at"`
	jwt.RegisteredClaims
}

// AccessClaims is the short-lived session credential payload.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the identity; role is re-resolved on refresh.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies the three HS256 credential kinds. Each kind has
// its own secret and lifetime so a challenge token can never be replayed as a
// session token.
type Provider struct {
	accessSecret    []byte
	refreshSecret   []byte
	challengeSecret []byte

	accessTTL          time.Duration
	refreshTTL         time.Duration
	refreshRememberTTL time.Duration
	challengeTTL       time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" || cfg.JWTChallengeSecret == "" {
		return nil, errors.New("jwt secrets not configured")
	}
	return &Provider{
		accessSecret:       []byte(cfg.JWTAccessSecret),
		refreshSecret:      []byte(cfg.JWTRefreshSecret),
		challengeSecret:    []byte(cfg.JWTChallengeSecret),
		accessTTL:          cfg.AccessTokenTTL,
		refreshTTL:         cfg.RefreshTokenTTL,
		refreshRememberTTL: cfg.RefreshTokenRememberTTL,
		challengeTTL:       cfg.ChallengeTokenTTL,
	}, nil
}

// SignChallenge mints the temporary credential returned by login, valid for
// the challenge lifetime regardless of codeExpiresAt.
func (p *Provider) SignChallenge(userID string, codeExpiresAt time.Time) (string, error) {
	claims := ChallengeClaims{
		UserID:        userID,
		CodeExpiresAt: codeExpiresAt,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.challengeTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.challengeSecret)
}

func (p *Provider) VerifyChallenge(tokenStr string) (*ChallengeClaims, error) {
	claims := &ChallengeClaims{}
	if err := p.verify(tokenStr, claims, p.challengeSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (p *Provider) SignAccess(userID, role string) (string, error) {
	claims := AccessClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(p.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.accessSecret)
}

func (p *Provider) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := p.verify(tokenStr, claims, p.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

// SignRefresh mints a refresh credential; remember extends the lifetime from
// one hour to seven days.
func (p *Provider) SignRefresh(userID string, remember bool) (string, error) {
	ttl := p.refreshTTL
	if remember {
		ttl = p.refreshRememberTTL
	}
	claims := RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.refreshSecret)
}

func (p *Provider) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := p.verify(tokenStr, claims, p.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (p *Provider) verify(tokenStr string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%v: %w", err, domain.ErrExpiredToken)
		}
		return fmt.Errorf("%v: %w", err, domain.ErrInvalidToken)
	}
	if !token.Valid {
		return domain.ErrInvalidToken
	}
	return nil
}
