package jwtinfra

import (
	"testing"
	"time"

	"github.com/expertguide/expertguide-api/internal/config"
	"github.com/expertguide/expertguide-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTAccessSecret:         "access-secret",
		JWTRefreshSecret:        "refresh-secret",
		JWTChallengeSecret:      "challenge-secret",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTL:         time.Hour,
		RefreshTokenRememberTTL: 7 * 24 * time.Hour,
		ChallengeTokenTTL:       10 * time.Minute,
	}
}

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := NewProvider(testConfig())
	require.NoError(t, err)
	return p
}

func TestNewProvider_MissingSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.JWTRefreshSecret = ""
	_, err := NewProvider(cfg)
	assert.Error(t, err)
}

func TestChallengeToken_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	codeExpiry := time.Now().Add(10 * time.Minute).Truncate(time.Second)

	token, err := p.SignChallenge("u1", codeExpiry)
	require.NoError(t, err)

	claims, err := p.VerifyChallenge(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.WithinDuration(t, codeExpiry, claims.CodeExpiresAt, time.Second)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	p := newTestProvider(t)

	token, err := p.SignAccess("u1", domain.RoleDriver)
	require.NoError(t, err)

	claims, err := p.VerifyAccess(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleDriver, claims.Role)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	p := newTestProvider(t)

	token, err := p.SignRefresh("u1", false)
	require.NoError(t, err)

	claims, err := p.VerifyRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshToken_RememberExtendsLifetime(t *testing.T) {
	p := newTestProvider(t)

	short, err := p.SignRefresh("u1", false)
	require.NoError(t, err)
	long, err := p.SignRefresh("u1", true)
	require.NoError(t, err)

	shortClaims, err := p.VerifyRefresh(short)
	require.NoError(t, err)
	longClaims, err := p.VerifyRefresh(long)
	require.NoError(t, err)

	assert.True(t, longClaims.ExpiresAt.After(shortClaims.ExpiresAt.Time))
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), longClaims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_CrossKindRejected(t *testing.T) {
	p := newTestProvider(t)

	challenge, err := p.SignChallenge("u1", time.Now().Add(10*time.Minute))
	require.NoError(t, err)
	refresh, err := p.SignRefresh("u1", false)
	require.NoError(t, err)

	// Each kind signs with its own secret, so tokens never cross over.
	_, err = p.VerifyAccess(challenge)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = p.VerifyAccess(refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = p.VerifyChallenge(refresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	cfg.ChallengeTokenTTL = -time.Minute
	p, err := NewProvider(cfg)
	require.NoError(t, err)

	access, err := p.SignAccess("u1", domain.RoleClient)
	require.NoError(t, err)
	_, err = p.VerifyAccess(access)
	assert.ErrorIs(t, err, domain.ErrExpiredToken)

	challenge, err := p.SignChallenge("u1", time.Now())
	require.NoError(t, err)
	_, err = p.VerifyChallenge(challenge)
	assert.ErrorIs(t, err, domain.ErrExpiredToken)
}

func TestVerify_Garbage(t *testing.T) {
	p := newTestProvider(t)

	_, err := p.VerifyAccess("not.a.jwt")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	_, err = p.VerifyAccess("")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestVerify_TamperedSignature(t *testing.T) {
	p := newTestProvider(t)

	other, err := NewProvider(&config.Config{
		JWTAccessSecret:         "other-secret",
		JWTRefreshSecret:        "other-secret",
		JWTChallengeSecret:      "other-secret",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTL:         time.Hour,
		RefreshTokenRememberTTL: 7 * 24 * time.Hour,
		ChallengeTokenTTL:       10 * time.Minute,
	})
	require.NoError(t, err)

	forged, err := other.SignAccess("u1", domain.RoleAdmin)
	require.NoError(t, err)

	_, err = p.VerifyAccess(forged)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}
