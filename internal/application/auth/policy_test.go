package auth

import (
	"testing"

	"github.com/expertguide/expertguide-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name string
		pass string
		ok   bool
	}{
		{"valid", "Abc123!", true},
		{"valid with brackets", "Passw0rd[]", true},
		{"too short", "Ab1!", false},
		{"no uppercase", "abc123!", false},
		{"no lowercase", "ABC123!", false},
		{"no digit", "Abcdef!", false},
		{"no special", "Abc1234", false},
		{"empty", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.pass)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrWeakPassword)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		ok       bool
	}{
		{"valid", "driver01", true},
		{"min length", "sixsix", true},
		{"max length", "abcdefghijklmnopqrst", true},
		{"too short", "abc", false},
		{"too long", "abcdefghijklmnopqrstu", false},
		{"contains space", "bad user", false},
		{"contains tab", "bad\tuser", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateUsername(tc.username)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidUsername)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validateEmail("driver@expertguide.com"))
	assert.NoError(t, validateEmail("a.b+c@sub.example.io"))

	for _, bad := range []string{"", "plain", "no@tld", "spaces in@mail.com", "@missing.local"} {
		err := validateEmail(bad)
		require.Error(t, err, bad)
		assert.ErrorIs(t, err, domain.ErrInvalidEmail)
	}
}

func TestIsEmail(t *testing.T) {
	assert.True(t, isEmail("user@example.com"))
	assert.False(t, isEmail("driver01"))
}
