package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/expertguide/expertguide-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper. The ok/msg shape matches
// what the front end already consumes.
type MessageEnvelope struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}

// LoginEnvelope wraps the login response: the 2FA code is on its way and the
// temp token identifies the pending challenge.
type LoginEnvelope struct {
	OK        bool      `json:"ok"`
	Msg       string    `json:"msg"`
	TempToken string    `json:"tempToken"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifyEnvelope wraps the verify-2fa response. Tokens is present only on
// success; RemainingAttempts and ShouldRetry let the client decide whether
// to re-prompt.
type VerifyEnvelope struct {
	OK                bool              `json:"ok"`
	Msg               string            `json:"msg"`
	RemainingAttempts int               `json:"remainingAttempts"`
	ShouldRetry       bool              `json:"shouldRetry"`
	Tokens            *domain.TokenPair `json:"tokens,omitempty"`
}

// RefreshEnvelope wraps the refreshed access token.
type RefreshEnvelope struct {
	OK    bool   `json:"ok"`
	Token string `json:"token"`
}

// MeEnvelope wraps the introspection response.
type MeEnvelope struct {
	OK   bool   `json:"ok"`
	User MeUser `json:"user"`
}

type MeUser struct {
	ID   string `json:"id"`
	Role string `json:"rol"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{OK: false, Msg: msg})
}
