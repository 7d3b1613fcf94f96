package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/expertguide/expertguide-api/internal/application/auth"
	"github.com/expertguide/expertguide-api/internal/application/twofactor"
	"github.com/expertguide/expertguide-api/internal/config"
	"github.com/expertguide/expertguide-api/internal/domain"
	"github.com/expertguide/expertguide-api/internal/pkg/validate"
	"github.com/expertguide/expertguide-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
)

// LoginRequest carries the primary credentials. Wire names match the
// original front end.
type LoginRequest struct {
	Usuario  string `json:"usuario" validate:"required"`
	Pass     string `json:"pass" validate:"required"`
	Recordar bool   `json:"recordar"`
}

// VerifyRequest carries the 2FA code and the temp token from login.
type VerifyRequest struct {
	Code      string `json:"code" validate:"required"`
	TempToken string `json:"tempToken" validate:"required"`
	Recordar  bool   `json:"recordar"`
}

// AuthHandler handles the authentication endpoints.
type AuthHandler struct {
	svc        auth.Service
	challenges twofactor.Service
	cfg        *config.Config
}

func NewAuthHandler(svc auth.Service, challenges twofactor.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, challenges: challenges, cfg: cfg}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.Initiate(r.Context(), req.Usuario, req.Pass, r.RemoteAddr)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrRateLimited):
			writeError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, domain.ErrDeliveryFailed):
			writeError(w, http.StatusBadGateway, "could not deliver verification code")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, LoginEnvelope{
		OK:        true,
		Msg:       "2FA code sent",
		TempToken: result.TempToken,
		ExpiresAt: result.ExpiresAt,
	})
}

func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.svc.CompleteVerification(r.Context(), req.Code, req.TempToken, req.Recordar, r.RemoteAddr)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrExpiredToken):
			writeError(w, http.StatusUnauthorized, "temp token expired")
		case errors.Is(err, domain.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "invalid temp token")
		case errors.Is(err, domain.ErrNoRoleAssigned):
			writeError(w, http.StatusInternalServerError, "user has no role assigned")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if result.IsValid && result.Tokens != nil {
		h.setAuthCookies(w, result.Tokens, req.Recordar)
		writeJSON(w, http.StatusOK, VerifyEnvelope{
			OK:     true,
			Msg:    result.Message,
			Tokens: result.Tokens,
		})
		return
	}

	writeJSON(w, http.StatusUnauthorized, VerifyEnvelope{
		OK:                false,
		Msg:               result.Message,
		RemainingAttempts: result.RemainingAttempts,
		ShouldRetry:       result.ShouldRetry,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := refreshTokenFromRequest(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "refresh token required")
		return
	}
	accessToken, err := h.svc.Refresh(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid or expired refresh token")
		return
	}
	h.setCookie(w, "access_token", accessToken, int(h.cfg.AccessTokenTTL.Seconds()))
	writeJSON(w, http.StatusOK, RefreshEnvelope{OK: true, Token: accessToken})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.setCookie(w, "access_token", "", -1)
	h.setCookie(w, "refresh_token", "", -1)
	writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Msg: "session closed"})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svc.Register(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, domain.ErrConflict):
			writeError(w, http.StatusConflict, "user already exists")
		case errors.Is(err, domain.ErrWeakPassword),
			errors.Is(err, domain.ErrInvalidUsername),
			errors.Is(err, domain.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "could not create user")
		}
		return
	}
	writeJSON(w, http.StatusCreated, MessageEnvelope{OK: true, Msg: "registration successful"})
}

// Me introspects the access credential from the cookie or bearer header.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	tokenStr := middleware.TokenFromRequest(r)
	if tokenStr == "" {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	claims, err := h.svc.VerifyToken(tokenStr)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, MeEnvelope{
		OK:   true,
		User: MeUser{ID: claims.UserID, Role: claims.Role},
	})
}

// ResetChallenge clears all 2FA state for a user, including an active
// lockout. Admin only.
func (h *AuthHandler) ResetChallenge(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if err := h.challenges.Cleanup(r.Context(), userID); err != nil {
		writeError(w, http.StatusInternalServerError, "could not reset challenge state")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Msg: "challenge state cleared"})
}

func (h *AuthHandler) setAuthCookies(w http.ResponseWriter, tokens *domain.TokenPair, remember bool) {
	refreshTTL := h.cfg.RefreshTokenTTL
	if remember {
		refreshTTL = h.cfg.RefreshTokenRememberTTL
	}
	h.setCookie(w, "access_token", tokens.AccessToken, int(h.cfg.AccessTokenTTL.Seconds()))
	h.setCookie(w, "refresh_token", tokens.RefreshToken, int(refreshTTL.Seconds()))
}

func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.AppEnv == "production",
		SameSite: http.SameSiteStrictMode,
	})
}

func refreshTokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie("refresh_token"); err == nil && c.Value != "" {
		return c.Value
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}
