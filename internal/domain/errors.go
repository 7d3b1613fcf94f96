package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")

	// ErrInvalidCredentials covers both unknown-identifier and wrong-password
	// so the response never reveals whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrRateLimited is returned while a lockout is active. The wrapping
	// message carries the remaining block time in whole minutes.
	ErrRateLimited = errors.New("rate limited")

	ErrExpiredToken = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")

	// ErrNoRoleAssigned indicates a user passed verification but has no role
	// membership record. This is a data-integrity problem, surfaced as a
	// server error rather than an auth failure.
	ErrNoRoleAssigned = errors.New("user has no role assigned")

	ErrDeliveryFailed = errors.New("verification code delivery failed")

	ErrWeakPassword    = errors.New("password does not meet policy")
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidEmail    = errors.New("invalid email")
)
