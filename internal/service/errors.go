package service

import "errors"

// Centralized service layer errors.
// Handlers map these to problem details in handler.MapServiceError, so
// every error a service method can return should be listed here or be
// one of authz.ErrForbidden, storage.ErrStorage or session.ErrUnauthenticated.

// ===== Account Errors =====
var (
	ErrEmailDomain        = errors.New("email must belong to the institutional domain")
	ErrEmailAlreadyExists = errors.New("email already registered")
	ErrUsernameInvalid    = errors.New("username must be between 1 and 50 characters")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong    = errors.New("password must be at most 72 bytes")
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ===== Profile Errors =====
var (
	ErrBioTooLong     = errors.New("bio exceeds maximum length")
	ErrUploadTooLarge = errors.New("upload exceeds maximum size")
	ErrUploadType     = errors.New("upload must be a jpeg, png, gif or webp image")
)

// ===== Role Errors =====
var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrRoleDowngrade = errors.New("roles can only be raised")
)

// ===== Feed Errors =====
var (
	ErrPostContentRequired = errors.New("post content is required")
	ErrPostContentTooLong  = errors.New("post content exceeds 500 characters")
	ErrPostNotFound        = errors.New("post not found")
)
