package config

const (
	// Database errors
	ErrInitializeDatabaseFmt = "Failed to initialize database: %v"

	// Auth errors
	ErrCreateProviderFmt      = "Failed to create provider: %v"
	ErrAuthHeaderRequired     = "Authorization header required"
	ErrInvalidSignatureFormat = "Invalid signature format"
	ErrInvalidSignature       = "Invalid signature"
	ErrUnauthorized           = "Unauthorized"
	ErrForbidden              = "Forbidden"
	ErrInternalServerError    = "Internal server error"

	// Draft errors
	ErrDraftNotFound   = "Draft not found"
	ErrPayloadTooLarge = "Payload too large"
	ErrMalformedBody   = "Malformed request body"

	// Challenge errors
	ErrRefreshChallengeFmt = "Failed to refresh challenge"
)
