package config

// Header names.
const (
	HCType         = "Content-Type"
	HCacheControl  = "Cache-Control"
	HConnection    = "Connection"
	HFrameOptions  = "X-Frame-Options"
	HContentTypeOp = "X-Content-Type-Options"
	HXSSProtection = "X-XSS-Protection"
)

// Content types.
const (
	CTypeJSON        = "application/json"
	CTypeText        = "text/plain; charset=utf-8"
	CTypeEventStream = "text/event-stream"
)

// Cache-Control values.
const (
	CacheNoStore = "no-store"
	CacheNoCache = "no-cache"
)

const CookieAuthToken = "auth_token"
