package api

// API limits and constants.
const (
	// DefaultMaxUploadBytes bounds a multipart book form when Options leaves it unset (100 MB).
	DefaultMaxUploadBytes = 100 << 20

	// multipartMemory is how much of a multipart form is held in memory before spilling to disk.
	multipartMemory = 8 << 20
)

// Cache-Control header values.
const (
	CacheNoStore        = "no-store"
	CachePrivateNoCache = "private, no-cache"
)
