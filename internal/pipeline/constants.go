package pipeline

import "time"

// Defaults used when a Config field is left zero.
const (
	// DefaultModelName is the default Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultParserType identifies this extractor in the audit trail.
	DefaultParserType = "GEMINI_CHUNKED"

	DefaultPagesPerChunk    = 2
	DefaultMaxRetries       = 2
	DefaultRetryDelay       = 2 * time.Second
	DefaultRateLimitBackoff = 60 * time.Second
)
