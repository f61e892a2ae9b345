package pipeline

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/genai"
)

// ErrRateLimited marks a quota or rate-limit rejection from the extraction service.
var ErrRateLimited = errors.New("extraction rate limited")

// rateLimitText matches rate-limit wording in errors that carry no status code.
// The status code must stand alone so byte counts such as 4290 do not match.
var rateLimitText = regexp.MustCompile(`\b429\b|rate[- ]?limit|quota|resource[_ ]exhausted|too many requests`)

// IsRateLimited reports whether err is a rate-limit rejection. Service errors
// are judged by their status; errors from other packages by their message.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || strings.EqualFold(apiErr.Status, "RESOURCE_EXHAUSTED")
	}
	return rateLimitText.MatchString(strings.ToLower(err.Error()))
}

// skipError ends a chunk after its retry budget is spent.
type skipError struct {
	attempts int
	err      error
}

func (e *skipError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.attempts, e.err)
}

func (e *skipError) Unwrap() error { return e.err }

// errChunkSkipped stops the remaining steps of a chunk.
var errChunkSkipped = errors.New("chunk skipped")
