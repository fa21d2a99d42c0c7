package llm

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies an LLM request failure. The kind decides whether the
// request is retried and how long to back off before the next attempt.
type Kind string

const (
	// KindEmpty marks a request that succeeded but returned no content.
	KindEmpty Kind = "empty_response"
	// KindRateLimited marks a 429 / rate limit rejection.
	KindRateLimited Kind = "rate_limited"
	// KindTimeout marks a request that timed out.
	KindTimeout Kind = "timeout"
	// KindAuth marks an invalid or rejected API key. Never retried.
	KindAuth Kind = "auth"
	// KindQuota marks an exhausted account quota. Never retried.
	KindQuota Kind = "quota"
	// KindContentRejected marks a provider-side content safety rejection.
	KindContentRejected Kind = "content_rejected"
	// KindUnknown covers everything else.
	KindUnknown Kind = "unknown"
)

// Retryable reports whether a failure of this kind is worth another attempt.
func (k Kind) Retryable() bool {
	switch k {
	case KindAuth, KindQuota:
		return false
	default:
		return true
	}
}

// Backoff returns the delay before the next attempt for this kind.
func (k Kind) Backoff() time.Duration {
	switch k {
	case KindEmpty:
		return 2 * time.Second
	case KindRateLimited:
		return 10 * time.Second
	case KindTimeout:
		return 5 * time.Second
	case KindContentRejected:
		return 8 * time.Second
	default:
		return 3 * time.Second
	}
}

// APIError is the terminal error returned by the retrying client. It
// carries the classified kind of the last failure and how many attempts
// were made, so callers branch on Kind instead of matching error text.
type APIError struct {
	Kind     Kind
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm: %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("llm: %s after %d attempt(s)", e.Kind, e.Attempts)
}

func (e *APIError) Unwrap() error { return e.Err }

// FailureKind extracts the classified kind from an error returned by a
// Client. Errors that did not come from the retrying client are
// classified on the spot.
func FailureKind(err error) Kind {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return Classify(err)
}

// Classify maps a raw request error onto a failure Kind. Detection is
// necessarily textual: OpenAI-compatible gateways differ in status
// codes but agree on these phrases. Categories are checked in a fixed
// order, so a message matching several of them always resolves the
// same way.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "rate limit"):
		return KindRateLimited
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(msg, "invalid api key"),
		strings.Contains(msg, "invalid_api_key"),
		strings.Contains(msg, "401"),
		strings.Contains(msg, "unauthorized"):
		return KindAuth
	case strings.Contains(msg, "quota"),
		strings.Contains(msg, "insufficient_quota"):
		return KindQuota
	case strings.Contains(msg, "data_inspection_failed"),
		strings.Contains(msg, "inappropriate content"):
		return KindContentRejected
	default:
		return KindUnknown
	}
}
