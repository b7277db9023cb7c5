package errors

import (
	"errors"
	"fmt"
	"strings"
)

// AppError is an application-specific error type
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// wraps an error with a code and message
func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Error code constants
const (
	CodeInternal      = "INTERNAL_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidArg    = "INVALID_ARGUMENT"
	CodeExternal      = "EXTERNAL_ERROR"
	CodeRateLimited   = "RATE_LIMITED"   // Transient throttling by an external service
	CodeUnavailable   = "UNAVAILABLE"    // Transcripts disabled or video gone for good
	CodeAlreadyLogged = "ALREADY_LOGGED" // URL present in the dedup log
	CodeUpcoming      = "UPCOMING"       // Premiere that has not gone live yet
)

// Code returns the AppError code of err, or CodeInternal when err carries none.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given AppError code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// rateLimitIndicators are message fragments the external services use when
// throttling. Detection is by message inspection since neither yt-dlp nor the
// transcript endpoints expose structured throttling errors.
var rateLimitIndicators = []string{
	"429",
	"too many requests",
	"rate limit",
	"rate-limit",
	"ratelimit",
}

// IsRateLimited reports whether err looks like a throttling condition,
// either by code or by message content.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if HasCode(err, CodeRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, ind := range rateLimitIndicators {
		if strings.Contains(msg, ind) {
			return true
		}
	}
	return false
}
