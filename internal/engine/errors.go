package engine

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the splice failure class.
type ErrorCode string

const (
	// PROBE_FAILED means the original's duration could not be determined.
	PROBE_FAILED ErrorCode = "PROBE_FAILED"

	// EXTRACT_FAILED means a sub-range could not be extracted or re-encoded.
	EXTRACT_FAILED ErrorCode = "EXTRACT_FAILED"

	// CONCAT_FAILED means the final demuxer-level join failed.
	CONCAT_FAILED ErrorCode = "CONCAT_FAILED"

	// INVALID_RANGE means the requested cut window is malformed. It is
	// rejected before any media processing begins.
	INVALID_RANGE ErrorCode = "INVALID_RANGE"
)

// Error is the single error type propagated out of a splice. Any tool
// failure aborts the whole operation; partial output is never returned.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewProbeError reports a failed duration probe on file.
func NewProbeError(file string, cause error) *Error {
	return &Error{Code: PROBE_FAILED, Message: "cannot determine duration of " + file, Cause: cause}
}

// NewExtractError reports a failed extraction or re-encode of segment
// ("before", "after" or "replacement").
func NewExtractError(segment string, cause error) *Error {
	return &Error{Code: EXTRACT_FAILED, Message: "cannot extract " + segment + " segment", Cause: cause}
}

// NewConcatError reports a failed concat-demuxer join.
func NewConcatError(cause error) *Error {
	return &Error{Code: CONCAT_FAILED, Message: "cannot concatenate segments", Cause: cause}
}

// NewInvalidRangeError reports a cut window that fails the
// 0 <= start <= end <= duration invariant.
func NewInvalidRangeError(start, end, duration float64) *Error {
	return &Error{
		Code:    INVALID_RANGE,
		Message: fmt.Sprintf("cut window [%f, %f] invalid for duration %f", start, end, duration),
	}
}

// CodeOf extracts the ErrorCode from err, or empty when err is not an
// engine error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
