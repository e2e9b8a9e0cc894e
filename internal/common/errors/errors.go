// Package errors provides standardized error handling for the notification engine.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDeliveryFailed     ErrorCode = "DELIVERY_FAILED"
	ErrCodeTimerArmFailed     ErrorCode = "TIMER_ARM_FAILED"
	ErrCodeUnknownActionToken ErrorCode = "UNKNOWN_ACTION_TOKEN"

	ErrCodeEventSourceFetchFailed ErrorCode = "EVENT_SOURCE_FETCH_FAILED"
	ErrCodeEventSourceParseFailed ErrorCode = "EVENT_SOURCE_PARSE_FAILED"

	ErrCodeRegistryInvalid  ErrorCode = "REGISTRY_INVALID"
	ErrCodeRegistryNotFound ErrorCode = "REGISTRY_NOT_FOUND"

	ErrCodeHistoryWriteFailed ErrorCode = "HISTORY_WRITE_FAILED"
	ErrCodeHistoryReadFailed  ErrorCode = "HISTORY_READ_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewDeliveryFailedError wraps a sink failure. Delivery is best-effort, so
// these are logged and swallowed by the lifecycle manager.
func NewDeliveryFailedError(sink string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeliveryFailed,
		Message:   "Delivery sink failed",
		Details:   fmt.Sprintf("sink: %s, error: %s", sink, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTimerArmFailedError reports a failure to arm a notification timer.
// The manager falls back to immediate dispatch instead.
func NewTimerArmFailedError(notificationID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimerArmFailed,
		Message:   "Failed to arm notification timer",
		Details:   fmt.Sprintf("notificationId: %s, error: %s", notificationID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownActionTokenError reports an unrecognized action token. These are
// logged and ignored, never fatal.
func NewUnknownActionTokenError(token string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownActionToken,
		Message:   "Unrecognized action token",
		Details:   fmt.Sprintf("token: %s", token),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventSourceFetchFailedError creates a retryable event source error.
func NewEventSourceFetchFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventSourceFetchFailed,
		Message:   "Failed to fetch events from source",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewEventSourceParseFailedError creates a non-retryable parse error.
func NewEventSourceParseFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEventSourceParseFailed,
		Message:   "Failed to parse calendar payload",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRegistryInvalidError creates a non-retryable registry validation error.
func NewRegistryInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryInvalid,
		Message:   "Source registry failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryWriteFailedError wraps a history store write failure. History is
// a side channel and never gates delivery.
func NewHistoryWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryWriteFailed,
		Message:   "Failed to record delivered notification",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHistoryReadFailedError wraps a history store read failure.
func NewHistoryReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHistoryReadFailed,
		Message:   "Failed to read delivered-notification history",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
