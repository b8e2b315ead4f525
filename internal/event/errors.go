// Camwatch - Camera Event Monitoring and Stream Session Management
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/camwatch

package event

import "errors"

// Sentinel errors for callers that branch on failure cause.
var (
	// ErrNilEvent indicates a nil event was passed to the serializer.
	ErrNilEvent = errors.New("event is nil")

	// ErrEmptyPayload indicates an empty wire payload.
	ErrEmptyPayload = errors.New("payload is empty")
)

// ValidationError describes a field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed: " + e.Field + ": " + e.Message
}
