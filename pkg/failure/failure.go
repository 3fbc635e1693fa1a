// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package failure defines the error taxonomy shared by the commit parser,
// the armor codec, the transcript parser, the quorum validator and the
// external process adapters.
package failure

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a failure.
type ErrorType int

const (
	// Unknown indicates an unclassified error.
	Unknown ErrorType = iota

	// Parse indicates malformed input: commit headers, armor blocks,
	// verification transcripts or timestamps.
	Parse

	// Consistency indicates that independent keyring checks disagree on the
	// shape of their results.
	Consistency

	// ExternalProcess indicates that git, gpg or gpgv failed.
	ExternalProcess

	// Configuration indicates invalid configuration or flags.
	Configuration

	// NotFound indicates that a requested object does not exist.
	NotFound

	// SignatureInvalid indicates that the review policy rejected a commit
	// because at least one signature is invalid.
	SignatureInvalid

	// Unsigned indicates that the review policy rejected a commit because no
	// keyring vouched for any of its signatures.
	Unsigned
)

// String returns a human-readable name for the error type.
func (t ErrorType) String() string {
	switch t {
	case Parse:
		return "ParseError"
	case Consistency:
		return "ConsistencyError"
	case ExternalProcess:
		return "ExternalProcessError"
	case Configuration:
		return "ConfigurationError"
	case NotFound:
		return "NotFound"
	case SignatureInvalid:
		return "InvalidSignature"
	case Unsigned:
		return "Unsigned"
	default:
		return "UnknownError"
	}
}

// Error is a structured error carrying its category, an optional location
// (byte offset, offending line, command name) and the underlying cause.
//
//	var fe *failure.Error
//	if errors.As(err, &fe) && fe.Type == failure.Parse {
//	    log.Printf("bad input at %s: %s", fe.Location, fe.Message)
//	}
type Error struct {
	// Type categorizes the error for programmatic handling.
	Type ErrorType

	// Location identifies where the problem was found (optional).
	Location string

	// Message is a human-readable description of what went wrong.
	Message string

	// Cause is the underlying error (optional).
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Location != "" {
		msg += fmt.Sprintf(" (at %s)", e.Location)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chain unwrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an error of the given type.
func New(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// Newf creates an error of the given type with a formatted message.
func Newf(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// At creates an error of the given type bound to a location.
func At(t ErrorType, location, message string, cause error) *Error {
	return &Error{Type: t, Location: location, Message: message, Cause: cause}
}

// Offset formats a byte offset as a location.
func Offset(off int) string {
	return fmt.Sprintf("byte offset %d", off)
}

// IsType reports whether err, or any error it wraps, is an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Type == t
	}
	return false
}
