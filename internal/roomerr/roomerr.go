// Package roomerr defines the typed error families this module raises.
// Error covers protocol-level rejections: handshake failures, malformed
// upgrade requests, and the other conditions a connection can fail on
// before or during the active phase. Validator rejection of a
// ClientEvent is deliberately not part of this family — it is a silent
// no-op, not an error. HTTPError (see http.go) is the separate family
// for the plain request/response HTTP endpoints.
package roomerr

import (
	"errors"
	"fmt"
)

type ErrorCode int

const (
	// ErrBadQuery marks an Upgrade request whose id or code query
	// parameter has the wrong length.
	ErrBadQuery ErrorCode = iota
	// ErrHandshakeTimeout marks a connection that never sent a valid
	// JoinRoom event within the join window.
	ErrHandshakeTimeout
	// ErrWrongOpeningFrame marks a first frame that isn't a join-phase
	// event.
	ErrWrongOpeningFrame
	// ErrIncompatibleProto marks a client whose protocol version the
	// server does not support.
	ErrIncompatibleProto
	// ErrRoomFull marks a join attempt against a room with no free
	// connection slot.
	ErrRoomFull
	// ErrNoSuchClient marks a reconnect attempt whose client id has no
	// existing player slot in the room.
	ErrNoSuchClient
	// ErrMalformedFrame marks a frame that failed to decode.
	ErrMalformedFrame
)

func (c ErrorCode) String() string {
	switch c {
	case ErrBadQuery:
		return "bad_query"
	case ErrHandshakeTimeout:
		return "handshake_timeout"
	case ErrWrongOpeningFrame:
		return "wrong_opening_frame"
	case ErrIncompatibleProto:
		return "incompatible_proto"
	case ErrRoomFull:
		return "room_full"
	case ErrNoSuchClient:
		return "no_such_client"
	case ErrMalformedFrame:
		return "malformed_frame"
	default:
		return "unknown"
	}
}

// Error is the typed error every protocol-level rejection is wrapped in.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("room error %v: %v", e.Code, e.Message)
}

var _ error = (*Error)(nil)

// New constructs an *Error for the given code and message.
func New(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// MatchesError reports whether err wraps an *Error with the given code.
func MatchesError(err error, code ErrorCode) bool {
	var roomErr *Error
	return errors.As(err, &roomErr) && roomErr.Code == code
}

// IsErrorRetriable reports whether a reconnect is likely to succeed after
// err. Handshake timeouts, wrong opening frames, malformed frames and bad
// query parameters are the caller's fault and won't resolve by retrying
// unmodified; everything else might.
func IsErrorRetriable(err error) bool {
	var roomErr *Error
	if errors.As(err, &roomErr) {
		switch roomErr.Code {
		case ErrHandshakeTimeout, ErrWrongOpeningFrame, ErrMalformedFrame, ErrBadQuery:
			return false
		default:
			return true
		}
	}
	return true
}
