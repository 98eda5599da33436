package protocol

import (
	"errors"
	"fmt"
)

// ErrorCode is a stable identifier for protocol failures, used in logs,
// metrics and the diagnostics journal.
type ErrorCode uint16

const (
	ErrCodeUnknown ErrorCode = 0

	// Framing failures are fatal to the connection: the stream cannot be
	// resynchronized once a boundary is in doubt.
	ErrCodeFraming     ErrorCode = 1001
	ErrCodeUnknownSize ErrorCode = 1002
	ErrCodeTooLarge    ErrorCode = 1003
)

var errorCodeStrings = map[ErrorCode]string{
	ErrCodeUnknown:     "unknown",
	ErrCodeFraming:     "framing",
	ErrCodeUnknownSize: "unknown_size",
	ErrCodeTooLarge:    "too_large",
}

// String returns the short name of the code.
func (c ErrorCode) String() string {
	if s, ok := errorCodeStrings[c]; ok {
		return s
	}
	return "unknown"
}

// ProtocolError describes a failure detected while framing the inbound stream.
type ProtocolError struct {
	Code   ErrorCode
	Opcode uint16
	Length int
	Msg    string
}

func (e *ProtocolError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("protocol error (%s) opcode 0x%04x length %d", e.Code, e.Opcode, e.Length)
	}
	return fmt.Sprintf("protocol error (%s) opcode 0x%04x length %d: %s", e.Code, e.Opcode, e.Length, e.Msg)
}

// NewError creates a ProtocolError.
func NewError(code ErrorCode, opcode uint16, length int, msg string) *ProtocolError {
	return &ProtocolError{
		Code:   code,
		Opcode: opcode,
		Length: length,
		Msg:    msg,
	}
}

// IsProtocolError reports whether err (or anything it wraps) is a ProtocolError.
func IsProtocolError(err error) (*ProtocolError, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
