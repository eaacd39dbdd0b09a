package server

import (
	"errors"
	"fmt"
)

// Kind classifies a tool call failure. The dispatcher reports every kind the same way.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindUnknownTool Kind = "unknown_tool"
	KindNotFound    Kind = "not_found"
	KindRemote      Kind = "remote"
)

// Error is a tool call failure carrying its kind and an optional cause.
type Error struct {
	Kind  Kind
	Msg   string
	Cause error
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Cause }

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func unknownToolError(name string) *Error {
	return &Error{Kind: KindUnknownTool, Msg: "Unknown tool: " + name}
}

func notFoundError(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// remoteError wraps a failed remote call with the operation that issued it.
func remoteError(op string, err error) *Error {
	return &Error{Kind: KindRemote, Msg: op + ": " + err.Error(), Cause: err}
}

// KindOf returns the kind of err, or "" when err is not a tool call failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
