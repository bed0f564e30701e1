// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"errors"
	"fmt"

	"github.com/ergochat/irc-go/ircreader"
)

// ErrorKind is the closed set of failures the engine reports.
type ErrorKind uint8

const (
	IllegalMessageFormat ErrorKind = iota + 1
	IllegalOriginFormat
	IllegalMode
	CommandNotImplemented
	IllegalCommand
	CommandParameter
	Connection
	MissingParameter
	InvalidPassword // reserved, nothing produces it yet
	ServerError
	HandshakeIncomplete
	NotSerializable
)

var errorKindNames = map[ErrorKind]string{
	IllegalMessageFormat:  "illegal message format",
	IllegalOriginFormat:   "illegal origin format",
	IllegalMode:           "illegal mode",
	CommandNotImplemented: "command not implemented",
	IllegalCommand:        "illegal command",
	CommandParameter:      "illegal command parameters",
	Connection:            "connection error",
	MissingParameter:      "missing parameter",
	InvalidPassword:       "invalid password",
	ServerError:           "server error",
	HandshakeIncomplete:   "handshake incomplete",
	NotSerializable:       "command cannot be sent",
}

func (kind ErrorKind) String() string {
	if name, ok := errorKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("error kind %d", kind)
}

// Error is the single error type of the engine. Which payload fields are
// set depends on Kind.
type Error struct {
	Kind ErrorKind

	// Command is the verb, for the command kinds
	Command string
	// Params is the raw parameter text, for CommandParameter
	Params string
	// Input is the offending line, prefix or address
	Input string
	// Text is the server's ERROR text, the name of a missing parameter, or
	// why a handshake did not complete
	Text string

	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	switch e.Kind {
	case CommandNotImplemented, IllegalCommand:
		msg = fmt.Sprintf("%s [%s]", msg, e.Command)
	case CommandParameter:
		msg = fmt.Sprintf("%s for [%s] with [%s]", msg, e.Command, e.Params)
	case ServerError, HandshakeIncomplete:
		if e.Text != "" {
			msg = fmt.Sprintf("%s: %s", msg, e.Text)
		}
	case MissingParameter:
		msg = fmt.Sprintf("%s [%s]", msg, e.Text)
	case NotSerializable:
		msg = fmt.Sprintf("%s [%s]", msg, e.Command)
	default:
		if e.Input != "" {
			msg = fmt.Sprintf("%s [%s]", msg, e.Input)
		}
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the Err* sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrIllegalMessageFormat  = &Error{Kind: IllegalMessageFormat}
	ErrIllegalOriginFormat   = &Error{Kind: IllegalOriginFormat}
	ErrIllegalMode           = &Error{Kind: IllegalMode}
	ErrCommandNotImplemented = &Error{Kind: CommandNotImplemented}
	ErrIllegalCommand        = &Error{Kind: IllegalCommand}
	ErrCommandParameter      = &Error{Kind: CommandParameter}
	ErrConnection            = &Error{Kind: Connection}
	ErrMissingParameter      = &Error{Kind: MissingParameter}
	ErrInvalidPassword       = &Error{Kind: InvalidPassword}
	ErrServerError           = &Error{Kind: ServerError}
	ErrHandshakeIncomplete   = &Error{Kind: HandshakeIncomplete}
	ErrNotSerializable       = &Error{Kind: NotSerializable}
)

// Transport errors
var (
	ErrClosed = errors.New("connection is closed")
	// ErrReadQ means the peer sent too many bytes without a line terminator
	ErrReadQ = ircreader.ErrReadQ
)

// Grammar errors, wrapped by CommandParameter
var (
	errParamCount       = errors.New("wrong number of parameters")
	errTrailingExpected = errors.New("trailing parameter expected")
	errTooManyKeys      = errors.New("more keys than channels")
	errMotdLineFormat   = errors.New("MOTD line does not start with \":- \"")
)

// Config Errors
var (
	ErrHostMissing                  = errors.New("server.host is required")
	ErrHostInvalid                  = errors.New("server.host is not a valid host name")
	ErrPortsMissing                 = errors.New("server.ports must contain at least one port")
	ErrPortInvalid                  = errors.New("ports must be in the range 1-65535, optionally prefixed with +")
	ErrNickMissing                  = errors.New("identity.nick is required")
	ErrUnknownPortPolicy            = errors.New("unknown port policy")
	ErrReadQTooSmall                = errors.New("limits.readq must hold at least one full line")
	ErrLoggerExcludeEmpty           = errors.New("Encountered logging type '-' with no type to exclude")
	ErrLoggerFilenameMissing        = errors.New("Logging configuration specifies 'file' method but 'filename' is empty")
	ErrLoggerHasNoTypes             = errors.New("Logger has no types to log")
	ErrEnvironmentOverrideMalformed = errors.New("environment override does not name a config key")
)

// missingParameter reports an incomplete configuration.
func missingParameter(name string, cause error) *Error {
	return &Error{Kind: MissingParameter, Text: name, Err: cause}
}

// connectionError wraps a transport failure.
func connectionError(address string, cause error) *Error {
	return &Error{Kind: Connection, Input: address, Err: cause}
}
