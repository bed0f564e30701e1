// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"strings"
)

// Message is a command together with its origin.
type Message struct {
	Origin  Origin
	Command Command
}

// NewMessage wraps a locally originated command.
func NewMessage(cmd Command) Message {
	return Message{Command: cmd}
}

// Line renders the message with its line terminator. It fails when the
// command cannot be sent, when the result would break the line framing,
// and when it exceeds MaxLineLen.
func (m Message) Line() (string, error) {
	if m.Command == nil {
		return "", &Error{Kind: IllegalMessageFormat}
	}
	cmd, err := m.Command.Line()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if !m.Origin.IsConnection() {
		b.WriteByte(prefixMarker)
		b.WriteString(m.Origin.String())
		b.WriteString(separator)
	}
	b.WriteString(cmd)
	body := b.String()
	if strings.ContainsAny(body, "\x00\r\n") {
		return "", &Error{Kind: IllegalMessageFormat, Input: body}
	}
	line := body + endOfMessage
	if len(line) > MaxLineLen {
		return "", &Error{Kind: IllegalMessageFormat, Input: body}
	}
	return line, nil
}

// ParseMessage parses one line; a trailing CRLF is ignored.
func (p *Parser) ParseMessage(line string) (msg Message, err error) {
	line = strings.TrimSuffix(line, endOfMessage)
	if len(line)+len(endOfMessage) > MaxLineLen {
		return msg, &Error{Kind: IllegalMessageFormat, Input: line}
	}
	// a bare verb is not a message
	if !strings.Contains(line, separator) {
		return msg, &Error{Kind: IllegalMessageFormat, Input: line}
	}

	text := line
	if strings.HasPrefix(line, trailingMarker) {
		prefix, rest, found := strings.Cut(line[1:], separator)
		if !found {
			return msg, &Error{Kind: IllegalMessageFormat, Input: line}
		}
		msg.Origin, err = parseOrigin(p.rules(), prefix)
		if err != nil {
			return msg, err
		}
		text = rest
	}

	raw, err := ParseRawCommand(text)
	if err != nil {
		return msg, &Error{Kind: IllegalMessageFormat, Input: line}
	}
	msg.Command, err = p.ParseCommand(raw)
	return msg, err
}

// ParseMessage parses a line using the default limits.
func ParseMessage(line string) (Message, error) {
	return defaultParser.ParseMessage(line)
}
