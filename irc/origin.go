// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"strings"

	"github.com/teslaNova/np1th-irc/irc/validate"
)

// OriginKind says who sent a message.
type OriginKind uint8

const (
	// ConnectionOrigin is a locally originated message; it has no prefix
	// on the wire.
	ConnectionOrigin OriginKind = iota
	UserOrigin
	ServerOrigin
)

// Origin is the optional prefix of a message.
type Origin struct {
	Kind OriginKind

	// UserOrigin; User and Host may be empty
	Nick string
	User string
	Host string

	// ServerOrigin
	Name string
}

// NewUserOrigin returns the origin nick!user@host.
func NewUserOrigin(nick, user, host string) Origin {
	return Origin{Kind: UserOrigin, Nick: nick, User: user, Host: host}
}

// NewServerOrigin returns the origin of a server.
func NewServerOrigin(name string) Origin {
	return Origin{Kind: ServerOrigin, Name: name}
}

// IsConnection reports whether the origin is the local connection.
func (o Origin) IsConnection() bool {
	return o.Kind == ConnectionOrigin
}

// String returns the prefix without its leading marker, or "" for the
// local connection.
func (o Origin) String() string {
	switch o.Kind {
	case UserOrigin:
		var b strings.Builder
		b.WriteString(o.Nick)
		if o.User != "" {
			b.WriteByte(identSeparator)
			b.WriteString(o.User)
		}
		if o.Host != "" {
			b.WriteByte(hostSeparator)
			b.WriteString(o.Host)
		}
		return b.String()
	case ServerOrigin:
		return o.Name
	default:
		return ""
	}
}

// ParseOrigin parses a prefix, with or without its leading marker.
func (p *Parser) ParseOrigin(data string) (Origin, error) {
	return parseOrigin(p.rules(), strings.TrimPrefix(data, trailingMarker))
}

// ParseOrigin parses a prefix using the default limits.
func ParseOrigin(data string) (Origin, error) {
	return defaultParser.ParseOrigin(data)
}

// A prefix with '!' or '@' is a user mask. A bare token is a server name
// when it is a valid host name, otherwise a nickname.
func parseOrigin(rules *validate.Rules, data string) (Origin, error) {
	if !strings.ContainsAny(data, "!@") && rules.Hostname(data) == nil {
		return NewServerOrigin(data), nil
	}
	origin, userErr := parseUserOrigin(rules, data)
	if userErr == nil {
		return origin, nil
	}
	cause := userErr
	if !strings.ContainsAny(data, "!@") {
		cause = rules.Hostname(data)
	}
	return Origin{}, &Error{Kind: IllegalOriginFormat, Input: data, Err: cause}
}

// The nick ends at the first '!' or '@'. The user runs from the first '!'
// to the last '@', and the host is everything after the last '@'.
func parseUserOrigin(rules *validate.Rules, data string) (Origin, error) {
	nickEnd := strings.IndexAny(data, "!@")
	if nickEnd == -1 {
		nickEnd = len(data)
	}
	nick, rest := data[:nickEnd], data[nickEnd:]
	if err := rules.Nickname(nick); err != nil {
		return Origin{}, err
	}

	var user, host string
	hasUser, hasHost := false, false
	if strings.HasPrefix(rest, "!") {
		rest = rest[1:]
		hasUser = true
		if at := strings.LastIndexByte(rest, hostSeparator); at != -1 {
			user, host = rest[:at], rest[at+1:]
			hasHost = true
		} else {
			user = rest
		}
	} else if strings.HasPrefix(rest, "@") {
		host = rest[1:]
		hasHost = true
	}

	if hasUser {
		if err := rules.Username(user); err != nil {
			return Origin{}, err
		}
	}
	if hasHost {
		if err := rules.Hostname(host); err != nil {
			return Origin{}, err
		}
	}
	return NewUserOrigin(nick, user, host), nil
}
