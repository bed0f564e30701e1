// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

// Package validate implements the length and charset rules for the
// identifiers that appear on the wire: nicknames, usernames, real names,
// host names, channel names and channel keys.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// RFC 2812 limits
const (
	DefaultNickLen    = 9
	DefaultHostLen    = 63
	DefaultChannelLen = 50
)

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
	special = "[]\\`_^{|}"

	nicknameFirst     = letters + special
	nicknameRemainder = letters + digits + special + "-"

	// ':' and '/' show up in IPv6 literals and cloaked hosts
	hostnameFirst     = letters + digits
	hostnameRemainder = letters + digits + "-.:/"

	usernameForbidden = "\x00\r\n @"
	realNameForbidden = "\x00\r\n"
	channelForbidden  = "\x00\a\r\n ,:"
	keyForbidden      = "\x00\x06\t\n\v\r ,"

	// ChannelPrefixes are the sigils a channel name may start with.
	ChannelPrefixes = "#&+!"
)

var (
	ErrIllegalLength    = errors.New("illegal length")
	ErrIllegalCharacter = errors.New("illegal character")
)

// Kind tells the two failure classes of a rule apart.
type Kind uint8

const (
	// Length means the input was too short or too long.
	Length Kind = iota + 1
	// Character means the input contained a character the rule forbids.
	Character
)

// Error describes the first violation a rule found.
type Error struct {
	Kind  Kind
	Rule  string
	Input string

	// set for Length
	Min    int
	Max    int // 0 means unbounded
	Actual int

	// set for Character
	Char     rune
	Position int
}

func (e *Error) Error() string {
	switch e.Kind {
	case Length:
		if e.Max == 0 {
			return fmt.Sprintf("%s [%s] has illegal length %d (need at least %d)", e.Rule, e.Input, e.Actual, e.Min)
		}
		return fmt.Sprintf("%s [%s] has illegal length %d (allowed %d..%d)", e.Rule, e.Input, e.Actual, e.Min, e.Max)
	default:
		return fmt.Sprintf("%s [%s] has illegal character %q at position %d", e.Rule, e.Input, e.Char, e.Position)
	}
}

func (e *Error) Unwrap() error {
	if e.Kind == Length {
		return ErrIllegalLength
	}
	return ErrIllegalCharacter
}

// Rules holds the configurable bounds. A nil *Rules, and any zero field,
// falls back to the RFC 2812 defaults.
type Rules struct {
	NickLen    int `yaml:"nicklen"`
	HostLen    int `yaml:"hostlen"`
	ChannelLen int `yaml:"channellen"`
}

// DefaultRules returns the RFC 2812 limits.
func DefaultRules() *Rules {
	return &Rules{
		NickLen:    DefaultNickLen,
		HostLen:    DefaultHostLen,
		ChannelLen: DefaultChannelLen,
	}
}

func (r *Rules) nickLen() int {
	if r == nil || r.NickLen < 1 {
		return DefaultNickLen
	}
	return r.NickLen
}

func (r *Rules) hostLen() int {
	if r == nil || r.HostLen < 1 {
		return DefaultHostLen
	}
	return r.HostLen
}

func (r *Rules) channelLen() int {
	if r == nil || r.ChannelLen < 2 {
		return DefaultChannelLen
	}
	return r.ChannelLen
}

func checkLength(rule, data string, min, max int) error {
	if len(data) < min || (max != 0 && len(data) > max) {
		return &Error{Kind: Length, Rule: rule, Input: data, Min: min, Max: max, Actual: len(data)}
	}
	return nil
}

// firstRest checks the first character against one charset and every
// following character against another.
func firstRest(rule, data, first, rest string) error {
	r, size := utf8.DecodeRuneInString(data)
	if !strings.ContainsRune(first, r) {
		return &Error{Kind: Character, Rule: rule, Input: data, Char: r, Position: 0}
	}
	for i, c := range data[size:] {
		if !strings.ContainsRune(rest, c) {
			return &Error{Kind: Character, Rule: rule, Input: data, Char: c, Position: size + i}
		}
	}
	return nil
}

func containsNot(rule, data string, offset int, forbidden string) error {
	if i := strings.IndexAny(data, forbidden); i != -1 {
		c, _ := utf8.DecodeRuneInString(data[i:])
		return &Error{Kind: Character, Rule: rule, Input: data, Char: c, Position: offset + i}
	}
	return nil
}

// Nickname validates a nickname.
func (r *Rules) Nickname(data string) error {
	if err := checkLength("nickname", data, 1, r.nickLen()); err != nil {
		return err
	}
	return firstRest("nickname", data, nicknameFirst, nicknameRemainder)
}

// Username validates the user (ident) part of a user mask.
func (r *Rules) Username(data string) error {
	if err := checkLength("username", data, 1, 0); err != nil {
		return err
	}
	return containsNot("username", data, 0, usernameForbidden)
}

// RealName validates the free-text real name sent with USER.
func (r *Rules) RealName(data string) error {
	return containsNot("realname", data, 0, realNameForbidden)
}

// Hostname validates a host or server name.
func (r *Rules) Hostname(data string) error {
	if err := checkLength("hostname", data, 1, r.hostLen()); err != nil {
		return err
	}
	return firstRest("hostname", data, hostnameFirst, hostnameRemainder)
}

// ChannelName validates a channel name, including its prefix sigil.
func (r *Rules) ChannelName(data string) error {
	if err := checkLength("channel", data, 2, r.channelLen()); err != nil {
		return err
	}
	if !strings.ContainsRune(ChannelPrefixes, rune(data[0])) {
		c, _ := utf8.DecodeRuneInString(data)
		return &Error{Kind: Character, Rule: "channel", Input: data, Char: c, Position: 0}
	}
	return containsNot("channel", data[1:], 1, channelForbidden)
}

// Key validates a channel key.
func (r *Rules) Key(data string) error {
	if err := checkLength("key", data, 1, 0); err != nil {
		return err
	}
	return containsNot("key", data, 0, keyForbidden)
}

// Target accepts anything that is either a channel name or a nickname.
// The nickname error is reported when both fail.
func (r *Rules) Target(data string) error {
	if r.ChannelName(data) == nil {
		return nil
	}
	return r.Nickname(data)
}
