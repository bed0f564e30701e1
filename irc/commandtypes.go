// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"strconv"
	"strings"

	"github.com/teslaNova/np1th-irc/irc/modes"
)

// Command is a typed protocol command. Line renders the wire form without
// the line terminator; replies that only a server sends fail with a
// NotSerializable error.
type Command interface {
	Verb() string
	Line() (string, error)
}

// lastParam renders text as the final parameter, adding the trailing
// marker where the text would not survive a re-parse without it.
func lastParam(text string) string {
	if text == "" || strings.Contains(text, separator) || isTrailing(text) {
		return trailingMarker + text
	}
	return text
}

func joinList(items []string) string {
	return strings.Join(items, listDelimiter)
}

func notSerializable(cmd Command) (string, error) {
	return "", &Error{Kind: NotSerializable, Command: cmd.Verb()}
}

// withServer renders query commands whose only parameter is an optional
// server name.
func withServer(verb, server string) string {
	if server == "" {
		return verb
	}
	return verb + separator + server
}

// Nick sets or changes the nickname.
type Nick struct {
	Name string
}

func (Nick) Verb() string { return "NICK" }

func (c Nick) Line() (string, error) {
	return "NICK :" + c.Name, nil
}

// User registers the username, initial modes and real name.
type User struct {
	Name     string
	Modes    modes.ModeChanges
	RealName string
}

func (User) Verb() string { return "USER" }

func (c User) Line() (string, error) {
	mode := "*"
	if mask := modes.ToUserBitmask(c.Modes); mask != 0 {
		mode = strconv.Itoa(mask)
	}
	return "USER " + c.Name + " " + mode + " * :" + c.RealName, nil
}

// Join joins channels, with keys matched to channels by position.
type Join struct {
	Channels []string
	Keys     []string
}

func (Join) Verb() string { return "JOIN" }

func (c Join) Line() (string, error) {
	line := "JOIN " + joinList(c.Channels)
	if len(c.Keys) != 0 {
		line += separator + joinList(c.Keys)
	}
	return line, nil
}

// JoinZero is "JOIN 0", which leaves every channel.
type JoinZero struct{}

func (JoinZero) Verb() string { return "JOIN" }

func (JoinZero) Line() (string, error) {
	return "JOIN 0", nil
}

// Part leaves channels.
type Part struct {
	Channels []string
	Reason   string
}

func (Part) Verb() string { return "PART" }

func (c Part) Line() (string, error) {
	line := "PART " + joinList(c.Channels)
	if c.Reason != "" {
		line += " :" + c.Reason
	}
	return line, nil
}

// PrivMsg sends text to channels or nicknames.
type PrivMsg struct {
	Targets []string
	Text    string
}

func (PrivMsg) Verb() string { return "PRIVMSG" }

func (c PrivMsg) Line() (string, error) {
	return "PRIVMSG " + joinList(c.Targets) + " :" + c.Text, nil
}

// Notice is like PrivMsg but must never trigger an automatic reply.
type Notice struct {
	Target string
	Text   string
}

func (Notice) Verb() string { return "NOTICE" }

func (c Notice) Line() (string, error) {
	return "NOTICE " + c.Target + " :" + c.Text, nil
}

// Ping tests the connection; Server2 is optional.
type Ping struct {
	Server1 string
	Server2 string
}

func (Ping) Verb() string { return "PING" }

func (c Ping) Line() (string, error) {
	return pingLine("PING", c.Server1, c.Server2), nil
}

// Pong answers a Ping.
type Pong struct {
	Server1 string
	Server2 string
}

func (Pong) Verb() string { return "PONG" }

func (c Pong) Line() (string, error) {
	return pingLine("PONG", c.Server1, c.Server2), nil
}

func pingLine(verb, server1, server2 string) string {
	if server2 == "" {
		return verb + separator + lastParam(server1)
	}
	return verb + separator + server1 + separator + lastParam(server2)
}

// ErrorMsg is the ERROR command a server sends before closing the link.
type ErrorMsg struct {
	Text string
}

func (ErrorMsg) Verb() string { return "ERROR" }

func (c ErrorMsg) Line() (string, error) {
	return "ERROR :" + c.Text, nil
}

// MotdStart is RPL_MOTDSTART.
type MotdStart struct{}

func (MotdStart) Verb() string { return RPL_MOTDSTART }

func (c MotdStart) Line() (string, error) { return notSerializable(c) }

// MotdLine is one RPL_MOTD line, without the "- " lead-in.
type MotdLine struct {
	Text string
}

func (MotdLine) Verb() string { return RPL_MOTD }

func (c MotdLine) Line() (string, error) { return notSerializable(c) }

// MotdEnd is RPL_ENDOFMOTD.
type MotdEnd struct{}

func (MotdEnd) Verb() string { return RPL_ENDOFMOTD }

func (c MotdEnd) Line() (string, error) { return notSerializable(c) }

// NoMotd is ERR_NOMOTD, sent instead of the MOTD when the server has none.
type NoMotd struct{}

func (NoMotd) Verb() string { return ERR_NOMOTD }

func (c NoMotd) Line() (string, error) { return notSerializable(c) }

// The commands below can be sent but are not parsed when received.

// Pass sets the connection password; it must precede NICK and USER.
type Pass struct {
	Password string
}

func (Pass) Verb() string { return "PASS" }

func (c Pass) Line() (string, error) {
	return "PASS " + lastParam(c.Password), nil
}

// Quit ends the session.
type Quit struct {
	Reason string
}

func (Quit) Verb() string { return "QUIT" }

func (c Quit) Line() (string, error) {
	if c.Reason == "" {
		return "QUIT", nil
	}
	return "QUIT :" + c.Reason, nil
}

type Oper struct {
	Name     string
	Password string
}

func (Oper) Verb() string { return "OPER" }

func (c Oper) Line() (string, error) {
	return "OPER " + c.Name + separator + lastParam(c.Password), nil
}

// UserMode changes the modes of our own nickname.
type UserMode struct {
	Nick    string
	Changes modes.ModeChanges
}

func (UserMode) Verb() string { return "MODE" }

func (c UserMode) Line() (string, error) {
	if len(c.Changes) == 0 {
		return "MODE " + c.Nick, nil
	}
	return "MODE " + c.Nick + separator + c.Changes.String(), nil
}

// Topic queries the topic of a channel, or sets it when Text is not empty.
type Topic struct {
	Channel string
	Text    string
}

func (Topic) Verb() string { return "TOPIC" }

func (c Topic) Line() (string, error) {
	if c.Text == "" {
		return "TOPIC " + c.Channel, nil
	}
	return "TOPIC " + c.Channel + " :" + c.Text, nil
}

type Names struct {
	Channels []string
	Server   string
}

func (Names) Verb() string { return "NAMES" }

func (c Names) Line() (string, error) {
	return channelQuery("NAMES", c.Channels, c.Server), nil
}

type List struct {
	Channels []string
	Server   string
}

func (List) Verb() string { return "LIST" }

func (c List) Line() (string, error) {
	return channelQuery("LIST", c.Channels, c.Server), nil
}

// a server can only be named after a channel list
func channelQuery(verb string, channels []string, server string) string {
	if len(channels) == 0 {
		return verb
	}
	return withServer(verb+separator+joinList(channels), server)
}

type Invite struct {
	Nick    string
	Channel string
}

func (Invite) Verb() string { return "INVITE" }

func (c Invite) Line() (string, error) {
	return "INVITE " + c.Nick + separator + c.Channel, nil
}

// Kick removes users from channels; either list may have one entry, or
// both the same number.
type Kick struct {
	Channels []string
	Users    []string
	Reason   string
}

func (Kick) Verb() string { return "KICK" }

func (c Kick) Line() (string, error) {
	line := "KICK " + joinList(c.Channels) + separator + joinList(c.Users)
	if c.Reason != "" {
		line += " :" + c.Reason
	}
	return line, nil
}

type Motd struct {
	Server string
}

func (Motd) Verb() string { return "MOTD" }

func (c Motd) Line() (string, error) { return withServer("MOTD", c.Server), nil }

type Version struct {
	Server string
}

func (Version) Verb() string { return "VERSION" }

func (c Version) Line() (string, error) { return withServer("VERSION", c.Server), nil }

type Time struct {
	Server string
}

func (Time) Verb() string { return "TIME" }

func (c Time) Line() (string, error) { return withServer("TIME", c.Server), nil }

type Admin struct {
	Server string
}

func (Admin) Verb() string { return "ADMIN" }

func (c Admin) Line() (string, error) { return withServer("ADMIN", c.Server), nil }

type Info struct {
	Server string
}

func (Info) Verb() string { return "INFO" }

func (c Info) Line() (string, error) { return withServer("INFO", c.Server), nil }

// Who lists users matching Mask; OperatorsOnly adds the "o" flag.
type Who struct {
	Mask          string
	OperatorsOnly bool
}

func (Who) Verb() string { return "WHO" }

func (c Who) Line() (string, error) {
	line := withServer("WHO", c.Mask)
	if c.OperatorsOnly && c.Mask != "" {
		line += " o"
	}
	return line, nil
}

// WhoIs queries users; Server optionally names the server to ask.
type WhoIs struct {
	Server string
	Masks  []string
}

func (WhoIs) Verb() string { return "WHOIS" }

func (c WhoIs) Line() (string, error) {
	if c.Server == "" {
		return "WHOIS " + joinList(c.Masks), nil
	}
	return "WHOIS " + c.Server + separator + joinList(c.Masks), nil
}

type Kill struct {
	Nick   string
	Reason string
}

func (Kill) Verb() string { return "KILL" }

func (c Kill) Line() (string, error) {
	return "KILL " + c.Nick + " :" + c.Reason, nil
}
