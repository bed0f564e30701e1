// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"slices"
	"strconv"
	"strings"

	"github.com/teslaNova/np1th-irc/irc/modes"
	"github.com/teslaNova/np1th-irc/irc/validate"
)

// commandRule is the grammar of one verb.
type commandRule struct {
	// nil for verbs we recognize but do not parse yet
	parse func(rules *validate.Rules, raw RawCommand) (Command, error)
}

// grammar holds every verb we recognize.
var grammar map[string]commandRule

func init() {
	grammar = map[string]commandRule{
		"NICK": {
			parse: parseNick,
		},
		"USER": {
			parse: parseUser,
		},
		"JOIN": {
			parse: parseJoin,
		},
		"PART": {
			parse: parsePart,
		},
		"PRIVMSG": {
			parse: parsePrivMsg,
		},
		"NOTICE": {
			parse: parseNotice,
		},
		"PING": {
			parse: parsePing,
		},
		"PONG": {
			parse: parsePong,
		},
		"ERROR": {
			parse: parseError,
		},
		RPL_MOTDSTART: {
			parse: parseMotdStart,
		},
		RPL_MOTD: {
			parse: parseMotdLine,
		},
		RPL_ENDOFMOTD: {
			parse: parseMotdEnd,
		},
		ERR_NOMOTD: {
			parse: parseNoMotd,
		},

		"PASS":     {},
		"OPER":     {},
		"MODE":     {},
		"SERVICE":  {},
		"QUIT":     {},
		"SQUIT":    {},
		"TOPIC":    {},
		"NAMES":    {},
		"LIST":     {},
		"INVITE":   {},
		"KICK":     {},
		"MOTD":     {},
		"LUSERS":   {},
		"VERSION":  {},
		"STATS":    {},
		"LINKS":    {},
		"TIME":     {},
		"CONNECT":  {},
		"TRACE":    {},
		"ADMIN":    {},
		"INFO":     {},
		"SERVLIST": {},
		"SQUERY":   {},
		"WHO":      {},
		"WHOIS":    {},
		"WHOWAS":   {},
		"KILL":     {},
	}
}

// Parser applies the grammar with a set of validation limits.
type Parser struct {
	Rules *validate.Rules
}

var defaultParser = NewParser(nil)

// NewParser returns a parser; nil rules mean the RFC 2812 defaults.
func NewParser(rules *validate.Rules) *Parser {
	if rules == nil {
		rules = validate.DefaultRules()
	}
	return &Parser{Rules: rules}
}

func (p *Parser) rules() *validate.Rules {
	if p == nil {
		return nil
	}
	return p.Rules
}

// ParseCommand applies the grammar of raw's verb. Verbs are matched
// case-insensitively.
func (p *Parser) ParseCommand(raw RawCommand) (Command, error) {
	verb := strings.ToUpper(raw.Command)
	rule, known := grammar[verb]
	if !known {
		return nil, &Error{Kind: IllegalCommand, Command: raw.Command}
	}
	if rule.parse == nil {
		return nil, &Error{Kind: CommandNotImplemented, Command: verb}
	}
	cmd, err := rule.parse(p.rules(), raw)
	if err != nil {
		return nil, &Error{Kind: CommandParameter, Command: verb, Params: raw.Rest(0), Err: err}
	}
	return cmd, nil
}

// ParseCommand parses the text of a command using the default limits.
func ParseCommand(text string) (Command, error) {
	return defaultParser.ParseCommandText(text)
}

// ParseCommandText splits and parses the text of a command.
func (p *Parser) ParseCommandText(text string) (Command, error) {
	raw, err := ParseRawCommand(text)
	if err != nil {
		return nil, err
	}
	return p.ParseCommand(raw)
}

// SplitTargets splits a comma-separated target list, failing on the first
// entry that is neither a channel name nor a nickname.
func (p *Parser) SplitTargets(list string) ([]string, error) {
	targets := strings.Split(list, listDelimiter)
	for _, target := range targets {
		if err := p.rules().Target(target); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

// SplitTargets splits a target list using the default limits.
func SplitTargets(list string) ([]string, error) {
	return defaultParser.SplitTargets(list)
}

func splitChannels(rules *validate.Rules, list string) ([]string, error) {
	channels := strings.Split(list, listDelimiter)
	for _, channel := range channels {
		if err := rules.ChannelName(channel); err != nil {
			return nil, err
		}
	}
	return channels, nil
}

func parseNick(rules *validate.Rules, raw RawCommand) (Command, error) {
	if len(raw.Params) != 1 {
		return nil, errParamCount
	}
	name := stripMarker(raw.Params[0])
	if err := rules.Nickname(name); err != nil {
		return nil, err
	}
	return Nick{Name: name}, nil
}

func parseUser(rules *validate.Rules, raw RawCommand) (Command, error) {
	if len(raw.Params) < 4 {
		return nil, errParamCount
	}
	if !isTrailing(raw.Params[3]) {
		return nil, errTrailingExpected
	}
	name := raw.Params[0]
	if err := rules.Username(name); err != nil {
		return nil, err
	}
	realName := stripMarker(raw.Rest(3))
	if err := rules.RealName(realName); err != nil {
		return nil, err
	}
	var userModes modes.ModeChanges
	if mask, err := strconv.Atoi(raw.Params[1]); err == nil {
		userModes = modes.FromUserBitmask(mask)
	}
	return User{Name: name, Modes: userModes, RealName: realName}, nil
}

func parseJoin(rules *validate.Rules, raw RawCommand) (Command, error) {
	if len(raw.Params) == 1 && raw.Params[0] == "0" {
		return JoinZero{}, nil
	}
	if len(raw.Params) < 1 || len(raw.Params) > 2 {
		return nil, errParamCount
	}
	// servers tend to send the channel of a JOIN as a trailing parameter
	last := len(raw.Params) - 1
	params := slices.Clone(raw.Params)
	params[last] = stripMarker(params[last])

	channels, err := splitChannels(rules, params[0])
	if err != nil {
		return nil, err
	}
	var keys []string
	if len(params) == 2 {
		keys = strings.Split(params[1], listDelimiter)
		for _, key := range keys {
			if err := rules.Key(key); err != nil {
				return nil, err
			}
		}
		if len(keys) > len(channels) {
			return nil, errTooManyKeys
		}
	}
	return Join{Channels: channels, Keys: keys}, nil
}

func parsePart(rules *validate.Rules, raw RawCommand) (Command, error) {
	switch {
	case len(raw.Params) == 1:
		channels, err := splitChannels(rules, stripMarker(raw.Params[0]))
		if err != nil {
			return nil, err
		}
		return Part{Channels: channels}, nil
	case len(raw.Params) >= 2 && isTrailing(raw.Params[1]):
		channels, err := splitChannels(rules, raw.Params[0])
		if err != nil {
			return nil, err
		}
		var reason string
		if len(raw.Params[1]) >= 2 {
			reason = stripMarker(raw.Rest(1))
		}
		return Part{Channels: channels, Reason: reason}, nil
	default:
		return nil, errParamCount
	}
}

func parsePrivMsg(rules *validate.Rules, raw RawCommand) (Command, error) {
	if len(raw.Params) < 2 {
		return nil, errParamCount
	}
	if !isTrailing(raw.Params[1]) {
		return nil, errTrailingExpected
	}
	// invalid targets are dropped rather than failing the whole message
	var targets []string
	for _, target := range strings.Split(raw.Params[0], listDelimiter) {
		if rules.Target(target) == nil {
			targets = append(targets, target)
		}
	}
	return PrivMsg{Targets: targets, Text: stripMarker(raw.Rest(1))}, nil
}

func parseNotice(rules *validate.Rules, raw RawCommand) (Command, error) {
	if len(raw.Params) < 2 {
		return nil, errParamCount
	}
	return Notice{Target: raw.Params[0], Text: stripMarker(raw.Rest(1))}, nil
}

func parsePing(rules *validate.Rules, raw RawCommand) (Command, error) {
	if len(raw.Params) < 1 {
		return nil, errParamCount
	}
	ping := Ping{Server1: stripMarker(raw.Params[0])}
	if len(raw.Params) >= 2 {
		ping.Server2 = stripMarker(raw.Params[1])
	}
	return ping, nil
}

// PONG is never rejected; whatever servers are present get extracted.
func parsePong(rules *validate.Rules, raw RawCommand) (Command, error) {
	var pong Pong
	if len(raw.Params) >= 1 {
		pong.Server1 = stripMarker(raw.Params[0])
	}
	if len(raw.Params) >= 2 {
		pong.Server2 = stripMarker(raw.Params[1])
	}
	return pong, nil
}

func parseError(rules *validate.Rules, raw RawCommand) (Command, error) {
	if len(raw.Params) < 1 {
		return nil, errParamCount
	}
	return ErrorMsg{Text: stripMarker(raw.Rest(0))}, nil
}

func parseMotdStart(rules *validate.Rules, raw RawCommand) (Command, error) {
	return MotdStart{}, nil
}

// 372 <nick> :- <text>
func parseMotdLine(rules *validate.Rules, raw RawCommand) (Command, error) {
	if len(raw.Params) < 2 {
		return nil, errParamCount
	}
	text, ok := strings.CutPrefix(raw.Rest(1), ":- ")
	if !ok {
		return nil, errMotdLineFormat
	}
	return MotdLine{Text: text}, nil
}

func parseMotdEnd(rules *validate.Rules, raw RawCommand) (Command, error) {
	return MotdEnd{}, nil
}

func parseNoMotd(rules *validate.Rules, raw RawCommand) (Command, error) {
	return NoMotd{}, nil
}
