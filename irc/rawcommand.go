// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"strings"
)

// RawCommand is a command split into its verb and parameters, before any
// grammar is applied. A trailing parameter keeps its leading marker.
type RawCommand struct {
	Command string
	Params  []string
}

// ParseRawCommand splits text on single spaces. A parameter starting with
// the trailing marker, and the 15th parameter, take the rest of the line.
func ParseRawCommand(text string) (raw RawCommand, err error) {
	verb, rest, hasParams := strings.Cut(text, separator)
	if verb == "" {
		return raw, &Error{Kind: IllegalMessageFormat, Input: text}
	}
	raw.Command = verb
	for hasParams {
		if strings.HasPrefix(rest, trailingMarker) || len(raw.Params) == MaxParams-1 {
			raw.Params = append(raw.Params, rest)
			break
		}
		var param string
		param, rest, hasParams = strings.Cut(rest, separator)
		raw.Params = append(raw.Params, param)
	}
	return raw, nil
}

// Rest joins the parameters from index i onward, which restores the
// original text of that part of the line.
func (raw RawCommand) Rest(i int) string {
	if i >= len(raw.Params) {
		return ""
	}
	return strings.Join(raw.Params[i:], separator)
}

func (raw RawCommand) String() string {
	if len(raw.Params) == 0 {
		return raw.Command
	}
	return raw.Command + separator + raw.Rest(0)
}

func stripMarker(param string) string {
	return strings.TrimPrefix(param, trailingMarker)
}

func isTrailing(param string) bool {
	return strings.HasPrefix(param, trailingMarker)
}
