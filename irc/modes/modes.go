// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package modes

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrIllegalMode is wrapped by every error this package returns.
	ErrIllegalMode = errors.New("illegal mode")

	// SupportedUserModes are the RFC 2812 user modes.
	SupportedUserModes = Modes{
		Away, Invisible, WallOps, Restricted, Operator, LocalOperator, ServerNotice,
	}
)

// ModeOp is an operation performed with modes
type ModeOp rune

const (
	// Add is used when adding the given key.
	Add ModeOp = '+'
	// Remove is used when taking away the given key.
	Remove ModeOp = '-'
)

// Mode represents a user/channel/server mode
type Mode rune

func (mode Mode) String() string {
	return string(mode)
}

// ModeChange is a single mode changing
type ModeChange struct {
	Mode Mode
	Op   ModeOp
}

// ModeChanges are a collection of 'ModeChange's
type ModeChanges []ModeChange

// String renders the changes in their compact wire form, e.g. "+iw-o".
func (changes ModeChanges) String() string {
	if len(changes) == 0 {
		return ""
	}

	var builder strings.Builder

	op := changes[0].Op
	builder.WriteRune(rune(op))

	for _, change := range changes {
		if change.Op != op {
			op = change.Op
			builder.WriteRune(rune(op))
		}
		builder.WriteRune(rune(change.Mode))
	}

	return builder.String()
}

// Modes is just a raw list of modes
type Modes []Mode

func (modes Modes) String() string {
	var builder strings.Builder
	for _, m := range modes {
		builder.WriteRune(rune(m))
	}
	return builder.String()
}

// User Modes
const (
	Away          Mode = 'a'
	Invisible     Mode = 'i'
	WallOps       Mode = 'w'
	Restricted    Mode = 'r'
	Operator      Mode = 'o'
	LocalOperator Mode = 'O'
	ServerNotice  Mode = 's'
)

// the USER command's <mode> parameter, RFC 2812 section 3.1.3
const (
	bitmaskWallOps   = 1 << 2
	bitmaskInvisible = 1 << 3
)

// IllegalModeError reports a mode string that could not be parsed.
type IllegalModeError struct {
	Input string
	Mode  rune
}

func (e *IllegalModeError) Error() string {
	if e.Mode == 0 {
		return fmt.Sprintf("illegal mode string [%s]", e.Input)
	}
	return fmt.Sprintf("illegal mode %q in [%s]", e.Mode, e.Input)
}

func (e *IllegalModeError) Unwrap() error {
	return ErrIllegalMode
}

// ParseUserModeChanges parses a user mode string like "+iw-s". Every
// letter needs a preceding operator; unknown letters are an error.
func ParseUserModeChanges(modeArg string) (changes ModeChanges, err error) {
	if len(modeArg) < 2 || (modeArg[0] != '+' && modeArg[0] != '-') {
		return nil, &IllegalModeError{Input: modeArg}
	}

	var op ModeOp
	for _, mode := range modeArg {
		if mode == '-' || mode == '+' {
			op = ModeOp(mode)
			continue
		}
		if !slices.Contains(SupportedUserModes, Mode(mode)) {
			return nil, &IllegalModeError{Input: modeArg, Mode: mode}
		}
		changes = append(changes, ModeChange{Mode: Mode(mode), Op: op})
	}
	if len(changes) == 0 {
		return nil, &IllegalModeError{Input: modeArg}
	}
	return changes, nil
}

// FromUserBitmask converts the numeric USER mode parameter to mode changes.
func FromUserBitmask(mask int) (changes ModeChanges) {
	if mask&bitmaskWallOps != 0 {
		changes = append(changes, ModeChange{Mode: WallOps, Op: Add})
	}
	if mask&bitmaskInvisible != 0 {
		changes = append(changes, ModeChange{Mode: Invisible, Op: Add})
	}
	return
}

// ToUserBitmask is the inverse of FromUserBitmask; modes that have no bit
// are ignored.
func ToUserBitmask(changes ModeChanges) (mask int) {
	for _, change := range changes {
		if change.Op != Add {
			continue
		}
		switch change.Mode {
		case WallOps:
			mask |= bitmaskWallOps
		case Invisible:
			mask |= bitmaskInvisible
		}
	}
	return
}
