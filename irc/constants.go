// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"time"
)

const (
	// MaxLineLen is the RFC 2812 line limit, CRLF included.
	MaxLineLen = 512
	// MaxParams is the most parameters a command may carry.
	MaxParams = 15

	separator      = " "
	trailingMarker = ":"
	prefixMarker   = ':'
	listDelimiter  = ","
	identSeparator = '!'
	hostSeparator  = '@'
	endOfMessage   = "\r\n"

	// DefaultPollInterval bounds how long a single non-blocking read waits
	// for bytes to arrive.
	DefaultPollInterval = 10 * time.Millisecond
	// DefaultRealName is sent in USER when the identity carries none.
	DefaultRealName = "np1th-irc"
)
