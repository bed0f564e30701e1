// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package utils

import (
	"strconv"
	"strings"
	"time"
)

// ParseDuration is time.ParseDuration plus a "d" suffix for days;
// the empty string is a zero duration.
func ParseDuration(str string) (time.Duration, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return 0, nil
	}
	if days, ok := strings.CutSuffix(str, "d"); ok {
		n, err := strconv.ParseFloat(days, 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(n * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(str)
}
