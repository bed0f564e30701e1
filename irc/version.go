// Copyright (c) 2020 Shivaram Lingamneni
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import "fmt"

const (
	// SemVer is the semantic version of np1th-irc.
	SemVer = "0.3.0"
)

var (
	// Ver is the full version, as printed by the command line tool.
	Ver = fmt.Sprintf("np1th-irc-%s", SemVer)
	// Commit is the full git hash, if available
	Commit string
)

// initialize version strings (these are set in package main via linker flags)
func SetVersionString(version, commit string) {
	Commit = commit
	if version != "" {
		Ver = fmt.Sprintf("np1th-irc-%s", version)
	} else if len(Commit) == 40 {
		Ver = fmt.Sprintf("np1th-irc-%s-%s", SemVer, Commit[:16])
	}
}
