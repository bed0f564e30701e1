// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Port is a candidate server port. Config files write a secure port with
// a leading '+', as in "+6697".
type Port struct {
	Number uint16
	Secure bool
}

// SecurePort returns a TLS port.
func SecurePort(number uint16) Port {
	return Port{Number: number, Secure: true}
}

// InsecurePort returns a plaintext port.
func InsecurePort(number uint16) Port {
	return Port{Number: number}
}

func (p Port) String() string {
	if p.Secure {
		return "+" + strconv.Itoa(int(p.Number))
	}
	return strconv.Itoa(int(p.Number))
}

// Kind is "secure" or "insecure", for logging.
func (p Port) Kind() string {
	if p.Secure {
		return "secure"
	}
	return "insecure"
}

// ParsePort parses "6667" or "+6697".
func ParsePort(value string) (port Port, err error) {
	value = strings.TrimSpace(value)
	numStr, secure := strings.CutPrefix(value, "+")
	number, err := strconv.ParseUint(numStr, 10, 16)
	if err != nil || number == 0 {
		return port, fmt.Errorf("%w: %q", ErrPortInvalid, value)
	}
	return Port{Number: uint16(number), Secure: secure}, nil
}

// UnmarshalYAML accepts both integers and strings.
func (p *Port) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var value string
	if err := unmarshal(&value); err != nil {
		return err
	}
	port, err := ParsePort(value)
	if err != nil {
		return err
	}
	*p = port
	return nil
}

// PortPolicy filters or reorders candidate ports.
type PortPolicy string

const (
	SecureOnly         PortPolicy = "secure-only"
	InsecureOnly       PortPolicy = "insecure-only"
	PrioritizeSecure   PortPolicy = "prioritize-secure"
	PrioritizeInsecure PortPolicy = "prioritize-insecure"
)

// Validate rejects unknown policy names.
func (policy PortPolicy) Validate() error {
	switch policy {
	case SecureOnly, InsecureOnly, PrioritizeSecure, PrioritizeInsecure:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPortPolicy, string(policy))
	}
}

// ApplyPortPolicies applies policies in order to a copy of ports.
// Prioritizing is a stable sort, so ports of the same kind keep their
// configured order.
func ApplyPortPolicies(ports []Port, policies []PortPolicy) ([]Port, error) {
	result := slices.Clone(ports)
	for _, policy := range policies {
		switch policy {
		case SecureOnly:
			result = slices.DeleteFunc(result, func(p Port) bool { return !p.Secure })
		case InsecureOnly:
			result = slices.DeleteFunc(result, func(p Port) bool { return p.Secure })
		case PrioritizeSecure:
			slices.SortStableFunc(result, func(a, b Port) int { return rank(b) - rank(a) })
		case PrioritizeInsecure:
			slices.SortStableFunc(result, func(a, b Port) int { return rank(a) - rank(b) })
		default:
			return nil, policy.Validate()
		}
	}
	return result, nil
}

func rank(p Port) int {
	if p.Secure {
		return 1
	}
	return 0
}
