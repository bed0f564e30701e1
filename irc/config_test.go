// Copyright (c) 2020 Shivaram Lingamneni
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/teslaNova/np1th-irc/irc/logger"
	"github.com/teslaNova/np1th-irc/irc/validate"
)

const testConfigYAML = `
server:
    host: irc.example.org
    ports: [6667, "+6697"]
    password: hunter2
    policies: [prioritize-secure]
    connect-timeout: 5s
    registration-timeout: 1m

identity:
    nick: dan
    real-name: Dan Example

limits:
    nicklen: 32
    readq: 16k

logging:
    -
        method: stderr
        level: info
        type: "* -input -output"
`

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte(testConfigYAML), nil)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(config.Server.Host, "irc.example.org", t)
	assertEqual(config.Server.Ports, []Port{InsecurePort(6667), SecurePort(6697)}, t)
	assertEqual(config.Server.Policies, []PortPolicy{PrioritizeSecure}, t)
	assertEqual(config.Server.ConnectTimeout, 5*time.Second, t)
	assertEqual(config.Server.RegistrationTimeout, time.Minute, t)
	assertEqual(config.Server.PollInterval, DefaultPollInterval, t)
	assertEqual(config.Identity, Identity{Nick: "dan", RealName: "Dan Example"}, t)
	assertEqual(config.Identity.Origin(), NewUserOrigin("dan", "dan", ""), t)
	assertEqual(config.Limits.Rules, validate.Rules{NickLen: 32}, t)
	assertEqual(config.Limits.ReadQBytes, 16*1024, t)

	if len(config.Logging) != 1 {
		t.Fatalf("expected one logger, got %d", len(config.Logging))
	}
	logConfig := config.Logging[0]
	assertEqual(logConfig.MethodStderr, true, t)
	assertEqual(logConfig.MethodStdout, false, t)
	assertEqual(logConfig.Level, logger.LogInfo, t)
	assertEqual(logConfig.Types, []string{"*"}, t)
	assertEqual(logConfig.ExcludedTypes, []string{"input", "output"}, t)
}

func TestLoadConfig(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "np1th.yaml")
	if err := os.WriteFile(filename, []byte(testConfigYAML), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NP1TH__IDENTITY__NICK", "override")
	config, err := LoadConfig(filename)
	if err != nil {
		t.Fatal(err)
	}
	assertEqual(config.Filename, filename, t)
	assertEqual(config.Identity.Nick, "override", t)

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("loaded a missing file")
	}
}

func TestConfigErrors(t *testing.T) {
	cases := []struct {
		yaml     string
		expected error
	}{
		{"identity: {nick: dan}\nserver: {ports: [6667]}", ErrHostMissing},
		{"identity: {nick: dan}\nserver: {host: irc.example.org}", ErrPortsMissing},
		{"server: {host: irc.example.org, ports: [6667]}", ErrNickMissing},
		{"identity: {nick: dan}\nserver: {host: 'bad host', ports: [6667]}", ErrHostInvalid},
		{"identity: {nick: dan}\nserver: {host: irc.example.org, ports: [6667], policies: [fastest]}", ErrUnknownPortPolicy},
		{"identity: {nick: dan}\nserver: {host: irc.example.org, ports: [6667]}\nlogging: [{method: file, level: info, type: '*'}]", ErrLoggerFilenameMissing},
		{"identity: {nick: dan}\nserver: {host: irc.example.org, ports: [6667]}\nlogging: [{method: stderr, level: info, type: '-'}]", ErrLoggerExcludeEmpty},
		{"identity: {nick: dan}\nserver: {host: irc.example.org, ports: [6667]}\nlogging: [{method: stderr, level: info, type: '-input'}]", ErrLoggerHasNoTypes},
		{"identity: {nick: '~dan'}\nserver: {host: irc.example.org, ports: [6667]}", validate.ErrIllegalCharacter},
		{"identity: {nick: dan}\nserver: {host: irc.example.org, ports: [6667]}\nlimits: {readq: 100B}", ErrReadQTooSmall},
	}
	for _, c := range cases {
		_, err := ParseConfig([]byte(c.yaml), nil)
		if !errors.Is(err, c.expected) {
			t.Errorf("%q: expected %v, got %v", c.yaml, c.expected, err)
		}
	}

	_, err := ParseConfig([]byte("identity: {nick: dan}\nserver: {ports: [6667]}"), nil)
	if !errors.Is(err, ErrMissingParameter) {
		t.Errorf("expected a missing parameter error, got %v", err)
	}

	_, err = ParseConfig([]byte("identity: {nick: dan}\nserver: {host: irc.example.org, ports: [6667]}\nlimits: {readq: lots}"), nil)
	if err == nil {
		t.Error("accepted a readq without a size")
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	var config Config
	config.Server.Host = "irc.example.org"
	config.Identity.RealName = "Dan Example"
	env := []string{
		`USER=shivaram`,    // unrelated var
		`NP1TH_USER=np1th`, // this should be ignored as well
		`NP1TH__SERVER__HOST=irc.example.net`,
		`NP1TH__SERVER__PORTS=[6667, "+6697"]`,
		`NP1TH__SERVER__CONNECT_TIMEOUT=10s`,
		`NP1TH__IDENTITY__NICK=dan`,
		`NP1TH__LIMITS__NICKLEN=30`,
		`NP1TH__LIMITS__READQ=32k`,
		`NP1TH__LOGGING=[{"method": "stderr", "level": "debug", "type": "*"}]`,
	}
	for _, envPair := range env {
		_, _, err := mungeFromEnvironment(&config, envPair)
		if err != nil {
			t.Errorf("couldn't apply override `%s`: %v", envPair, err)
		}
	}

	assertEqual(config.Server.Host, "irc.example.net", t)
	assertEqual(config.Server.Ports, []Port{InsecurePort(6667), SecurePort(6697)}, t)
	assertEqual(config.Server.ConnectTimeoutString, "10s", t)
	assertEqual(config.Identity.Nick, "dan", t)
	assertEqual(config.Limits.NickLen, 30, t)
	if config.Identity.RealName != "Dan Example" {
		t.Errorf("overwrote unrelated field")
	}
	if len(config.Logging) != 1 || config.Logging[0].LevelString != "debug" {
		t.Errorf("bad value of logging: %#v", config.Logging)
	}

	if err := config.Prepare(); err != nil {
		t.Fatal(err)
	}
	assertEqual(config.Server.ConnectTimeout, 10*time.Second, t)
	assertEqual(config.Limits.ReadQBytes, 32*1024, t)
}

func TestEnvironmentOverrideErrors(t *testing.T) {
	var config Config

	invalidEnvs := []string{
		`NP1TH__=asdf`,
		`NP1TH__SERVER__=asdf`,
		`NP1TH__SERVER____=asdf`,
		`NP1TH__NONEXISTENT_KEY=1`,
		`NP1TH__SERVER__NONEXISTENT_KEY=1`,
		// invalid yaml:
		`NP1TH__SERVER__HOST="`,
		// invalid type:
		`NP1TH__LIMITS__NICKLEN=asdf`,
		`NP1TH__LIMITS__RULES=1`,
		`NP1TH__LIMITS__READQBYTES=1`,
		`NP1TH__SERVER__PORTS=[99999]`,
		// index into non-struct:
		`NP1TH__SERVER__HOST__QUX=1`,
		// not read from yaml:
		`NP1TH__SERVER__CONNECTTIMEOUT=1`,
		`NP1TH__FILENAME=x.yaml`,
	}

	for _, env := range invalidEnvs {
		success, _, err := mungeFromEnvironment(&config, env)
		if err == nil || success {
			t.Errorf("accepted invalid env override `%s`", env)
		}
	}
}

func TestPrepareKeepsCodeDurations(t *testing.T) {
	config := Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Ports:          []Port{InsecurePort(6667)},
			ConnectTimeout: 3 * time.Second,
			PollInterval:   time.Millisecond,
		},
		Identity: Identity{Nick: "dan"},
	}
	if err := config.Prepare(); err != nil {
		t.Fatal(err)
	}
	assertEqual(config.Server.ConnectTimeout, 3*time.Second, t)
	assertEqual(config.Server.PollInterval, time.Millisecond, t)
	assertEqual(config.Limits.ReadQBytes, DefaultReadQBytes, t)
}
