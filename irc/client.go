// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"iter"
	"strings"
	"time"

	"github.com/ergochat/irc-go/ircfmt"

	"github.com/teslaNova/np1th-irc/irc/logger"
	"github.com/teslaNova/np1th-irc/irc/modes"
)

// BootstrapState is a step of Connect.
type BootstrapState uint8

const (
	StateSelecting BootstrapState = iota
	StateConnecting
	StateRegistering
	StateCollectingMotd
	StateReady
	StateFailed
)

var bootstrapStateNames = map[BootstrapState]string{
	StateSelecting:      "selecting",
	StateConnecting:     "connecting",
	StateRegistering:    "registering",
	StateCollectingMotd: "collecting-motd",
	StateReady:          "ready",
	StateFailed:         "failed",
}

func (state BootstrapState) String() string {
	return bootstrapStateNames[state]
}

// Client is a registered connection to a server.
type Client struct {
	stream   *Stream
	identity Identity
	server   Origin
	motd     string
	hasMotd  bool
}

// bootstrap carries the state of one Connect call.
type bootstrap struct {
	config *Config
	logger *logger.Manager
	state  BootstrapState
	stream *Stream

	server    Origin
	motdLines []string
	hasMotd   bool
}

func (b *bootstrap) enter(state BootstrapState) {
	b.state = state
	b.logger.Debug("registration", "Bootstrap state", state.String())
}

// fail closes whatever is open and moves to StateFailed.
func (b *bootstrap) fail(err error) error {
	if b.stream != nil {
		b.stream.Close()
		b.stream = nil
	}
	b.enter(StateFailed)
	b.logger.Error("registration", "Bootstrap failed", err.Error())
	return err
}

// Connect dials the first reachable candidate port, registers the identity
// and collects the MOTD. config must be prepared.
func Connect(config *Config, log *logger.Manager) (*Client, error) {
	b := &bootstrap{config: config, logger: log}

	b.enter(StateSelecting)
	candidates, err := b.selectPorts()
	if err != nil {
		return nil, b.fail(err)
	}

	b.enter(StateConnecting)
	if err = b.connect(candidates); err != nil {
		return nil, b.fail(err)
	}

	b.enter(StateRegistering)
	if err = b.register(); err != nil {
		return nil, b.fail(err)
	}

	b.enter(StateCollectingMotd)
	if err = b.collectMotd(); err != nil {
		return nil, b.fail(err)
	}

	if b.server.IsConnection() {
		return nil, b.fail(&Error{Kind: HandshakeIncomplete})
	}

	b.enter(StateReady)
	log.Info("registration", "Registered", b.server.String(), config.Identity.Nick)
	return &Client{
		stream:   b.stream,
		identity: config.Identity,
		server:   b.server,
		motd:     strings.Join(b.motdLines, "\n"),
		hasMotd:  b.hasMotd,
	}, nil
}

func (b *bootstrap) selectPorts() ([]Port, error) {
	if b.config.Server.Host == "" {
		return nil, missingParameter("server.host", ErrHostMissing)
	}
	if b.config.Identity.Nick == "" {
		return nil, missingParameter("identity.nick", ErrNickMissing)
	}
	candidates, err := ApplyPortPolicies(b.config.Server.Ports, b.config.Server.Policies)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, missingParameter("server.ports", ErrPortsMissing)
	}
	return candidates, nil
}

// connect keeps the error of the last candidate when all of them fail.
func (b *bootstrap) connect(candidates []Port) (err error) {
	for _, port := range candidates {
		var transport *Transport
		transport, err = Dial(b.config.Server.Host, port, b.config.Server.ConnectTimeout, b.config.Limits.ReadQBytes, b.logger)
		if err == nil {
			transport.SetPollInterval(b.config.Server.PollInterval)
			b.stream = NewStream(transport, NewParser(&b.config.Limits.Rules), b.logger)
			return nil
		}
	}
	return err
}

func (b *bootstrap) register() (err error) {
	identity := b.config.Identity
	if b.config.Server.Password != "" {
		if _, err = b.stream.Send(Pass{Password: b.config.Server.Password}); err != nil {
			return err
		}
	}
	if _, err = b.stream.Send(Nick{Name: identity.Nick}); err != nil {
		return err
	}
	_, err = b.stream.Send(User{Name: identity.username(), RealName: identity.realName()})
	return err
}

func (b *bootstrap) collectMotd() error {
	var deadline time.Time
	if timeout := b.config.Server.RegistrationTimeout; timeout != 0 {
		deadline = time.Now().Add(timeout)
	}

	for {
		msg, err := b.stream.Read()
		if err != nil {
			return err
		}
		if msg == nil {
			if !deadline.IsZero() && time.Now().After(deadline) {
				return &Error{Kind: HandshakeIncomplete, Text: "registration timed out"}
			}
			continue
		}

		switch cmd := msg.Command.(type) {
		case MotdStart:
			b.server = msg.Origin
			b.motdLines = nil
			b.hasMotd = true
		case MotdLine:
			b.motdLines = append(b.motdLines, cmd.Text)
		case MotdEnd:
			return nil
		case NoMotd:
			b.server = msg.Origin
			b.logger.Debug("registration", "Server has no MOTD", msg.Origin.String())
			return nil
		case ErrorMsg:
			return &Error{Kind: ServerError, Text: cmd.Text}
		case Ping:
			// some servers hold registration until the PING is answered
			if _, err = b.stream.Send(Pong{Server1: cmd.Server1, Server2: cmd.Server2}); err != nil {
				return err
			}
		}
	}
}

// Identity is the identity the client registered with.
func (client *Client) Identity() Identity {
	return client.identity
}

// Server is the origin the server sent its MOTD from.
func (client *Client) Server() Origin {
	return client.server
}

// MOTD returns the message of the day, one line per MOTD line. ok is false
// when the server reported that it has none.
func (client *Client) MOTD() (motd string, ok bool) {
	return client.motd, client.hasMotd
}

// PlainMOTD is the MOTD without formatting codes.
func (client *Client) PlainMOTD() string {
	return ircfmt.Strip(client.motd)
}

// Stream gives direct access to the message stream.
func (client *Client) Stream() *Stream {
	return client.stream
}

// Read returns the next message, or nil when none has arrived yet.
func (client *Client) Read() (*Message, error) {
	if client.stream == nil {
		return nil, ErrClosed
	}
	return client.stream.Read()
}

// Send writes one command.
func (client *Client) Send(cmd Command) (*Client, error) {
	if client.stream == nil {
		return client, ErrClosed
	}
	_, err := client.stream.Send(cmd)
	return client, err
}

// Messages is Stream().Messages().
func (client *Client) Messages() iter.Seq2[*Message, error] {
	if client.stream == nil {
		return func(yield func(*Message, error) bool) {
			yield(nil, ErrClosed)
		}
	}
	return client.stream.Messages()
}

// SetUserModes sends a MODE change for our own nickname, such as "+iw".
func (client *Client) SetUserModes(modeArg string) error {
	changes, err := modes.ParseUserModeChanges(modeArg)
	if err != nil {
		return &Error{Kind: IllegalMode, Input: modeArg, Err: err}
	}
	_, err = client.Send(UserMode{Nick: client.identity.Nick, Changes: changes})
	return err
}

// Disconnect sends QUIT, ignoring failures, and closes the connection. The
// client cannot be used afterwards.
func (client *Client) Disconnect(reason string) error {
	if client.stream == nil {
		return ErrClosed
	}
	stream := client.stream
	client.stream = nil
	stream.Send(Quit{Reason: reason})
	return stream.Close()
}
