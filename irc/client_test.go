// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"bufio"
	"crypto/tls"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/teslaNova/np1th-irc/irc/mkcerts"
)

// serverConn is the server side of one test connection.
type serverConn struct {
	conn   net.Conn
	reader *bufio.Reader
	lines  chan<- string
}

func (c *serverConn) readLine() (line string, ok bool) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", false
	}
	line = strings.TrimRight(line, "\r\n")
	c.lines <- line
	return line, true
}

// waitFor reads lines until one with the given verb arrives.
func (c *serverConn) waitFor(verb string) bool {
	for {
		line, ok := c.readLine()
		if !ok {
			return false
		}
		if line == verb || strings.HasPrefix(line, verb+" ") {
			return true
		}
	}
}

func (c *serverConn) send(lines ...string) {
	for _, line := range lines {
		c.conn.Write([]byte(line + "\r\n"))
	}
}

// startServer accepts a single connection and runs handler on it. Every
// line the client sends ends up on the returned channel, which is closed
// once the client hangs up.
func startServer(t *testing.T, tlsConfig *tls.Config, handler func(c *serverConn)) (port uint16, received <-chan string) {
	t.Helper()
	var listener net.Listener
	var err error
	if tlsConfig != nil {
		listener, err = tls.Listen("tcp", "127.0.0.1:0", tlsConfig)
	} else {
		listener, err = net.Listen("tcp", "127.0.0.1:0")
	}
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { listener.Close() })

	lines := make(chan string, 64)
	go func() {
		defer close(lines)
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		c := &serverConn{conn: conn, reader: bufio.NewReader(conn), lines: lines}
		handler(c)
		for {
			if _, ok := c.readLine(); !ok {
				return
			}
		}
	}()
	return uint16(listener.Addr().(*net.TCPAddr).Port), lines
}

func collect(received <-chan string) (lines []string) {
	timeout := time.After(5 * time.Second)
	for {
		select {
		case line, ok := <-received:
			if !ok {
				return
			}
			lines = append(lines, line)
		case <-timeout:
			return
		}
	}
}

func closedPort(t *testing.T) uint16 {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := uint16(listener.Addr().(*net.TCPAddr).Port)
	listener.Close()
	return port
}

func testConfig(ports ...Port) *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Ports:               ports,
			ConnectTimeout:      5 * time.Second,
			PollInterval:        5 * time.Millisecond,
			RegistrationTimeout: 10 * time.Second,
		},
		Identity: Identity{Nick: "dan"},
	}
}

func sendMotd(c *serverConn) {
	if c.waitFor("NICK") && c.waitFor("USER") {
		c.send(
			":irc.example.org 001 dan :Welcome to the network",
			":irc.example.org 375 dan :- irc.example.org Message of the day -",
			":irc.example.org 372 dan :- line1",
			":irc.example.org 372 dan :- line2",
			":irc.example.org 376 dan :End of /MOTD command.",
			":bob!b@example.com PRIVMSG dan :hi",
		)
	}
}

func TestConnect(t *testing.T) {
	port, received := startServer(t, nil, sendMotd)

	client, err := Connect(testConfig(InsecurePort(port)), nil)
	if err != nil {
		t.Fatal(err)
	}
	motd, ok := client.MOTD()
	assertEqual(ok, true, t)
	assertEqual(motd, "line1\nline2", t)
	assertEqual(client.Server(), NewServerOrigin("irc.example.org"), t)
	assertEqual(client.Identity().Nick, "dan", t)

	// traffic after the MOTD is delivered to the caller
	var msg *Message
	deadline := time.Now().Add(5 * time.Second)
	for msg == nil && time.Now().Before(deadline) {
		if msg, err = client.Read(); err != nil {
			t.Fatal(err)
		}
	}
	if msg == nil {
		t.Fatal("no message after registration")
	}
	assertEqual(msg.Origin, NewUserOrigin("bob", "b", "example.com"), t)
	assertEqual(msg.Command, PrivMsg{Targets: []string{"dan"}, Text: "hi"}, t)

	if _, err = client.Send(PrivMsg{Targets: []string{"#ergo"}, Text: "hello"}); err != nil {
		t.Fatal(err)
	}
	if err = client.SetUserModes("+i"); err != nil {
		t.Fatal(err)
	}
	if err = client.SetUserModes("+z"); !errors.Is(err, ErrIllegalMode) {
		t.Errorf("expected illegal mode, got %v", err)
	}
	if err = client.Disconnect("bye"); err != nil {
		t.Fatal(err)
	}

	assertEqual(collect(received), []string{
		"NICK :dan",
		"USER dan * * :np1th-irc",
		"PRIVMSG #ergo :hello",
		"MODE dan +i",
		"QUIT :bye",
	}, t)

	// the client is consumed
	if err = client.Disconnect("again"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected the second disconnect to fail, got %v", err)
	}
	if _, err = client.Read(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected read after disconnect to fail, got %v", err)
	}
}

func TestConnectSecure(t *testing.T) {
	tlsConfig, err := mkcerts.ServerConfig("localhost")
	if err != nil {
		t.Fatal(err)
	}
	port, received := startServer(t, tlsConfig, sendMotd)

	config := testConfig(InsecurePort(closedPort(t)), SecurePort(port))
	config.Server.Policies = []PortPolicy{SecureOnly}
	config.Identity = Identity{Nick: "dan", User: "~dan", RealName: "Dan Example"}
	config.Server.Password = "hunter2"

	client, err := Connect(config, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !client.Stream().Transport().Secure() {
		t.Error("expected a TLS transport")
	}
	assertEqual(client.Server(), NewServerOrigin("irc.example.org"), t)
	client.Disconnect("")

	assertEqual(collect(received), []string{
		"PASS hunter2",
		"NICK :dan",
		"USER ~dan * * :Dan Example",
		"QUIT",
	}, t)
}

func TestConnectFallsBack(t *testing.T) {
	port, _ := startServer(t, nil, sendMotd)
	client, err := Connect(testConfig(InsecurePort(closedPort(t)), InsecurePort(port)), nil)
	if err != nil {
		t.Fatal(err)
	}
	client.Disconnect("")
}

func TestConnectNoCandidates(t *testing.T) {
	config := testConfig(InsecurePort(closedPort(t)), InsecurePort(closedPort(t)))
	if _, err := Connect(config, nil); !errors.Is(err, ErrConnection) {
		t.Errorf("expected a connection error, got %v", err)
	}

	config.Server.Policies = []PortPolicy{SecureOnly}
	if _, err := Connect(config, nil); !errors.Is(err, ErrPortsMissing) {
		t.Errorf("expected no ports to be left, got %v", err)
	}

	config = testConfig(InsecurePort(6667))
	config.Identity.Nick = ""
	if _, err := Connect(config, nil); !errors.Is(err, ErrMissingParameter) {
		t.Errorf("expected a missing parameter error, got %v", err)
	}
}

func TestConnectServerError(t *testing.T) {
	port, _ := startServer(t, nil, func(c *serverConn) {
		if c.waitFor("USER") {
			c.send("ERROR :Closing Link: 127.0.0.1 (Bad password)")
		}
	})
	_, err := Connect(testConfig(InsecurePort(port)), nil)
	var ircErr *Error
	if !errors.As(err, &ircErr) || ircErr.Kind != ServerError {
		t.Fatalf("expected a server error, got %v", err)
	}
	assertEqual(ircErr.Text, "Closing Link: 127.0.0.1 (Bad password)", t)
}

func TestConnectPingAndNoMotd(t *testing.T) {
	port, received := startServer(t, nil, func(c *serverConn) {
		if c.waitFor("USER") {
			c.send("PING :cookie")
			if c.waitFor("PONG") {
				c.send(":irc.example.org 422 dan :MOTD File is missing")
			}
		}
	})
	client, err := Connect(testConfig(InsecurePort(port)), nil)
	if err != nil {
		t.Fatal(err)
	}
	motd, ok := client.MOTD()
	assertEqual(ok, false, t)
	assertEqual(motd, "", t)
	assertEqual(client.Server(), NewServerOrigin("irc.example.org"), t)
	client.Disconnect("")

	lines := collect(received)
	if len(lines) < 3 || lines[2] != "PONG cookie" {
		t.Errorf("PING was not answered: %#v", lines)
	}
}

func TestConnectHandshakeIncomplete(t *testing.T) {
	// MOTD end without ever learning who the server is
	port, _ := startServer(t, nil, func(c *serverConn) {
		if c.waitFor("USER") {
			c.send("376 dan :End of /MOTD command.")
		}
	})
	if _, err := Connect(testConfig(InsecurePort(port)), nil); !errors.Is(err, ErrHandshakeIncomplete) {
		t.Errorf("expected an incomplete handshake, got %v", err)
	}

	// nothing at all
	port, _ = startServer(t, nil, func(c *serverConn) {})
	config := testConfig(InsecurePort(port))
	config.Server.RegistrationTimeout = 50 * time.Millisecond
	if _, err := Connect(config, nil); !errors.Is(err, ErrHandshakeIncomplete) {
		t.Errorf("expected registration to time out, got %v", err)
	}
}

func TestPlainMOTD(t *testing.T) {
	client := &Client{motd: "\x02bold\x02 and \x0304red\x03", hasMotd: true}
	assertEqual(client.PlainMOTD(), "bold and red", t)
}

func TestBootstrapStateNames(t *testing.T) {
	assertEqual(StateSelecting.String(), "selecting", t)
	assertEqual(StateCollectingMotd.String(), "collecting-motd", t)
	assertEqual(StateFailed.String(), "failed", t)
}
