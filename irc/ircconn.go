// Copyright (c) 2020 Shivaram Lingamneni <slingamn@cs.stanford.edu>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"crypto/tls"
	"errors"
	"net"
	"slices"
	"strconv"
	"time"

	"github.com/ergochat/irc-go/ircmsg"
	"github.com/ergochat/irc-go/ircreader"

	"github.com/teslaNova/np1th-irc/irc/logger"
	"github.com/teslaNova/np1th-irc/irc/utils"
)

const (
	// DefaultReadQBytes leaves room for an IRCv3 tag section plus a full
	// line. More bytes than the readQ without a terminator is ErrReadQ,
	// which is fatal to the connection.
	DefaultReadQBytes = ircmsg.MaxlenTags + MaxLineLen + 1024

	initialReadQBytes  = 512
	closeNotifyTimeout = time.Second
)

// Transport is a plain or TLS connection to a server, together with the
// accumulation buffer that frames its byte stream into lines.
type Transport struct {
	conn    net.Conn
	tcpConn *net.TCPConn
	tlsConn *tls.Conn
	address string

	reader       ircreader.Reader
	lines        [][]byte
	pollInterval time.Duration

	logger *logger.Manager
	// once set, every operation fails with it
	err error
}

// Dial connects to host:port.Number, negotiating TLS when port.Secure. A
// timeout of zero means none; otherwise it bounds each resolved address
// and the TLS handshake. maxReadQ is passed on to NewTransport.
func Dial(host string, port Port, timeout time.Duration, maxReadQ int, log *logger.Manager) (*Transport, error) {
	address := net.JoinHostPort(host, strconv.Itoa(int(port.Number)))
	log.Info("connect", "Dialing", address, port.Kind())

	conn, err := dialTCP(host, port, timeout)
	if err != nil {
		log.Warning("connect", "Dial failed", address, err.Error())
		return nil, connectionError(address, err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}

	if port.Secure {
		tlsConn := tls.Client(conn, &tls.Config{
			InsecureSkipVerify: true,
			ServerName:         serverName(host),
		})
		if timeout != 0 {
			tlsConn.SetDeadline(time.Now().Add(timeout))
		}
		err = tlsConn.Handshake()
		if err != nil {
			conn.Close()
			log.Warning("connect", "TLS handshake failed", address, err.Error())
			return nil, connectionError(address, err)
		}
		tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}

	log.Info("connect", "Connected", address, port.Kind())
	transport := NewTransport(conn, maxReadQ, log)
	transport.address = address
	return transport, nil
}

func dialTCP(host string, port Port, timeout time.Duration) (net.Conn, error) {
	portStr := strconv.Itoa(int(port.Number))
	if timeout == 0 {
		return net.Dial("tcp", net.JoinHostPort(host, portStr))
	}

	addrs, err := net.LookupHost(host)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, addr := range addrs {
		conn, err := net.DialTimeout("tcp", net.JoinHostPort(addr, portStr), timeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// SNI is only sent for names, never for IP literals
func serverName(host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}
	return host
}

// NewTransport wraps an established connection, which may be a *tls.Conn.
// maxReadQ bounds the bytes buffered for one unterminated line; zero means
// DefaultReadQBytes.
func NewTransport(conn net.Conn, maxReadQ int, log *logger.Manager) *Transport {
	if maxReadQ <= 0 {
		maxReadQ = DefaultReadQBytes
	}
	t := &Transport{
		conn:         conn,
		address:      conn.RemoteAddr().String(),
		pollInterval: DefaultPollInterval,
		logger:       log,
	}
	switch c := conn.(type) {
	case *tls.Conn:
		t.tlsConn = c
		t.tcpConn, _ = c.NetConn().(*net.TCPConn)
	case *net.TCPConn:
		t.tcpConn = c
	}
	t.reader.Initialize(conn, min(initialReadQBytes, maxReadQ), maxReadQ)
	return t
}

// SetPollInterval sets how long ReadAvailable waits for bytes.
func (t *Transport) SetPollInterval(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	t.pollInterval = interval
}

// Secure reports whether the transport runs over TLS.
func (t *Transport) Secure() bool {
	return t.tlsConn != nil
}

// RemoteAddr is the address of the server.
func (t *Transport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

func (t *Transport) fail(err error) error {
	if t.err == nil {
		t.err = connectionError(t.address, err)
	}
	return t.err
}

// ReadAvailable moves every line that arrives within the poll interval into
// the line queue. Finding nothing is not an error; bytes of an incomplete
// line stay buffered for the next call. EOF and other read failures are
// fatal, but lines completed before them are still queued.
func (t *Transport) ReadAvailable() error {
	if t.err != nil {
		return t.err
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(t.pollInterval)); err != nil {
		return t.fail(err)
	}
	for {
		line, err := t.reader.ReadLine()
		if err != nil {
			if utils.IsTimeout(err) {
				return nil
			}
			return t.fail(err)
		}
		// the reader reuses its buffer
		line = slices.Clone(line)
		if t.logger.IsLoggingRawIO() {
			t.logger.Debug("input", t.address, string(line))
		}
		t.lines = append(t.lines, line)
	}
}

// PopLine removes the oldest complete line, without its terminator.
func (t *Transport) PopLine() (line []byte, ok bool) {
	if len(t.lines) == 0 {
		return nil, false
	}
	line = t.lines[0]
	t.lines[0] = nil
	t.lines = t.lines[1:]
	return line, true
}

// Buffered is the number of complete lines not yet popped.
func (t *Transport) Buffered() int {
	return len(t.lines)
}

// WriteLine writes a serialized line, terminator included.
func (t *Transport) WriteLine(line []byte) error {
	if t.err != nil {
		return t.err
	}
	if t.logger.IsLoggingRawIO() {
		t.logger.Debug("output", t.address, string(line))
	}
	for len(line) > 0 {
		n, err := t.conn.Write(line)
		if err != nil {
			return t.fail(err)
		}
		line = line[n:]
	}
	return nil
}

// Close ends the TLS session if there is one, then shuts the socket down
// in both directions. Later operations fail with ErrClosed.
func (t *Transport) Close() (err error) {
	if errors.Is(t.err, ErrClosed) {
		return nil
	}
	if t.tlsConn != nil {
		t.tlsConn.SetWriteDeadline(time.Now().Add(closeNotifyTimeout))
		if cerr := t.tlsConn.CloseWrite(); cerr != nil {
			t.logger.Debug("connect", "TLS close_notify failed", t.address, cerr.Error())
		}
	}
	if t.tcpConn != nil {
		t.tcpConn.CloseRead()
		t.tcpConn.CloseWrite()
		err = t.tcpConn.Close()
	} else {
		err = t.conn.Close()
	}
	t.err = connectionError(t.address, ErrClosed)
	t.logger.Info("connect", "Closed", t.address)
	return err
}
