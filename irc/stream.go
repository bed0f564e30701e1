// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"iter"
	"strconv"

	"github.com/teslaNova/np1th-irc/irc/logger"
	"github.com/teslaNova/np1th-irc/irc/utils"
)

// Stream turns a Transport into a FIFO of parsed messages. It is owned by
// a single goroutine.
type Stream struct {
	transport *Transport
	parser    *Parser
	logger    *logger.Manager

	queue   []*Message
	dropped int
}

// NewStream parses the lines of transport with parser; a nil parser uses
// the default limits.
func NewStream(transport *Transport, parser *Parser, log *logger.Manager) *Stream {
	if parser == nil {
		parser = defaultParser
	}
	return &Stream{
		transport: transport,
		parser:    parser,
		logger:    log,
	}
}

// Transport returns the underlying transport.
func (s *Stream) Transport() *Transport {
	return s.transport
}

// Read returns the next message, or nil when none has arrived yet.
// Transport failures are returned once every message received before them
// has been read.
func (s *Stream) Read() (*Message, error) {
	if len(s.queue) == 0 {
		if err := s.fill(); err != nil {
			return nil, err
		}
	}
	if len(s.queue) == 0 {
		return nil, nil
	}
	msg := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	return msg, nil
}

// fill parses whatever the transport has buffered. Lines that fail to
// parse are logged and skipped.
func (s *Stream) fill() error {
	readErr := s.transport.ReadAvailable()
	for {
		line, ok := s.transport.PopLine()
		if !ok {
			break
		}
		text := utils.DecodeLine(line)
		msg, err := s.parser.ParseMessage(text)
		if err != nil {
			s.dropped++
			s.logger.Debug("parse", "Dropped line", text, err.Error())
			continue
		}
		s.queue = append(s.queue, &msg)
	}
	if len(s.queue) != 0 {
		return nil
	}
	return readErr
}

// Pending is the number of parsed messages waiting to be read.
func (s *Stream) Pending() int {
	return len(s.queue)
}

// Dropped is the number of received lines that failed to parse.
func (s *Stream) Dropped() int {
	return s.dropped
}

// Messages yields messages as Read returns them, including a nil message
// whenever nothing has arrived. It ends after yielding an error, or when
// the caller stops ranging.
func (s *Stream) Messages() iter.Seq2[*Message, error] {
	return func(yield func(*Message, error) bool) {
		for {
			msg, err := s.Read()
			if !yield(msg, err) || err != nil {
				return
			}
		}
	}
}

// Send writes one locally originated command. It returns the stream so
// that sends can be chained.
func (s *Stream) Send(cmd Command) (*Stream, error) {
	return s, s.SendMessage(NewMessage(cmd))
}

// SendMessage writes one message.
func (s *Stream) SendMessage(msg Message) error {
	line, err := msg.Line()
	if err != nil {
		return err
	}
	return s.transport.WriteLine([]byte(line))
}

// Close closes the transport.
func (s *Stream) Close() error {
	if n := len(s.queue); n != 0 {
		s.logger.Debug("connect", "Closing with unread messages", strconv.Itoa(n))
	}
	return s.transport.Close()
}
