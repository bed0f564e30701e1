// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package irc

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/teslaNova/np1th-irc/irc/logger"
)

func newPipeStream(t *testing.T, log *logger.Manager) (stream *Stream, server net.Conn) {
	t.Helper()
	return newPipeStreamReadQ(t, 0, log)
}

func newPipeStreamReadQ(t *testing.T, maxReadQ int, log *logger.Manager) (stream *Stream, server net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	transport := NewTransport(client, maxReadQ, log)
	transport.SetPollInterval(5 * time.Millisecond)
	stream = NewStream(transport, nil, log)
	t.Cleanup(func() {
		server.Close()
		stream.Close()
	})
	return stream, server
}

func readMessages(t *testing.T, stream *Stream, count int) (messages []*Message) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for len(messages) < count {
		if time.Now().After(deadline) {
			t.Fatalf("timed out with %d of %d messages", len(messages), count)
		}
		msg, err := stream.Read()
		if err != nil {
			t.Fatal(err)
		}
		if msg != nil {
			messages = append(messages, msg)
		}
	}
	return
}

func TestStreamIdle(t *testing.T) {
	stream, _ := newPipeStream(t, nil)
	msg, err := stream.Read()
	if msg != nil || err != nil {
		t.Errorf("expected nothing from an idle stream, got %v, %v", msg, err)
	}
}

func TestStreamSkipsMalformedLines(t *testing.T) {
	var logOutput bytes.Buffer
	log, err := logger.NewManager([]logger.LoggingConfig{{
		Writer: &logOutput,
		Types:  []string{"parse"},
		Level:  logger.LogDebug,
	}})
	if err != nil {
		t.Fatal(err)
	}
	stream, server := newPipeStream(t, log)

	go server.Write([]byte(strings.Join([]string{
		":irc.example.org PING :one",
		"garbage",
		":irc.example.org FOO bar",
		":irc.example.org PING :two",
		"",
	}, "\r\n")))

	messages := readMessages(t, stream, 2)
	assertEqual(messages[0].Command, Ping{Server1: "one"}, t)
	assertEqual(messages[1].Command, Ping{Server1: "two"}, t)
	assertEqual(stream.Dropped(), 2, t)
	if !strings.Contains(logOutput.String(), "garbage") {
		t.Errorf("dropped line was not logged: %q", logOutput.String())
	}
}

func TestStreamLatin1(t *testing.T) {
	stream, server := newPipeStream(t, nil)
	go server.Write([]byte("PRIVMSG #a :caf\xe9\r\n"))
	messages := readMessages(t, stream, 1)
	assertEqual(messages[0].Command, PrivMsg{Targets: []string{"#a"}, Text: "café"}, t)
}

func TestStreamSend(t *testing.T) {
	stream, server := newPipeStream(t, nil)
	received := make(chan string, 2)
	go func() {
		reader := bufio.NewReader(server)
		for i := 0; i < 2; i++ {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			received <- line
		}
	}()

	s, err := stream.Send(Nick{Name: "dan"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = s.Send(Join{Channels: []string{"#ergo"}}); err != nil {
		t.Fatal(err)
	}
	assertEqual(<-received, "NICK :dan\r\n", t)
	assertEqual(<-received, "JOIN #ergo\r\n", t)

	if _, err = stream.Send(MotdEnd{}); !errors.Is(err, ErrNotSerializable) {
		t.Errorf("expected a reply to be unsendable, got %v", err)
	}
}

func TestStreamMessages(t *testing.T) {
	stream, server := newPipeStream(t, nil)
	go func() {
		server.Write([]byte("PING :one\r\n"))
		server.Close()
	}()

	var got []Command
	var idle int
	var lastErr error
	for msg, err := range stream.Messages() {
		if err != nil {
			lastErr = err
			break
		}
		if msg == nil {
			idle++
			continue
		}
		got = append(got, msg.Command)
	}
	assertEqual(got, []Command{Ping{Server1: "one"}}, t)
	if !errors.Is(lastErr, ErrConnection) {
		t.Errorf("expected the sequence to end with a connection error, got %v", lastErr)
	}
}

func TestStreamRawIOLogging(t *testing.T) {
	var logOutput bytes.Buffer
	log, err := logger.NewManager([]logger.LoggingConfig{{
		Writer: &logOutput,
		Types:  []string{"input", "output"},
		Level:  logger.LogDebug,
	}})
	if err != nil {
		t.Fatal(err)
	}
	stream, server := newPipeStream(t, log)
	go func() {
		buf := make([]byte, 512)
		server.Read(buf)
		server.Write([]byte("PING :abc\r\n"))
	}()
	if _, err := stream.Send(Quit{Reason: "bye"}); err != nil {
		t.Fatal(err)
	}
	readMessages(t, stream, 1)

	output := logOutput.String()
	if !strings.Contains(output, "QUIT :bye") || !strings.Contains(output, "PING :abc") {
		t.Errorf("raw I/O missing from log: %q", output)
	}
}

func TestStreamReadQ(t *testing.T) {
	longLine := "PRIVMSG #a :" + strings.Repeat("x", 12000) + "\r\nPING :after\r\n"

	// a readq large enough for the line delivers it and what follows
	stream, server := newPipeStreamReadQ(t, 16*1024, nil)
	go server.Write([]byte(longLine))
	messages := readMessages(t, stream, 2)
	assertEqual(len(messages[0].Command.(PrivMsg).Text), 12000, t)
	assertEqual(messages[1].Command, Ping{Server1: "after"}, t)

	// overflowing the readq is fatal to the connection
	stream, server = newPipeStreamReadQ(t, 1024, nil)
	go server.Write([]byte(longLine))
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		msg, err := stream.Read()
		if err != nil {
			if !errors.Is(err, ErrReadQ) || !errors.Is(err, ErrConnection) {
				t.Errorf("expected a readq connection error, got %v", err)
			}
			return
		}
		if msg != nil {
			t.Fatalf("unexpected message %#v", msg)
		}
	}
	t.Fatal("the overlong line was never reported")
}
