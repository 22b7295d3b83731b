// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
)

const readChunkSize = 4096

// maxMessageSize is the largest message accepted from the server.
const maxMessageSize = 1 << 20

// Session is a negotiated connection to a QMP server. It is not safe for
// concurrent use.
type Session struct {
	conn     net.Conn
	addr     string
	reader   *bufio.Reader
	drain    DrainMode
	timeout  time.Duration
	window   time.Duration
	greeting Greeting

	// Data has been received on the connection.
	received bool
	// Unconsumed data for quiescence draining.
	buf     []byte
	pending []json.RawMessage
}

func newSession(
	conn net.Conn,
	addr string,
	drain DrainMode,
	timeout time.Duration,
	window time.Duration,
) *Session {
	if timeout <= 0 {
		timeout = DefaultReplyTimeout
	}

	if window <= 0 {
		window = DefaultQuiescenceWindow
	}

	return &Session{
		conn:    conn,
		addr:    addr,
		reader:  bufio.NewReader(conn),
		drain:   drain,
		timeout: timeout,
		window:  window,
	}
}

// Greeting returns the greeting sent by the server.
func (s *Session) Greeting() Greeting {
	return s.greeting
}

// Close closes the connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Execute sends the command with the given arguments and waits for its reply.
// Arguments are omitted from the request if nil. The return value of the
// reply is returned as is. An error reply is returned as
// [RemoteCommandError].
func (s *Session) Execute(
	ctx context.Context,
	command string,
	args any,
) (json.RawMessage, error) {
	request := Request{
		Execute: command,
		ID:      uuid.NewString(),
	}

	if args != nil {
		rawArgs, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal arguments of %s: %w", command, err)
		}

		request.Arguments = rawArgs
	}

	slog.Debug("QMP request",
		slog.String("addr", s.addr),
		slog.String("command", command),
		slog.String("id", request.ID))

	err := s.send(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("send %s: %w", command, err)
	}

	reply, err := s.receive(ctx, request.ID)
	if err != nil {
		return nil, fmt.Errorf("receive %s: %w", command, err)
	}

	if reply.Error != nil {
		return nil, &RemoteCommandError{
			Command: command,
			Class:   reply.Error.Class,
			Desc:    reply.Error.Desc,
		}
	}

	return reply.Return, nil
}

func (s *Session) handshake(ctx context.Context) error {
	msg, err := s.next(ctx)
	if err != nil {
		return fmt.Errorf("greeting: %w", err)
	}

	if msg.Greeting == nil {
		return fmt.Errorf("%w: expected greeting", ErrProtocol)
	}

	s.greeting = *msg.Greeting

	_, err = s.Execute(ctx, "qmp_capabilities", nil)
	if err != nil {
		return err
	}

	return nil
}

func (s *Session) send(ctx context.Context, request Request) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	data = append(data, '\n')

	err = s.conn.SetWriteDeadline(s.deadline(ctx))
	if err != nil {
		return s.transportError(err)
	}

	_, err = s.conn.Write(data)
	if err != nil {
		return s.transportError(err)
	}

	return nil
}

// receive returns the next reply to the request with the given id. Events
// and replies to other requests are skipped. Replies without id are
// accepted, as servers are not required to echo it.
func (s *Session) receive(ctx context.Context, id string) (*Message, error) {
	for {
		msg, err := s.next(ctx)
		if err != nil {
			return nil, err
		}

		switch {
		case msg.Event != "":
			slog.Debug("QMP event",
				slog.String("addr", s.addr),
				slog.String("event", msg.Event))
		case !msg.isReply():
			return nil, fmt.Errorf("%w: unexpected message", ErrProtocol)
		case msg.ID != "" && msg.ID != id:
			slog.Debug("QMP reply for other request skipped",
				slog.String("addr", s.addr),
				slog.String("id", msg.ID))
		default:
			return msg, nil
		}
	}
}

func (s *Session) next(ctx context.Context) (*Message, error) {
	var (
		raw json.RawMessage
		err error
	)

	switch s.drain {
	case DrainQuiescence:
		raw, err = s.nextQuiescent(ctx)
	default:
		raw, err = s.nextLine(ctx)
	}

	if err != nil {
		return nil, err
	}

	var msg Message

	err = json.Unmarshal(raw, &msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	return &msg, nil
}

func (s *Session) nextLine(ctx context.Context) (json.RawMessage, error) {
	for {
		err := s.conn.SetReadDeadline(s.deadline(ctx))
		if err != nil {
			return nil, s.transportError(err)
		}

		line, err := s.readLine()
		if err != nil {
			return nil, err
		}

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			return line, nil
		}
	}
}

// readLine reads up to and including the next line break. Lines longer than
// [maxMessageSize] are rejected.
func (s *Session) readLine() ([]byte, error) {
	var line []byte

	for {
		fragment, err := s.reader.ReadSlice('\n')
		if len(fragment) > 0 {
			s.received = true
			line = append(line, fragment...)
		}

		if len(line) > maxMessageSize {
			return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrProtocol, maxMessageSize)
		}

		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, s.transportError(err)
		}
	}
}

func (s *Session) nextQuiescent(ctx context.Context) (json.RawMessage, error) {
	limit := s.deadline(ctx)
	chunk := make([]byte, readChunkSize)

	for len(s.pending) == 0 {
		readDeadline := time.Now().Add(s.window)
		if readDeadline.After(limit) {
			readDeadline = limit
		}

		err := s.conn.SetReadDeadline(readDeadline)
		if err != nil {
			return nil, s.transportError(err)
		}

		n, err := s.conn.Read(chunk)
		if n > 0 {
			s.received = true
			s.buf = append(s.buf, chunk[:n]...)
		}

		if len(s.buf) > maxMessageSize {
			s.buf = nil
			return nil, fmt.Errorf("%w: message exceeds %d bytes", ErrProtocol, maxMessageSize)
		}

		switch {
		case err == nil:
			continue
		case !errors.Is(err, os.ErrDeadlineExceeded):
			return nil, s.transportError(err)
		case len(s.buf) > 0:
			decodeErr := s.decodeBuffer()
			if decodeErr != nil {
				return nil, decodeErr
			}
		}

		if len(s.pending) == 0 && !time.Now().Before(limit) {
			return nil, s.transportError(err)
		}
	}

	msg := s.pending[0]
	s.pending = s.pending[1:]

	return msg, nil
}

// decodeBuffer moves all complete JSON values from the buffer to the pending
// messages.
func (s *Session) decodeBuffer() error {
	decoder := json.NewDecoder(bytes.NewReader(s.buf))

	var consumed int64

	for {
		var raw json.RawMessage

		err := decoder.Decode(&raw)

		switch {
		case err == nil:
			consumed = decoder.InputOffset()
			s.pending = append(s.pending, raw)
		case errors.Is(err, io.EOF):
			s.buf = s.buf[:0]
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			s.buf = append([]byte(nil), s.buf[consumed:]...)
			return nil
		default:
			s.buf = s.buf[:0]
			return fmt.Errorf("%w: %w", ErrProtocol, err)
		}
	}
}

func (s *Session) deadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(s.timeout)

	ctxDeadline, ok := ctx.Deadline()
	if ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}

	return deadline
}

// transportError classifies connection failures. Until anything has been
// received, the channel is considered unavailable.
func (s *Session) transportError(err error) error {
	if !s.received {
		return &ChannelUnavailableError{Addr: s.addr, Err: err}
	}

	return fmt.Errorf("%w: %w", ErrConnectionLost, err)
}
