// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qmptest provides an in-process QMP server for tests.
package qmptest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/aibor/vmctl/internal/qmp"
	"golang.org/x/sync/errgroup"
)

// Handler answers a command. If it returns a [qmp.ErrorReply], it is sent as
// is. Any other error is sent as "GenericError".
type Handler func(args json.RawMessage) (any, error)

// Return returns a [Handler] that always returns the given value.
func Return(value any) Handler {
	return func(json.RawMessage) (any, error) {
		return value, nil
	}
}

// Option configures a [Server].
type Option func(*Server)

// WithPrettyReplies makes the server indent its messages over multiple lines,
// like a monitor started with "pretty=on".
func WithPrettyReplies() Option {
	return func(s *Server) {
		s.pretty = true
	}
}

// WithSplitReplies makes the server write each message in two parts with the
// given delay in between.
func WithSplitReplies(delay time.Duration) Option {
	return func(s *Server) {
		s.splitDelay = delay
	}
}

// WithSilence makes the server accept connections without ever sending
// anything.
func WithSilence() Option {
	return func(s *Server) {
		s.silent = true
	}
}

// WithRejectedConnections makes the server close the first n connections
// right after accepting them, like a QEMU process that is not ready yet.
func WithRejectedConnections(n int) Option {
	return func(s *Server) {
		s.reject = n
	}
}

// WithEvents makes the server send the given event before each reply.
func WithEvents(event string) Option {
	return func(s *Server) {
		s.event = event
	}
}

// WithoutIDs makes the server omit the id in replies.
func WithoutIDs() Option {
	return func(s *Server) {
		s.noIDs = true
	}
}

// Server is a fake QMP server listening on a random port on localhost.
type Server struct {
	listener net.Listener
	group    errgroup.Group

	pretty     bool
	splitDelay time.Duration
	silent     bool
	event      string
	noIDs      bool
	reject     int

	mu       sync.Mutex
	handlers map[string]Handler
	requests []qmp.Request
	rejected int
	conns    map[net.Conn]struct{}
	closed   bool
}

// NewServer starts a new server. It is closed when the test finishes.
func NewServer(tb testing.TB, opts ...Option) *Server {
	tb.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("listen: %v", err)
	}

	server := &Server{
		listener: listener,
		handlers: map[string]Handler{
			"qmp_capabilities": Return(struct{}{}),
		},
		conns: make(map[net.Conn]struct{}),
	}

	for _, opt := range opts {
		opt(server)
	}

	server.group.Go(server.serve)

	tb.Cleanup(func() {
		err := server.Close()
		if err != nil {
			tb.Errorf("close server: %v", err)
		}
	})

	return server
}

// Port returns the TCP port the server listens on.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns the address the server listens on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Handle registers the handler for the given command.
func (s *Server) Handle(command string, handler Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers[command] = handler
}

// Requests returns all requests received so far.
func (s *Server) Requests() []qmp.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]qmp.Request(nil), s.requests...)
}

// Rejected returns the number of connections closed right after accept.
func (s *Server) Rejected() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rejected
}

// Commands returns the command names of all requests received so far.
func (s *Server) Commands() []string {
	requests := s.Requests()
	commands := make([]string, 0, len(requests))

	for _, request := range requests {
		commands = append(commands, request.Execute)
	}

	return commands
}

// Close stops the server, closes all open connections and waits for all
// connection handlers to return.
func (s *Server) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true

	for conn := range s.conns {
		_ = conn.Close()
	}

	s.mu.Unlock()

	_ = s.listener.Close()

	return s.group.Wait()
}

func (s *Server) serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			return fmt.Errorf("accept: %w", err)
		}

		tracked, closed := s.track(conn)
		if !tracked {
			_ = conn.Close()

			if closed {
				return nil
			}

			continue
		}

		s.group.Go(func() error {
			defer s.untrack(conn)
			s.handle(conn)

			return nil
		})
	}
}

// track registers the connection unless the server is closed or the
// connection is to be rejected.
func (s *Server) track(conn net.Conn) (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, true
	}

	if s.reject > 0 {
		s.reject--
		s.rejected++

		return false, false
	}

	s.conns[conn] = struct{}{}

	return true, false
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = conn.Close()
	delete(s.conns, conn)
}

func (s *Server) handle(conn net.Conn) {
	if s.silent {
		// Block until the connection is closed by either side.
		_, _ = conn.Read(make([]byte, 1))
		return
	}

	greeting := map[string]any{
		"QMP": qmp.Greeting{
			Version: qmp.Version{
				QEMU: qmp.VersionTriple{Major: 9, Minor: 1, Micro: 2},
			},
			Capabilities: []string{"oob"},
		},
	}

	if s.write(conn, greeting) != nil {
		return
	}

	decoder := json.NewDecoder(conn)

	for {
		var request struct {
			qmp.Request
			RawID json.RawMessage `json:"id,omitempty"`
		}

		err := decoder.Decode(&request)
		if err != nil {
			return
		}

		s.mu.Lock()
		s.requests = append(s.requests, request.Request)
		handler, exists := s.handlers[request.Execute]
		s.mu.Unlock()

		if s.event != "" {
			event := map[string]any{
				"event": s.event,
				"data":  map[string]any{},
			}

			if s.write(conn, event) != nil {
				return
			}
		}

		reply := map[string]any{}
		if len(request.RawID) > 0 && !s.noIDs {
			reply["id"] = request.RawID
		}

		if !exists {
			reply["error"] = qmp.ErrorReply{
				Class: "CommandNotFound",
				Desc:  fmt.Sprintf("The command %s has not been found", request.Execute),
			}
		} else if value, err := handler(request.Arguments); err != nil {
			var errReply *qmp.ErrorReply
			if !errors.As(err, &errReply) {
				errReply = &qmp.ErrorReply{Class: "GenericError", Desc: err.Error()}
			}

			reply["error"] = errReply
		} else {
			reply["return"] = value
		}

		if s.write(conn, reply) != nil {
			return
		}
	}
}

func (s *Server) write(conn net.Conn, msg any) error {
	var (
		data []byte
		err  error
	)

	if s.pretty {
		data, err = json.MarshalIndent(msg, "", "    ")
	} else {
		data, err = json.Marshal(msg)
	}

	if err != nil {
		return err
	}

	data = append(data, '\r', '\n')

	if s.splitDelay > 0 {
		half := len(data) / 2

		_, err = conn.Write(data[:half])
		if err != nil {
			return err
		}

		time.Sleep(s.splitDelay)

		data = data[half:]
	}

	_, err = conn.Write(data)

	return err
}
