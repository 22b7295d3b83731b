// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"context"
	"encoding/json"
	"net"
	"strconv"
	"time"
)

// Default timing of a [Client].
const (
	DefaultDialTimeout      = time.Second
	DefaultReplyTimeout     = 5 * time.Second
	DefaultQuiescenceWindow = 50 * time.Millisecond
)

// Executor executes QMP commands. It is implemented by [Client], which uses a
// new connection for each command, and by [Session] for batches of commands
// on a single connection.
type Executor interface {
	Execute(ctx context.Context, command string, args any) (json.RawMessage, error)
}

// Client connects to a QMP server.
type Client struct {
	// Addr is the TCP address of the server.
	Addr string

	// Drain is the strategy used to find message boundaries.
	Drain DrainMode

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration

	// ReplyTimeout bounds the wait for a single message from the server.
	ReplyTimeout time.Duration

	// QuiescenceWindow is the period of inactivity after which the
	// [DrainQuiescence] strategy considers the received data complete.
	QuiescenceWindow time.Duration
}

// NewClient returns a [Client] for the QMP server listening on the given
// port on localhost.
func NewClient(port int) *Client {
	return &Client{
		Addr:             net.JoinHostPort("localhost", strconv.Itoa(port)),
		Drain:            DrainLine,
		DialTimeout:      DefaultDialTimeout,
		ReplyTimeout:     DefaultReplyTimeout,
		QuiescenceWindow: DefaultQuiescenceWindow,
	}
}

// Open connects to the server and negotiates capabilities. The returned
// [Session] must be closed by the caller.
func (c *Client) Open(ctx context.Context) (*Session, error) {
	dialer := net.Dialer{Timeout: c.DialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, &ChannelUnavailableError{Addr: c.Addr, Err: err}
	}

	session := newSession(conn, c.Addr, c.Drain, c.ReplyTimeout, c.QuiescenceWindow)

	err = session.handshake(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return session, nil
}

// Execute runs a single command on a new session and returns the return
// value of the reply.
func (c *Client) Execute(
	ctx context.Context,
	command string,
	args any,
) (json.RawMessage, error) {
	session, err := c.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	return session.Execute(ctx, command, args)
}
