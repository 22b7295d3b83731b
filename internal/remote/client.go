// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// DefaultTimeout bounds connection establishment and authentication.
const DefaultTimeout = 10 * time.Second

// Client runs commands on a guest via SSH.
type Client struct {
	// Addr is the TCP address of the SSH server.
	Addr string

	User     string
	Password string

	// KeyFile is the path to a private key in OpenSSH or PEM format.
	KeyFile string

	// KnownHostsFile is used to verify the host key if set. Guest host keys
	// change with every installation, so they are not verified otherwise.
	KnownHostsFile string

	Timeout time.Duration
}

// NewClient returns a [Client] for the given forwarded SSH port on
// localhost.
func NewClient(port int, user string) *Client {
	return &Client{
		Addr:    net.JoinHostPort("localhost", strconv.Itoa(port)),
		User:    user,
		Timeout: DefaultTimeout,
	}
}

// Run runs the command in a new session and copies its output to the given
// writers. A non-zero exit status is returned as [ExitError]. The connection
// is closed if the context is done before the command finished.
func (c *Client) Run(ctx context.Context, command string, stdout, stderr io.Writer) error {
	client, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = client.Close()
		case <-done:
		}
	}()

	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("new session: %w", err)
	}
	defer session.Close()

	session.Stdout = stdout
	session.Stderr = stderr

	slog.Debug("Run remote command",
		slog.String("addr", c.Addr),
		slog.String("command", command))

	err = session.Run(command)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{
				Command: command,
				Status:  exitErr.ExitStatus(),
				Err:     err,
			}
		}

		return fmt.Errorf("run %q: %w", command, err)
	}

	return nil
}

// Output runs the command and returns its standard output.
func (c *Client) Output(ctx context.Context, command string) ([]byte, error) {
	var stdout bytes.Buffer

	err := c.Run(ctx, command, &stdout, nil)

	return stdout.Bytes(), err
}

func (c *Client) dial(ctx context.Context) (*ssh.Client, error) {
	config, err := c.config()
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: config.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", c.Addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.Addr, err)
	}

	if config.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(config.Timeout))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, c.Addr, config)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", c.Addr, err)
	}

	_ = conn.SetDeadline(time.Time{})

	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (c *Client) config() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if c.KeyFile != "" {
		signer, err := loadSigner(c.KeyFile)
		if err != nil {
			return nil, err
		}

		auth = append(auth, ssh.PublicKeys(signer))
	}

	if c.Password != "" {
		auth = append(auth, ssh.Password(c.Password))
	}

	if len(auth) == 0 {
		return nil, ErrNoAuthMethod
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()

	if c.KnownHostsFile != "" {
		callback, err := knownhosts.New(c.KnownHostsFile)
		if err != nil {
			return nil, fmt.Errorf("known hosts: %w", err)
		}

		hostKeyCallback = callback
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         c.Timeout,
	}, nil
}

func loadSigner(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		return nil, fmt.Errorf("parse key %s: %w", path, err)
	}

	return signer, nil
}
