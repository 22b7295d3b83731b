// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"time"

	"github.com/aibor/vmctl/internal/qmp"
)

// Defaults of [DefaultConfig].
const (
	DefaultBootAttempts     = 10
	DefaultBootInterval     = time.Second
	DefaultShutdownAttempts = 50
	DefaultShutdownInterval = 100 * time.Millisecond
	DefaultDisplayPassword  = "vmctl"
)

// RetryPolicy is a bounded number of attempts with a fixed interval in
// between.
type RetryPolicy struct {
	Attempts int
	Interval time.Duration
}

// Budget returns the total time spent sleeping if all attempts fail.
func (p RetryPolicy) Budget() time.Duration {
	return time.Duration(p.attempts()-1) * p.Interval
}

func (p RetryPolicy) attempts() int {
	return max(p.Attempts, 1)
}

// SleepFunc blocks for the given duration or until the context is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default [SleepFunc].
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Config holds the tunables of a [Controller].
type Config struct {
	// Boot is the readiness poll budget after launch.
	Boot RetryPolicy

	// Shutdown is the budget for the process to disappear after "quit".
	Shutdown RetryPolicy

	// DisplayPassword is set for the VNC display right after the control
	// channel is up.
	DisplayPassword string

	// Drain is the QMP reply drain strategy.
	Drain qmp.DrainMode

	// QMPReplyTimeout bounds waiting for a single QMP message.
	QMPReplyTimeout time.Duration

	// QuiescenceWindow is used with [qmp.DrainQuiescence].
	QuiescenceWindow time.Duration

	// Sleep is used for the intervals of all polls.
	Sleep SleepFunc
}

// DefaultConfig returns the default [Config].
func DefaultConfig() Config {
	return Config{
		Boot: RetryPolicy{
			Attempts: DefaultBootAttempts,
			Interval: DefaultBootInterval,
		},
		Shutdown: RetryPolicy{
			Attempts: DefaultShutdownAttempts,
			Interval: DefaultShutdownInterval,
		},
		DisplayPassword:  DefaultDisplayPassword,
		Drain:            qmp.DrainLine,
		QMPReplyTimeout:  qmp.DefaultReplyTimeout,
		QuiescenceWindow: qmp.DefaultQuiescenceWindow,
		Sleep:            Sleep,
	}
}

func (c Config) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep == nil {
		return Sleep(ctx, d)
	}

	return c.Sleep(ctx, d)
}
