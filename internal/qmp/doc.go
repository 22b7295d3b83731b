// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qmp implements a client for the QEMU Machine Protocol.
//
// QMP is a JSON based control protocol served by QEMU on a character device,
// here a TCP socket on localhost. After connecting, the server sends a
// greeting. The client must negotiate capabilities with "qmp_capabilities"
// before any other command is accepted. Each request is a single JSON object
// and is answered by a single JSON object carrying either a "return" or an
// "error" member. Asynchronous events may be interleaved with replies at any
// time.
//
// The transport does not frame messages. Two strategies to find reply
// boundaries are supported, see [DrainMode]. A [Session] is bound to exactly
// one connection. The [Client] opens a new session for every call, so
// sessions are never shared or reused.
package qmp
