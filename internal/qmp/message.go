// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"encoding/json"
	"fmt"
)

// Request is a command sent to the server.
type Request struct {
	Execute   string          `json:"execute"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	ID        string          `json:"id,omitempty"`
}

// ErrorReply is the error member of a failed reply.
type ErrorReply struct {
	Class string `json:"class"`
	Desc  string `json:"desc"`
}

// Error implements the [error] interface, so servers can return it from
// command handlers.
func (e *ErrorReply) Error() string {
	return e.Class + ": " + e.Desc
}

// VersionTriple is a version number.
type VersionTriple struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
	Micro int `json:"micro"`
}

// String implements [fmt.Stringer].
func (v VersionTriple) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// Version is the QEMU version announced in the greeting.
type Version struct {
	QEMU    VersionTriple `json:"qemu"`
	Package string        `json:"package"`
}

// Greeting is sent by the server right after the connection is established.
type Greeting struct {
	Version      Version  `json:"version"`
	Capabilities []string `json:"capabilities"`
}

// Message is any message received from the server. Exactly one of Greeting,
// Return, Error and Event is set for valid messages.
type Message struct {
	Greeting *Greeting       `json:"QMP,omitempty"`
	Return   json.RawMessage `json:"return,omitempty"`
	Error    *ErrorReply     `json:"error,omitempty"`
	Event    string          `json:"event,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`
	ID       string          `json:"id,omitempty"`
}

func (m *Message) isReply() bool {
	return m.Return != nil || m.Error != nil
}
