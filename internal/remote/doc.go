// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package remote runs single commands in guests over SSH on the guest's
// forwarded SSH port.
package remote
