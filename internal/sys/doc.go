// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package sys provides host system details relevant for running guests: the
// supported guest architectures and hardware acceleration probing.
package sys
