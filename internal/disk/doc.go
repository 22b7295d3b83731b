// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package disk creates copy-on-write disk images for guests using an external
// image tool (qemu-img by default).
//
// Images are either standalone base images or linked clones that reference a
// base image as backing file. The backing file relation is recorded in the
// image itself and not tracked by this package. Images are never overwritten
// or deleted.
package disk
