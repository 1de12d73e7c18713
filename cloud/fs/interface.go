// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fs stores baked files under a base path, locally or in S3.
package fs

// Filesystem reads and writes whole files by slash separated name relative to its base.
// ReadFile of a missing file returns an error wrapping os.ErrNotExist.
type Filesystem interface {
	WriteFile(name string, data []byte) error
	ReadFile(name string) ([]byte, error)
	String() string
}
