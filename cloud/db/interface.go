// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package db indexes bake runs by name.
package db

import "errors"

// ErrNotFound is returned by ReadBake for an unknown name.
var ErrNotFound = errors.New("db: bake not found")

type Index interface {
	// UpdateBake stores bake unless a record with a later Updated time exists.
	UpdateBake(bake Bake) error
	ReadBake(name string) (Bake, error)
	ReadBakes() (bakes []Bake, err error)
}
