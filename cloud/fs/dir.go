// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package fs

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirFilesystem stores files in a local directory, created on first write.
type DirFilesystem struct {
	dir string
}

func NewDirFilesystem(dir string) *DirFilesystem {
	return &DirFilesystem{dir: filepath.Clean(dir)}
}

func (d *DirFilesystem) path(name string) string {
	return filepath.Join(d.dir, filepath.FromSlash(name))
}

func (d *DirFilesystem) WriteFile(name string, data []byte) error {
	path := d.path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", name, err)
	}

	// Write then rename so readers never see a partial file.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

func (d *DirFilesystem) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(d.path(name))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

func (d *DirFilesystem) String() string {
	return d.dir
}
